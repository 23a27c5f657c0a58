package storeauth

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/storeauth/internal/audit"
	internalmetrics "github.com/MrEthical07/storeauth/internal/metrics"
)

// Role is a position in the fixed storefront hierarchy
// CUSTOMER < SUPPORT < ADMIN < SUPER_ADMIN.
type Role uint8

const (
	RoleCustomer Role = iota
	RoleSupport
	RoleAdmin
	RoleSuperAdmin
)

// String returns the stable wire form of the role. The enum values are
// part of the token and store contract and must not be renumbered.
func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "CUSTOMER"
	case RoleSupport:
		return "SUPPORT"
	case RoleAdmin:
		return "ADMIN"
	case RoleSuperAdmin:
		return "SUPER_ADMIN"
	default:
		return "UNKNOWN"
	}
}

// ParseRole maps a wire-form role name back to its enum value.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "CUSTOMER":
		return RoleCustomer, true
	case "SUPPORT":
		return RoleSupport, true
	case "ADMIN":
		return RoleAdmin, true
	case "SUPER_ADMIN":
		return RoleSuperAdmin, true
	default:
		return RoleCustomer, false
	}
}

// AtLeast reports whether r sits at or above min in the hierarchy.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// AuthProvider identifies how an account authenticates.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

// Account is the full internal credential record. It is the engine-only
// projection: transient challenge codes and the password hash are present.
// Use [Account.Public] for anything that leaves the engine.
type Account struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Provider     AuthProvider
	FederatedID  string
	Role         Role

	EmailVerified      bool
	VerificationCode   string
	VerificationExpiry time.Time
	ResetCode          string
	ResetExpiry        time.Time

	// RefreshFamilies is the set of rotation lineages currently valid for
	// this account. Login and refresh replace it with a singleton; the set
	// representation is kept so multi-device sessions can be enabled later.
	RefreshFamilies []string

	Active  bool
	Blocked bool

	LastLoginAt time.Time
	CreatedAt   time.Time

	// Version is the optimistic-concurrency counter checked by
	// [CredentialStore.Save]. Stores bump it on every successful write.
	Version uint64
}

// PublicAccount is the read shape safe for API responses: no hash, no
// challenge codes, no family identifiers.
type PublicAccount struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	DisplayName   string       `json:"displayName"`
	Provider      AuthProvider `json:"authProvider"`
	Role          string       `json:"role"`
	EmailVerified bool         `json:"emailVerified"`
	Active        bool         `json:"isActive"`
	Blocked       bool         `json:"isBlocked"`
	LastLoginAt   time.Time    `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt,omitempty"`
}

// Public returns the API-safe projection of the account.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:            a.ID,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		Provider:      a.Provider,
		Role:          a.Role.String(),
		EmailVerified: a.EmailVerified,
		Active:        a.Active,
		Blocked:       a.Blocked,
		LastLoginAt:   a.LastLoginAt,
		CreatedAt:     a.CreatedAt,
	}
}

// HasFamily reports membership of a rotation family in the active set.
func (a *Account) HasFamily(familyID string) bool {
	for _, f := range a.RefreshFamilies {
		if f == familyID {
			return true
		}
	}
	return false
}

// Clone deep-copies the account. Stores hand out clones so callers never
// alias store-internal state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	dup := *a
	if a.RefreshFamilies != nil {
		dup.RefreshFamilies = append([]string(nil), a.RefreshFamilies...)
	}
	return &dup
}

// CredentialStore is the durable account record contract consumed by the
// Engine. Implementations must serialize writes per account: Save is a
// compare-and-set on [Account.Version], and both Create and Save must
// reject writes that would yield a second SUPER_ADMIN or demote the sole
// one.
//
// Lookup misses return [ErrAccountNotFound]; duplicate emails (compared
// case-insensitively) return [ErrEmailExists]; CAS misses return
// [ErrVersionConflict]. Infrastructure failures wrap [ErrStoreUnavailable].
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByFederatedID(ctx context.Context, provider AuthProvider, federatedID string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	Save(ctx context.Context, account *Account) error
}

// TemplateKind selects the notification template delivered to a user.
type TemplateKind string

const (
	TemplateEmailVerification TemplateKind = "emailVerification"
	TemplatePasswordReset     TemplateKind = "passwordReset"
	TemplateWelcome           TemplateKind = "welcome"
)

// NotificationDispatcher delivers OTPs and notices to the user's address.
// The engine depends only on the boolean outcome; a false return is logged
// and never fails the triggering operation.
type NotificationDispatcher interface {
	Send(ctx context.Context, address string, kind TemplateKind, payload map[string]string) bool
}

// NoOpDispatcher silently accepts every notification. Useful in tests and
// for embedders that deliver mail out of band.
type NoOpDispatcher struct{}

func (NoOpDispatcher) Send(context.Context, string, TemplateKind, map[string]string) bool {
	return true
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
}

// RegisterResult is returned by [Engine.Register]. The OTP itself is never
// part of the result; it travels only through the dispatcher.
type RegisterResult struct {
	AccountID                 string
	Email                     string
	RequiresEmailVerification bool
}

// LoginResult is returned by [Engine.Login], [Engine.FederatedLogin], and
// [Engine.Refresh]. The refresh token must reach the client through a
// protected channel (HttpOnly cookie); see middleware.RefreshCookie.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Account      PublicAccount
}

// FederatedIdentity is a provider-asserted identity presented to
// [Engine.FederatedLogin]. The provider has already verified the email.
type FederatedIdentity struct {
	Provider    AuthProvider
	FederatedID string
	Email       string
	DisplayName string
}

// Identity is the resolved caller attached to request context by the
// authorization gate.
type Identity struct {
	AccountID     string
	Email         string
	Role          Role
	EmailVerified bool
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot
