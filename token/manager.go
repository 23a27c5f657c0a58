package token

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TypeAccess is the typ claim carried by access tokens.
	TypeAccess = "access"
	// TypeRefresh is the typ claim carried by refresh tokens.
	TypeRefresh = "refresh"
)

// ErrInvalidToken is the single failure surface of ParseAccess and
// ParseRefresh. Any signature mismatch, expiry, malformed claim set, or
// wrong typ collapses into it; callers never see parser internals.
var ErrInvalidToken = errors.New("invalid token")

// Config carries the signing material and lifetimes for both token kinds.
// Access and refresh tokens are signed with different secrets so a leaked
// access secret cannot forge refresh tokens.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Leeway        time.Duration
}

// Claims is the signed claim bundle for both token kinds. FamilyID is
// populated only on refresh tokens; the registered ID claim (jti) is a
// fresh uuid per issued token.
type Claims struct {
	AccountID string `json:"uid"`
	Email     string `json:"eml"`
	Role      string `json:"rol"`
	TokenType string `json:"typ"`
	FamilyID  string `json:"fam,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies the stateless token pair. It holds no token
// table; revocation happens entirely through the account's refresh family
// set.
type Manager struct {
	config Config
}

// NewManager validates the configuration and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.AccessSecret) < 32 || len(cfg.RefreshSecret) < 32 {
		return nil, errors.New("token secrets must be at least 32 bytes")
	}
	if subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RefreshSecret) == 1 {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// IssueAccess signs a short-lived access token for the account.
func (m *Manager) IssueAccess(accountID, email, role string) (string, error) {
	return m.issue(TypeAccess, accountID, email, role, "", m.config.AccessTTL, m.config.AccessSecret)
}

// IssueRefresh signs a long-lived refresh token bound to a rotation family.
func (m *Manager) IssueRefresh(accountID, email, role, familyID string) (string, error) {
	if familyID == "" {
		return "", errors.New("refresh token requires a family id")
	}
	return m.issue(TypeRefresh, accountID, email, role, familyID, m.config.RefreshTTL, m.config.RefreshSecret)
}

// ParseAccess verifies an access token. It fails closed: every defect maps
// to ErrInvalidToken.
func (m *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, TypeAccess, m.config.AccessSecret)
}

// ParseRefresh verifies a refresh token with the refresh secret and checks
// typ="refresh".
func (m *Manager) ParseRefresh(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, TypeRefresh, m.config.RefreshSecret)
}

func (m *Manager) issue(kind, accountID, email, role, familyID string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		Email:     email,
		Role:      role,
		TokenType: kind,
		FamilyID:  familyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *Manager) parse(tokenStr, wantType string, secret []byte) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	if claims.AccountID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if wantType == TypeRefresh && claims.FamilyID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
