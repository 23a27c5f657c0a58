// Package redisstore is a Redis-backed CredentialStore. Records are JSON
// values keyed by account id, with secondary indexes for the lowercased
// email and the federated identity. Writes go through Lua scripts so the
// version compare-and-set, the email uniqueness check, and the
// single-SUPER_ADMIN guard commit atomically.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/storeauth"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "sa"

// Store implements storeauth.CredentialStore on Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Store using the given client. An empty prefix defaults to
// "sa"; all keys are namespaced under it.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) acctKey(id string) string { return s.prefix + ":acct:" + id }
func (s *Store) verKey(id string) string  { return s.prefix + ":ver:" + id }
func (s *Store) superKey() string         { return s.prefix + ":super" }

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) fedKey(provider storeauth.AuthProvider, federatedID string) string {
	return s.prefix + ":fed:" + string(provider) + ":" + federatedID
}

// record is the persisted shape. Version is stored both here and in a
// separate counter key; the counter is what the Lua scripts compare.
type record struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	DisplayName        string    `json:"displayName,omitempty"`
	PasswordHash       string    `json:"passwordHash,omitempty"`
	Provider           string    `json:"provider"`
	FederatedID        string    `json:"federatedId,omitempty"`
	Role               uint8     `json:"role"`
	EmailVerified      bool      `json:"emailVerified"`
	VerificationCode   string    `json:"verificationCode,omitempty"`
	VerificationExpiry time.Time `json:"verificationExpiry,omitempty"`
	ResetCode          string    `json:"resetCode,omitempty"`
	ResetExpiry        time.Time `json:"resetExpiry,omitempty"`
	RefreshFamilies    []string  `json:"refreshFamilies,omitempty"`
	Active             bool      `json:"active"`
	Blocked            bool      `json:"blocked"`
	LastLoginAt        time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt          time.Time `json:"createdAt,omitempty"`
	Version            uint64    `json:"version"`
}

func toRecord(a *storeauth.Account) record {
	return record{
		ID:                 a.ID,
		Email:              a.Email,
		DisplayName:        a.DisplayName,
		PasswordHash:       a.PasswordHash,
		Provider:           string(a.Provider),
		FederatedID:        a.FederatedID,
		Role:               uint8(a.Role),
		EmailVerified:      a.EmailVerified,
		VerificationCode:   a.VerificationCode,
		VerificationExpiry: a.VerificationExpiry,
		ResetCode:          a.ResetCode,
		ResetExpiry:        a.ResetExpiry,
		RefreshFamilies:    a.RefreshFamilies,
		Active:             a.Active,
		Blocked:            a.Blocked,
		LastLoginAt:        a.LastLoginAt,
		CreatedAt:          a.CreatedAt,
		Version:            a.Version,
	}
}

func (r record) account() *storeauth.Account {
	return &storeauth.Account{
		ID:                 r.ID,
		Email:              r.Email,
		DisplayName:        r.DisplayName,
		PasswordHash:       r.PasswordHash,
		Provider:           storeauth.AuthProvider(r.Provider),
		FederatedID:        r.FederatedID,
		Role:               storeauth.Role(r.Role),
		EmailVerified:      r.EmailVerified,
		VerificationCode:   r.VerificationCode,
		VerificationExpiry: r.VerificationExpiry,
		ResetCode:          r.ResetCode,
		ResetExpiry:        r.ResetExpiry,
		RefreshFamilies:    r.RefreshFamilies,
		Active:             r.Active,
		Blocked:            r.Blocked,
		LastLoginAt:        r.LastLoginAt,
		CreatedAt:          r.CreatedAt,
		Version:            r.Version,
	}
}

// createScript commits a new account. KEYS: acct, ver, email, fed, super.
// A fed key of "-" means no federated identity. ARGV: json, id, isSuper.
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[3]) == 1 then
  return "email"
end
if ARGV[3] == "1" then
  local s = redis.call("GET", KEYS[5])
  if s and s ~= ARGV[2] then
    return "super"
  end
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("SET", KEYS[2], "1")
redis.call("SET", KEYS[3], ARGV[2])
if KEYS[4] ~= "-" then
  redis.call("SET", KEYS[4], ARGV[2])
end
if ARGV[3] == "1" then
  redis.call("SET", KEYS[5], ARGV[2])
end
return "ok"
`)

// saveScript commits a versioned update. KEYS: acct, ver, super, oldEmail,
// newEmail, oldFed, newFed ("-" for none). ARGV: json, id, expectedVer,
// isSuper.
var saveScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return "missing"
end
if redis.call("GET", KEYS[2]) ~= ARGV[3] then
  return "conflict"
end
if ARGV[4] == "1" then
  local s = redis.call("GET", KEYS[3])
  if s and s ~= ARGV[2] then
    return "super"
  end
end
if KEYS[5] ~= KEYS[4] then
  if redis.call("EXISTS", KEYS[5]) == 1 then
    return "email"
  end
  redis.call("DEL", KEYS[4])
  redis.call("SET", KEYS[5], ARGV[2])
end
if KEYS[7] ~= KEYS[6] then
  if KEYS[6] ~= "-" then
    redis.call("DEL", KEYS[6])
  end
  if KEYS[7] ~= "-" then
    redis.call("SET", KEYS[7], ARGV[2])
  end
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("INCR", KEYS[2])
if ARGV[4] == "1" then
  redis.call("SET", KEYS[3], ARGV[2])
end
return "ok"
`)

func infra(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", storeauth.ErrStoreUnavailable, op, err)
}

func (s *Store) load(ctx context.Context, key string) (*storeauth.Account, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storeauth.ErrAccountNotFound
	}
	if err != nil {
		return nil, infra("get account", err)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, infra("decode account", err)
	}
	return rec.account(), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*storeauth.Account, error) {
	return s.load(ctx, s.acctKey(id))
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*storeauth.Account, error) {
	id, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, storeauth.ErrAccountNotFound
	}
	if err != nil {
		return nil, infra("get email index", err)
	}
	return s.load(ctx, s.acctKey(id))
}

func (s *Store) FindByFederatedID(ctx context.Context, provider storeauth.AuthProvider, federatedID string) (*storeauth.Account, error) {
	id, err := s.client.Get(ctx, s.fedKey(provider, federatedID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, storeauth.ErrAccountNotFound
	}
	if err != nil {
		return nil, infra("get federated index", err)
	}
	return s.load(ctx, s.acctKey(id))
}

func (s *Store) Create(ctx context.Context, acct *storeauth.Account) error {
	rec := toRecord(acct)
	rec.Version = 1
	payload, err := json.Marshal(rec)
	if err != nil {
		return infra("encode account", err)
	}

	fedKey := "-"
	if acct.FederatedID != "" {
		fedKey = s.fedKey(acct.Provider, acct.FederatedID)
	}
	isSuper := "0"
	if acct.Role == storeauth.RoleSuperAdmin {
		isSuper = "1"
	}

	res, err := createScript.Run(ctx, s.client,
		[]string{s.acctKey(acct.ID), s.verKey(acct.ID), s.emailKey(acct.Email), fedKey, s.superKey()},
		payload, acct.ID, isSuper,
	).Text()
	if err != nil {
		return infra("create account", err)
	}
	switch res {
	case "ok":
		acct.Version = 1
		return nil
	case "email":
		return storeauth.ErrEmailExists
	case "super":
		return storeauth.ErrSuperAdminExists
	default:
		return infra("create account", fmt.Errorf("unexpected script result %q", res))
	}
}

func (s *Store) Save(ctx context.Context, acct *storeauth.Account) error {
	current, err := s.load(ctx, s.acctKey(acct.ID))
	if err != nil {
		return err
	}
	if current.Version != acct.Version {
		return storeauth.ErrVersionConflict
	}
	// Role transitions are validated against the versioned snapshot; the
	// script's version CAS guarantees the snapshot still holds at commit.
	if current.Role == storeauth.RoleSuperAdmin && acct.Role != storeauth.RoleSuperAdmin {
		return storeauth.ErrSuperAdminDemotion
	}

	rec := toRecord(acct)
	rec.Version = acct.Version + 1
	payload, err := json.Marshal(rec)
	if err != nil {
		return infra("encode account", err)
	}

	oldFed, newFed := "-", "-"
	if current.FederatedID != "" {
		oldFed = s.fedKey(current.Provider, current.FederatedID)
	}
	if acct.FederatedID != "" {
		newFed = s.fedKey(acct.Provider, acct.FederatedID)
	}
	isSuper := "0"
	if acct.Role == storeauth.RoleSuperAdmin {
		isSuper = "1"
	}

	res, err := saveScript.Run(ctx, s.client,
		[]string{
			s.acctKey(acct.ID), s.verKey(acct.ID), s.superKey(),
			s.emailKey(current.Email), s.emailKey(acct.Email),
			oldFed, newFed,
		},
		payload, acct.ID, strconv.FormatUint(acct.Version, 10), isSuper,
	).Text()
	if err != nil {
		return infra("save account", err)
	}
	switch res {
	case "ok":
		acct.Version = rec.Version
		return nil
	case "missing":
		return storeauth.ErrAccountNotFound
	case "conflict":
		return storeauth.ErrVersionConflict
	case "email":
		return storeauth.ErrEmailExists
	case "super":
		return storeauth.ErrSuperAdminExists
	default:
		return infra("save account", fmt.Errorf("unexpected script result %q", res))
	}
}
