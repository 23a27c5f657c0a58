// Package memstore is an in-memory CredentialStore: mutex-serialized,
// version-CAS writes, deep-copied reads. It is the reference
// implementation of the store contract and the default test double.
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/MrEthical07/storeauth"
)

// Store implements storeauth.CredentialStore in process memory.
type Store struct {
	mu sync.Mutex

	accounts map[string]*storeauth.Account // by id
	byEmail  map[string]string             // lower(email) -> id
	byFed    map[string]string             // provider "\x00" federatedID -> id
	superID  string                        // id of the sole SUPER_ADMIN, "" if none
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*storeauth.Account),
		byEmail:  make(map[string]string),
		byFed:    make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fedKey(provider storeauth.AuthProvider, federatedID string) string {
	return string(provider) + "\x00" + federatedID
}

func (s *Store) FindByEmail(_ context.Context, email string) (*storeauth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, storeauth.ErrAccountNotFound
	}
	return s.accounts[id].Clone(), nil
}

func (s *Store) FindByID(_ context.Context, id string) (*storeauth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, storeauth.ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (s *Store) FindByFederatedID(_ context.Context, provider storeauth.AuthProvider, federatedID string) (*storeauth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byFed[fedKey(provider, federatedID)]
	if !ok {
		return nil, storeauth.ErrAccountNotFound
	}
	return s.accounts[id].Clone(), nil
}

// Create inserts a new account at version 1. Duplicate ids or emails are
// rejected, as is a second SUPER_ADMIN.
func (s *Store) Create(_ context.Context, acct *storeauth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acct.ID]; exists {
		return storeauth.ErrVersionConflict
	}
	ek := emailKey(acct.Email)
	if _, exists := s.byEmail[ek]; exists {
		return storeauth.ErrEmailExists
	}
	if acct.Role == storeauth.RoleSuperAdmin && s.superID != "" {
		return storeauth.ErrSuperAdminExists
	}

	stored := acct.Clone()
	stored.Version = 1
	s.accounts[stored.ID] = stored
	s.byEmail[ek] = stored.ID
	if stored.FederatedID != "" {
		s.byFed[fedKey(stored.Provider, stored.FederatedID)] = stored.ID
	}
	if stored.Role == storeauth.RoleSuperAdmin {
		s.superID = stored.ID
	}
	acct.Version = stored.Version
	return nil
}

// Save is a compare-and-set on Account.Version. A stale version returns
// ErrVersionConflict and leaves the record untouched. Writes that would
// mint a second SUPER_ADMIN or demote the sole one are rejected.
func (s *Store) Save(_ context.Context, acct *storeauth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[acct.ID]
	if !ok {
		return storeauth.ErrAccountNotFound
	}
	if current.Version != acct.Version {
		return storeauth.ErrVersionConflict
	}

	if acct.Role == storeauth.RoleSuperAdmin && s.superID != "" && s.superID != acct.ID {
		return storeauth.ErrSuperAdminExists
	}
	if current.Role == storeauth.RoleSuperAdmin && acct.Role != storeauth.RoleSuperAdmin {
		return storeauth.ErrSuperAdminDemotion
	}

	stored := acct.Clone()
	stored.Version = current.Version + 1

	if ek, old := emailKey(stored.Email), emailKey(current.Email); ek != old {
		if _, taken := s.byEmail[ek]; taken {
			return storeauth.ErrEmailExists
		}
		delete(s.byEmail, old)
		s.byEmail[ek] = stored.ID
	}
	if current.FederatedID != "" && (stored.FederatedID != current.FederatedID || stored.Provider != current.Provider) {
		delete(s.byFed, fedKey(current.Provider, current.FederatedID))
	}
	if stored.FederatedID != "" {
		s.byFed[fedKey(stored.Provider, stored.FederatedID)] = stored.ID
	}
	if stored.Role == storeauth.RoleSuperAdmin {
		s.superID = stored.ID
	}

	s.accounts[stored.ID] = stored
	acct.Version = stored.Version
	return nil
}

// Len reports the number of stored accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}
