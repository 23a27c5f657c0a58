package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrEthical07/storeauth"
)

func newAccount(id, email string, role storeauth.Role) *storeauth.Account {
	return &storeauth.Account{
		ID:     id,
		Email:  email,
		Role:   role,
		Active: true,
	}
}

func TestCreateAndFind(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Create(ctx, newAccount("u1", "A@X.com", storeauth.RoleCustomer)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.FindByEmail(ctx, "a@x.COM")
	if err != nil {
		t.Fatalf("find by email (case-insensitive): %v", err)
	}
	if got.ID != "u1" || got.Version != 1 {
		t.Fatalf("got id=%s version=%d", got.ID, got.Version)
	}

	if _, err := s.FindByID(ctx, "missing"); !errors.Is(err, storeauth.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Create(ctx, newAccount("u1", "a@x.com", storeauth.RoleCustomer)); err != nil {
		t.Fatal(err)
	}
	err := s.Create(ctx, newAccount("u2", "A@X.COM", storeauth.RoleCustomer))
	if !errors.Is(err, storeauth.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestSaveVersionCAS(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Create(ctx, newAccount("u1", "a@x.com", storeauth.RoleCustomer)); err != nil {
		t.Fatal(err)
	}

	first, _ := s.FindByID(ctx, "u1")
	second, _ := s.FindByID(ctx, "u1")

	first.DisplayName = "winner"
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("version not bumped: %d", first.Version)
	}

	second.DisplayName = "loser"
	if err := s.Save(ctx, second); !errors.Is(err, storeauth.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, _ := s.FindByID(ctx, "u1")
	if got.DisplayName != "winner" {
		t.Fatalf("lost update: %q", got.DisplayName)
	}
}

func TestClonesDoNotAlias(t *testing.T) {
	s := New()
	ctx := context.Background()
	acct := newAccount("u1", "a@x.com", storeauth.RoleCustomer)
	acct.RefreshFamilies = []string{"fam-1"}
	if err := s.Create(ctx, acct); err != nil {
		t.Fatal(err)
	}

	got, _ := s.FindByID(ctx, "u1")
	got.RefreshFamilies[0] = "mutated"

	again, _ := s.FindByID(ctx, "u1")
	if again.RefreshFamilies[0] != "fam-1" {
		t.Fatal("caller mutation leaked into store")
	}
}

func TestSingleSuperAdmin(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Create(ctx, newAccount("root", "root@x.com", storeauth.RoleSuperAdmin)); err != nil {
		t.Fatal(err)
	}

	err := s.Create(ctx, newAccount("root2", "root2@x.com", storeauth.RoleSuperAdmin))
	if !errors.Is(err, storeauth.ErrSuperAdminExists) {
		t.Fatalf("second super admin create: %v", err)
	}

	if err := s.Create(ctx, newAccount("u1", "a@x.com", storeauth.RoleAdmin)); err != nil {
		t.Fatal(err)
	}
	promoted, _ := s.FindByID(ctx, "u1")
	promoted.Role = storeauth.RoleSuperAdmin
	if err := s.Save(ctx, promoted); !errors.Is(err, storeauth.ErrSuperAdminExists) {
		t.Fatalf("promotion past existing super admin: %v", err)
	}

	sole, _ := s.FindByID(ctx, "root")
	sole.Role = storeauth.RoleAdmin
	if err := s.Save(ctx, sole); !errors.Is(err, storeauth.ErrSuperAdminDemotion) {
		t.Fatalf("demoting sole super admin: %v", err)
	}
}

func TestFederatedIndex(t *testing.T) {
	s := New()
	ctx := context.Background()
	acct := newAccount("u1", "a@x.com", storeauth.RoleCustomer)
	acct.Provider = storeauth.ProviderGoogle
	acct.FederatedID = "goog-123"
	if err := s.Create(ctx, acct); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindByFederatedID(ctx, storeauth.ProviderGoogle, "goog-123")
	if err != nil || got.ID != "u1" {
		t.Fatalf("federated lookup: %v %v", got, err)
	}
	if _, err := s.FindByFederatedID(ctx, storeauth.ProviderGoogle, "goog-999"); !errors.Is(err, storeauth.ErrAccountNotFound) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestConcurrentSavesSerialize(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Create(ctx, newAccount("u1", "a@x.com", storeauth.RoleCustomer)); err != nil {
		t.Fatal(err)
	}

	const writers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acct, err := s.FindByID(ctx, "u1")
			if err != nil {
				return
			}
			if err := s.Save(ctx, acct); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	got, _ := s.FindByID(ctx, "u1")
	var winners uint64
	for range wins {
		winners++
	}
	if got.Version != 1+winners {
		t.Fatalf("version %d after %d winning saves", got.Version, winners)
	}
}
