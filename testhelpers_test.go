package storeauth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/storeauth/password"
)

// fakeStore is an in-memory CredentialStore with version-CAS writes, the
// single-SUPER_ADMIN guard, call counters, and injectable failures.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	byEmail  map[string]string
	byFed    map[string]string
	superID  string

	findErr   error
	createErr error
	saveErr   error

	// conflictNextSave makes the next Save fail with ErrVersionConflict
	// without applying, to exercise the engine's CAS retry.
	conflictNextSave bool

	findCalls   int
	createCalls int
	saveCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]string),
		byFed:    make(map[string]string),
	}
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return s.accounts[id].Clone(), nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	acct, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (s *fakeStore) FindByFederatedID(_ context.Context, provider AuthProvider, federatedID string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	id, ok := s.byFed[string(provider)+"\x00"+federatedID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return s.accounts[id].Clone(), nil
}

func (s *fakeStore) Create(_ context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	ek := strings.ToLower(acct.Email)
	if _, exists := s.byEmail[ek]; exists {
		return ErrEmailExists
	}
	if acct.Role == RoleSuperAdmin && s.superID != "" {
		return ErrSuperAdminExists
	}
	stored := acct.Clone()
	stored.Version = 1
	s.accounts[stored.ID] = stored
	s.byEmail[ek] = stored.ID
	if stored.FederatedID != "" {
		s.byFed[string(stored.Provider)+"\x00"+stored.FederatedID] = stored.ID
	}
	if stored.Role == RoleSuperAdmin {
		s.superID = stored.ID
	}
	acct.Version = 1
	return nil
}

func (s *fakeStore) Save(_ context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.conflictNextSave {
		s.conflictNextSave = false
		return ErrVersionConflict
	}
	current, ok := s.accounts[acct.ID]
	if !ok {
		return ErrAccountNotFound
	}
	if current.Version != acct.Version {
		return ErrVersionConflict
	}
	if acct.Role == RoleSuperAdmin && s.superID != "" && s.superID != acct.ID {
		return ErrSuperAdminExists
	}
	if current.Role == RoleSuperAdmin && acct.Role != RoleSuperAdmin {
		return ErrSuperAdminDemotion
	}
	stored := acct.Clone()
	stored.Version = current.Version + 1
	if stored.FederatedID != "" {
		s.byFed[string(stored.Provider)+"\x00"+stored.FederatedID] = stored.ID
	}
	if stored.Role == RoleSuperAdmin {
		s.superID = stored.ID
	}
	s.accounts[stored.ID] = stored
	acct.Version = stored.Version
	return nil
}

// get returns the raw stored record for assertions.
func (s *fakeStore) get(t *testing.T, id string) *Account {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		t.Fatalf("account %s not in store", id)
	}
	return acct.Clone()
}

// fakeDispatcher records every notification and can simulate delivery
// failure.
type fakeDispatcher struct {
	mu    sync.Mutex
	sent  []sentMail
	fail  bool
	codes map[string]string // address -> last OTP
}

type sentMail struct {
	Address string
	Kind    TemplateKind
	Payload map[string]string
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{codes: make(map[string]string)}
}

func (d *fakeDispatcher) Send(_ context.Context, address string, kind TemplateKind, payload map[string]string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return false
	}
	d.sent = append(d.sent, sentMail{Address: address, Kind: kind, Payload: payload})
	if code, ok := payload["code"]; ok {
		d.codes[address] = code
	}
	return true
}

func (d *fakeDispatcher) lastCode(t *testing.T, address string) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	code, ok := d.codes[address]
	if !ok {
		t.Fatalf("no code delivered to %s", address)
	}
	return code
}

func (d *fakeDispatcher) countKind(kind TemplateKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, m := range d.sent {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

// testClock is a manually advanced clock shared with the engine.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessSecret = []byte("access-secret-0123456789abcdefgh")
	cfg.Token.RefreshSecret = []byte("refresh-secret-0123456789abcdefg")
	cfg.Password = password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	cfg.Audit.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *fakeStore, *fakeDispatcher, *testClock) {
	t.Helper()
	store := newFakeStore()
	dispatcher := newFakeDispatcher()
	clock := newTestClock()

	engine, err := New().
		WithConfig(testConfig()).
		WithStore(store).
		WithNotifications(dispatcher).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	engine.now = clock.Now
	t.Cleanup(engine.Close)
	return engine, store, dispatcher, clock
}

// registerVerified walks an account through register + verify.
func registerVerified(t *testing.T, engine *Engine, dispatcher *fakeDispatcher, email, pass string) string {
	t.Helper()
	ctx := context.Background()
	res, err := engine.Register(ctx, RegisterRequest{Email: email, Password: pass, DisplayName: "Test User"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	if err := engine.VerifyEmail(ctx, email, dispatcher.lastCode(t, email)); err != nil {
		t.Fatalf("verify %s: %v", email, err)
	}
	return res.AccountID
}

func mustLogin(t *testing.T, engine *Engine, email, pass string) LoginResult {
	t.Helper()
	result, err := engine.Login(context.Background(), email, pass)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return result
}

func wantErrIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("got %v, want %v", err, target)
	}
}
