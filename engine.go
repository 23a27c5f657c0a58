package storeauth

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/storeauth/internal/audit"
	"github.com/MrEthical07/storeauth/internal/metrics"
	"github.com/MrEthical07/storeauth/internal/rate"
	"github.com/MrEthical07/storeauth/password"
	"github.com/MrEthical07/storeauth/token"
)

// Engine orchestrates the full account lifecycle: registration with OTP
// email verification, password and federated login, rotating refresh-token
// families with reuse detection, password reset, and role/status
// management. Construct it through [Builder]; a zero Engine is unusable.
//
// Engine methods are safe for concurrent use. Per-account write atomicity
// is delegated to the store's version CAS; the engine resolves one CAS
// conflict per refresh by re-reading and re-evaluating.
type Engine struct {
	config     Config
	store      CredentialStore
	dispatcher NotificationDispatcher
	hasher     *password.Hasher
	tokens     *token.Manager
	limiter    *rate.Limiter
	audit      *audit.Dispatcher
	metrics    *metrics.Metrics

	// now overrides the clock in tests. nil means time.Now.
	now func() time.Time
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now().UTC()
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	return nil
}

// Metrics returns the engine's counter set, nil when disabled.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsSnapshot returns a point-in-time copy of all non-zero counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Close flushes and stops the audit dispatcher. Call it on shutdown;
// engine methods must not be invoked afterwards.
func (e *Engine) Close() {
	e.audit.Close()
}

func (e *Engine) saveAccount(ctx context.Context, acct *Account) error {
	if err := e.store.Save(ctx, acct); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}
