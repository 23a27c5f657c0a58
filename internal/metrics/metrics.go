package metrics

import "sync/atomic"

// MetricID identifies a single counter in the in-process metrics set.
type MetricID int

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterDuplicate
	MetricRegisterRateLimited
	MetricVerificationRequest
	MetricVerificationSuccess
	MetricVerificationFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricFederatedLoginSuccess
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshReuseDetected
	MetricRefreshRateLimited
	MetricLogout
	MetricResetRequest
	MetricResetSuccess
	MetricResetFailure
	MetricRoleChange
	MetricStatusChange
	MetricGateDenied

	MetricIDCount
)

// Config controls whether the counter set is live. When Enabled is false
// every operation is a no-op.
type Config struct {
	Enabled bool
}

// Metrics is a fixed array of atomic counters, one per MetricID. Inc is
// lock-free and safe for concurrent use.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

// Snapshot is a point-in-time copy of all non-zero counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

// New creates a Metrics instance. A nil return is never produced; a
// disabled instance simply drops increments.
func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments the counter for id. Out-of-range ids are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot returns a deep copy of the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64, MetricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := m.counters[id].Load(); v > 0 {
			snap.Counters[id] = v
		}
	}
	return snap
}
