package storeauth

import (
	"errors"

	"github.com/MrEthical07/storeauth/internal/audit"
	"github.com/MrEthical07/storeauth/internal/metrics"
	"github.com/MrEthical07/storeauth/internal/rate"
	"github.com/MrEthical07/storeauth/password"
	"github.com/MrEthical07/storeauth/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Construct with [New], chain the With*
// methods, and call [Builder.Build] once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store      CredentialStore
	dispatcher NotificationDispatcher
	auditSink  AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing the rate limiter. Without
// it the engine runs unthrottled; front it with an external limiter in
// that case.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore supplies the credential store. Required.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithNotifications supplies the dispatcher for verification, reset, and
// welcome mail. Defaults to [NoOpDispatcher].
func (b *Builder) WithNotifications(d NotificationDispatcher) *Builder {
	b.dispatcher = d
	return b
}

// WithAuditSink supplies the sink receiving audit events. Defaults to a
// no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, constructs every subsystem, and
// returns the ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if err := b.config.validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(b.config.Password)
	if err != nil {
		return nil, err
	}
	tokens, err := token.NewManager(b.config.Token)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     b.config,
		store:      b.store,
		dispatcher: b.dispatcher,
		hasher:     hasher,
		tokens:     tokens,
		metrics:    metrics.New(b.config.Metrics),
		now:        nil,
	}
	if engine.dispatcher == nil {
		engine.dispatcher = NoOpDispatcher{}
	}
	if b.redis != nil {
		engine.limiter = rate.New(b.redis, b.config.RateLimit)
	}

	sink := b.auditSink
	if sink == nil {
		sink = audit.NoOpSink{}
	}
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    b.config.Audit.Enabled,
		BufferSize: b.config.Audit.BufferSize,
		DropIfFull: true,
	}, sink)

	b.built = true
	return engine, nil
}
