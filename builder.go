package goToken

import (
	"errors"
	"time"

	"github.com/MrEthical07/goToken/internal/audit"
	"github.com/MrEthical07/goToken/internal/flows"
	"github.com/MrEthical07/goToken/internal/rate"
	"github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/refresh"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	logger    zerolog.Logger
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the whole configuration. The secret is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the refresh store and the reissue
// throttle. The caller keeps ownership and closes it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source for encoding, verification and audit
// timestamps. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, derives the signing keys and wires the
// engine. It performs no Redis I/O.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- SIGNING KEYS --------
	keys, err := jwt.DeriveKeys(cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	accessManager, err := jwt.NewManager(jwt.Config{
		Kind:         jwt.KindAccess,
		Key:          keys.Access,
		Issuer:       cfg.JWT.Issuer,
		Leeway:       cfg.JWT.Leeway,
		MaxFutureIAT: cfg.JWT.MaxFutureIAT,
		Now:          b.clock,
	})
	if err != nil {
		return nil, err
	}
	refreshManager, err := jwt.NewManager(jwt.Config{
		Kind:         jwt.KindRefresh,
		Key:          keys.Refresh,
		Issuer:       cfg.JWT.Issuer,
		Leeway:       cfg.JWT.Leeway,
		MaxFutureIAT: cfg.JWT.MaxFutureIAT,
		Now:          b.clock,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:  cfg,
		access:  accessManager,
		refresh: refreshManager,
		store:   refresh.NewStore(b.redis, cfg.Store.RedisPrefix, cfg.Store.OpTimeout),
		metrics: NewMetrics(cfg.Metrics),
		logger:  b.logger.With().Str("component", "goToken").Logger(),
		clock:   b.clock,
	}

	if cfg.Security.EnableReissueThrottle {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:             cfg.Store.RedisPrefix,
			MaxReissueAttempts: cfg.Security.MaxReissueAttempts,
			ReissueWindow:      cfg.Security.ReissueWindow,
			OpTimeout:          cfg.Store.OpTimeout,
		})
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop: func(ev audit.Event) {
			engine.logger.Warn().Str("event", ev.EventType).Str("subject", ev.SubjectID).Msg("audit event dropped")
		},
	}, b.auditSink)

	engine.flows = buildFlowDeps(engine)

	b.built = true

	return engine, nil
}

func buildFlowDeps(e *Engine) flows.Deps {
	accessTTL := e.config.JWT.AccessTTL
	refreshTTL := e.config.JWT.RefreshTTL

	encodeAccess := func(subjectID string, roles []string) (string, error) {
		return e.access.Encode(subjectID, roles, accessTTL)
	}
	encodeRefresh := func(subjectID string, roles []string) (string, error) {
		return e.refresh.Encode(subjectID, roles, refreshTTL)
	}

	reissue := flows.ReissueDeps{
		DecodeRefresh: e.refresh.Decode,
		EncodeAccess:  encodeAccess,
		Store:         e.store,
		RecordCorrupt: refresh.ErrRecordCorrupt,
	}
	if e.limiter != nil {
		reissue.RateLimiter = e.limiter
	}

	return flows.Deps{
		Issue: flows.IssueDeps{
			EncodeAccess:   encodeAccess,
			EncodeRefresh:  encodeRefresh,
			RefreshTTL:     refreshTTL,
			FailOpenOnSave: e.config.Store.FailOpenOnIssue,
			Warn: func(msg string, kv ...any) {
				e.logger.Warn().Fields(kv).Msg(msg)
			},
			Store: e.store,
		},
		Verify: flows.VerifyDeps{
			DecodeAccess: e.access.Decode,
			Reissue:      reissue,
		},
		Reissue: reissue,
		Logout:  flows.LogoutDeps{Store: e.store},
	}
}
