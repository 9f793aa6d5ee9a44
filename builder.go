package goImpersonate

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goImpersonate/session"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the engine's methods are called.
type Builder struct {
	config Config

	cache     session.Cache
	redis     redis.UniversalClient
	log       SessionLog
	directory PrincipalDirectory
	minter    CredentialMinter
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder carrying the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSessionLog sets the durable session log. Required.
func (b *Builder) WithSessionLog(log SessionLog) *Builder {
	b.log = log
	return b
}

// WithDirectory sets the principal directory. Required.
func (b *Builder) WithDirectory(dir PrincipalDirectory) *Builder {
	b.directory = dir
	return b
}

// WithRedis backs the session cache with a shared Redis instance, making
// sessions visible across horizontally scaled processes. Without it (or an
// explicit WithCache) the engine uses an in-process cache.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCache sets an explicit cache implementation. Takes precedence over
// WithRedis.
func (b *Builder) WithCache(cache session.Cache) *Builder {
	b.cache = cache
	return b
}

// WithCredentialMinter sets the optional minter for impersonated-identity
// credentials.
func (b *Builder) WithCredentialMinter(m CredentialMinter) *Builder {
	b.minter = m
	return b
}

// WithAuditSink sets the observer sink fed by the async audit dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithClock overrides the engine's time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and assembles the engine. A Builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.log == nil {
		return nil, errors.New("session log required")
	}
	if b.directory == nil {
		return nil, errors.New("principal directory required")
	}

	cache := b.cache
	if cache == nil {
		if b.redis != nil {
			cache = session.NewRedisCache(b.redis, cfg.Session.RedisPrefix)
		} else {
			cache = session.NewMemoryCache()
		}
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config:    cfg,
		cache:     cache,
		log:       b.log,
		directory: b.directory,
		minter:    b.minter,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:   NewMetrics(cfg.Metrics),
		now:       clock,
	}

	b.built = true

	return engine, nil
}
