package goImpersonate

import (
	"errors"
	"time"
)

// Defaults for the credential carrier. The cookie uses the __Host- prefix so
// browsers refuse it over plain HTTP or with a Domain attribute.
const (
	DefaultCookieName = "__Host-impersonation"
	DefaultHeaderName = "X-Impersonation-Session"
)

// Config defines the engine's tunables. Configure during initialization and
// treat as immutable afterwards; Build deep-copies it.
type Config struct {
	Session    SessionConfig
	Access     AccessConfig
	Credential CredentialConfig
	Sweeper    SweeperConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and cache namespacing.
type SessionConfig struct {
	// DefaultDuration applies when StartRequest.Duration is zero.
	DefaultDuration time.Duration
	// MaxDuration caps caller-supplied durations when positive.
	MaxDuration time.Duration
	// RedisPrefix namespaces keys when the cache is Redis-backed.
	RedisPrefix string
}

/*
====================================
ACCESS CONFIG
====================================
*/

// AccessConfig controls who may impersonate. The principal's CanImpersonate
// flag is always required; PermittedRoles additionally restricts by role when
// non-empty.
type AccessConfig struct {
	PermittedRoles []string
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig controls the transport credential. With a SigningKey the
// credential is an HS256-signed token wrapping the session ID; without one
// the raw session ID travels as-is.
type CredentialConfig struct {
	CookieName string
	HeaderName string
	SigningKey []byte
}

/*
====================================
SWEEPER CONFIG
====================================
*/

// SweeperConfig controls the expiry sweeper.
type SweeperConfig struct {
	// Interval between sweeps. Default one hour.
	Interval time.Duration
	// BatchLimit bounds one sweep so a large backlog cannot monopolize the
	// background task; the remainder is processed on the next tick.
	BatchLimit int
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async dispatcher feeding the configured
// [AuditSink]. Durable audit persistence is unaffected by these settings.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is full;
	// drops are counted and visible via Engine.AuditDropped.
	DropIfFull bool
}

// MetricsConfig enables the in-process atomic counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			DefaultDuration: 24 * time.Hour,
			RedisPrefix:     "imp",
		},
		Credential: CredentialConfig{
			CookieName: DefaultCookieName,
			HeaderName: DefaultHeaderName,
		},
		Sweeper: SweeperConfig{
			Interval:   time.Hour,
			BatchLimit: 500,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.Session.DefaultDuration <= 0 {
		return errors.New("Session.DefaultDuration must be positive")
	}
	if c.Session.MaxDuration < 0 {
		return errors.New("Session.MaxDuration must not be negative")
	}
	if c.Sweeper.Interval <= 0 {
		return errors.New("Sweeper.Interval must be positive")
	}
	if c.Sweeper.BatchLimit <= 0 {
		return errors.New("Sweeper.BatchLimit must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	if key := c.Credential.SigningKey; key != nil && len(key) < 32 {
		return errors.New("Credential.SigningKey must be at least 32 bytes")
	}
	if c.Credential.CookieName == "" && c.Credential.HeaderName == "" {
		return errors.New("at least one credential carrier must be named")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Access.PermittedRoles = cloneStrings(cfg.Access.PermittedRoles)
	out.Credential.SigningKey = cloneBytes(cfg.Credential.SigningKey)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
