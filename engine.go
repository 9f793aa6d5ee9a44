package goImpersonate

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MrEthical07/goImpersonate/session"
)

// Engine orchestrates the impersonation session lifecycle, per-request
// resolution, the audit pipeline, and the expiry sweeper. Build one through
// [Builder.Build]; all methods are safe for concurrent use afterwards.
type Engine struct {
	config    Config
	cache     session.Cache
	log       SessionLog
	directory PrincipalDirectory
	minter    CredentialMinter
	audit     *auditDispatcher
	metrics   *Metrics
	now       func() time.Time

	sweepMu sync.Mutex
	sweeper *cron.Cron

	// bg tracks best-effort background writes (heartbeats, activity audit)
	// so Close can wait for them.
	bg sync.WaitGroup
}

// Close stops the sweeper, waits for in-flight background writes, and shuts
// down the audit dispatcher, draining buffered records.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.StopSweeper()
	e.bg.Wait()
	if e.audit != nil {
		e.audit.Close()
	}
}

// LoadActiveSessions rehydrates the cache from the durable log: every
// session still active and unexpired is inserted. Run once at process start;
// this is what makes restarts safe.
func (e *Engine) LoadActiveSessions(ctx context.Context) (int, error) {
	if e == nil || e.log == nil {
		return 0, ErrEngineNotReady
	}

	sessions, err := e.log.ActiveSessions(ctx, e.now())
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, sess := range sessions {
		if err := e.cache.Put(ctx, sess); err != nil {
			log.Print("goImpersonate: cache rehydration write failed")
			continue
		}
		loaded++
	}
	return loaded, nil
}

// AuditDropped returns how many audit records the dispatcher dropped because
// the sink buffer was full. Durable persistence is unaffected.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters, or
// nil when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return nil
	}
	return e.metrics.Snapshot()
}

// CredentialNames returns the configured cookie and header names for the
// transport credential, for use by middleware adapters.
func (e *Engine) CredentialNames() (cookie, header string) {
	if e == nil {
		return DefaultCookieName, DefaultHeaderName
	}
	return e.config.Credential.CookieName, e.config.Credential.HeaderName
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}
