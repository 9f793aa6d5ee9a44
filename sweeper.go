package goImpersonate

import (
	"context"
	"errors"
	"log"

	"github.com/robfig/cron/v3"
)

// StartSweeper runs the expiry sweeper on the configured interval (default
// hourly). Each tick calls [Engine.SweepExpired] once. Starting an already
// running sweeper is a no-op.
func (e *Engine) StartSweeper(ctx context.Context) {
	if e == nil {
		return
	}

	e.sweepMu.Lock()
	defer e.sweepMu.Unlock()
	if e.sweeper != nil {
		return
	}

	c := cron.New()
	c.Schedule(cron.Every(e.config.Sweeper.Interval), cron.FuncJob(func() {
		if _, err := e.SweepExpired(ctx); err != nil {
			log.Print("goImpersonate: expiry sweep failed")
		}
	}))
	c.Start()
	e.sweeper = c
}

// StopSweeper stops the background sweeper and waits for a running sweep to
// finish. Safe to call when the sweeper was never started.
func (e *Engine) StopSweeper() {
	if e == nil {
		return
	}

	e.sweepMu.Lock()
	c := e.sweeper
	e.sweeper = nil
	e.sweepMu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// SweepExpired ends every session whose expiry has passed, up to the
// configured batch limit; the remainder is picked up on the next tick.
// Sweeping is idempotent: a session already ended by a concurrent path is
// skipped, and a durable row with no cache entry is reconciled so nothing
// stays active forever. Returns the number of sessions transitioned.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	if e == nil || e.log == nil {
		return 0, ErrEngineNotReady
	}

	ids, err := e.log.ExpiredSessions(ctx, e.now(), e.config.Sweeper.BatchLimit)
	if err != nil {
		return 0, err
	}

	ended := 0
	for _, id := range ids {
		err := e.ForceEnd(ctx, id, ReasonExpired)
		switch {
		case err == nil:
			ended++
		case errors.Is(err, ErrSessionNotFound):
			// Expired in the durable log but already gone from the
			// cache — ended elsewhere, or the process restarted
			// without rehydration. Reconcile the durable row.
			if err := e.log.EndSession(ctx, id, e.now()); err != nil {
				log.Print("goImpersonate: expired session reconciliation failed")
				continue
			}
			ended++
		default:
			// Leave the session for the next tick rather than abort
			// the whole sweep.
			log.Print("goImpersonate: expired session end failed")
		}
	}

	return ended, nil
}
