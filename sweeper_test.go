package goImpersonate

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goImpersonate/session"
)

func TestSweepEndsExpiredSessions(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	expiring := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1", Duration: time.Hour})
	longLived := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1", Duration: 4 * time.Hour})

	te.clock.Advance(61 * time.Minute)

	ended, err := te.engine.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if ended != 1 {
		t.Fatalf("expected 1 session swept, got %d", ended)
	}

	if status := te.engine.Status(ctx, expiring.SessionID); status.IsImpersonating {
		t.Fatal("expired session survived the sweep")
	}
	if status := te.engine.Status(ctx, longLived.SessionID); !status.IsImpersonating {
		t.Fatal("unexpired session was swept")
	}

	ends := te.log.auditsByAction(ActionEnd)
	if len(ends) != 1 {
		t.Fatalf("expected 1 end audit record, got %d", len(ends))
	}
	if ends[0].Details["reason"] != ReasonExpired || ends[0].Details["ended_by"] != endedBySystem {
		t.Fatalf("unexpected sweep audit details %+v", ends[0].Details)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1", Duration: time.Hour})
	te.clock.Advance(2 * time.Hour)

	if ended, err := te.engine.SweepExpired(ctx); err != nil || ended != 1 {
		t.Fatalf("first sweep: ended=%d err=%v", ended, err)
	}
	if ended, err := te.engine.SweepExpired(ctx); err != nil || ended != 0 {
		t.Fatalf("second sweep must find nothing: ended=%d err=%v", ended, err)
	}
	if len(te.log.auditsByAction(ActionEnd)) != 1 {
		t.Fatal("re-sweeping must not duplicate end records")
	}
}

func TestSweepReconcilesCacheMiss(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	now := te.clock.Now()

	// A durable row with no cache entry: the process restarted without
	// rehydration, or another instance dropped the cache entry first.
	orphan := &session.Session{
		SessionID:    "orphan-1",
		AdminID:      "admin-1",
		TargetID:     "target-1",
		StartedAt:    now.Add(-3 * time.Hour),
		ExpiresAt:    now.Add(-2 * time.Hour),
		LastActivity: now.Add(-3 * time.Hour),
		Active:       true,
	}
	if err := te.log.CreateSession(ctx, orphan); err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	ended, err := te.engine.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if ended != 1 {
		t.Fatalf("expected orphan reconciled, got %d", ended)
	}

	row, ok := te.log.row("orphan-1")
	if !ok || row.Active {
		t.Fatal("orphan row not marked inactive")
	}
}

func TestSweepHonorsBatchLimit(t *testing.T) {
	te := newTestEngine(t, func(b *Builder) {
		cfg := defaultConfig()
		cfg.Sweeper.BatchLimit = 2
		b.WithConfig(cfg)
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1", Duration: time.Hour})
	}
	te.clock.Advance(2 * time.Hour)

	if ended, err := te.engine.SweepExpired(ctx); err != nil || ended != 2 {
		t.Fatalf("expected batch of 2, got ended=%d err=%v", ended, err)
	}
	// The remainder is picked up by the next tick.
	if ended, err := te.engine.SweepExpired(ctx); err != nil || ended != 1 {
		t.Fatalf("expected remaining 1, got ended=%d err=%v", ended, err)
	}
}

func TestStartStopSweeper(t *testing.T) {
	te := newTestEngine(t, func(b *Builder) {
		cfg := defaultConfig()
		cfg.Sweeper.Interval = 10 * time.Millisecond
		b.WithConfig(cfg)
	})
	ctx := context.Background()

	te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1", Duration: time.Hour})
	te.clock.Advance(2 * time.Hour)

	te.engine.StartSweeper(ctx)
	te.engine.StartSweeper(ctx) // second start is a no-op

	waitFor(t, func() bool {
		return len(te.log.auditsByAction(ActionEnd)) == 1
	})

	te.engine.StopSweeper()
	te.engine.StopSweeper() // stopping a stopped sweeper is safe
}
