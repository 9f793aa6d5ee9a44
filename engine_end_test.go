package goImpersonate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEndRemovesSession(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1"})
	te.clock.Advance(30 * time.Minute)

	if err := te.engine.End(ctx, res.SessionID, "done"); err != nil {
		t.Fatalf("end: %v", err)
	}

	if status := te.engine.Status(ctx, res.SessionID); status.IsImpersonating {
		t.Fatal("ended session still reported impersonating")
	}
	if row, ok := te.log.row(res.SessionID); !ok || row.Active {
		t.Fatal("durable row not marked inactive")
	}

	ends := te.log.auditsByAction(ActionEnd)
	if len(ends) != 1 {
		t.Fatalf("expected 1 end audit record, got %d", len(ends))
	}
	details := ends[0].Details
	if details["reason"] != "done" || details["ended_by"] != endedByAdmin {
		t.Fatalf("unexpected end details %+v", details)
	}
	if details["duration_minutes"] != 30 {
		t.Fatalf("expected duration_minutes 30, got %v", details["duration_minutes"])
	}
}

func TestEndTwiceReturnsNotFound(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1"})
	if err := te.engine.End(ctx, res.SessionID, "done"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := te.engine.End(ctx, res.SessionID, "done"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second end, got %v", err)
	}
	if err := te.engine.End(ctx, "unknown", "done"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for unknown session, got %v", err)
	}
}

func TestEndPersistenceFailureKeepsSession(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1"})
	te.log.failEnd = errors.New("db down")

	if err := te.engine.End(ctx, res.SessionID, "done"); !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}
	// The durable write failed, so the session must remain usable.
	if status := te.engine.Status(ctx, res.SessionID); !status.IsImpersonating {
		t.Fatal("session vanished despite failed end")
	}
}

func TestForceEndRecordsSystemActor(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1"})
	if err := te.engine.ForceEnd(ctx, res.SessionID, ReasonExpired); err != nil {
		t.Fatalf("force end: %v", err)
	}

	ends := te.log.auditsByAction(ActionEnd)
	if len(ends) != 1 {
		t.Fatalf("expected 1 end audit record, got %d", len(ends))
	}
	if ends[0].Details["ended_by"] != endedBySystem {
		t.Fatalf("expected system actor, got %v", ends[0].Details["ended_by"])
	}
}
