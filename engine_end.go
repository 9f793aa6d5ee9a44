package goImpersonate

import (
	"context"
	"fmt"
	"log"
)

const (
	endedByAdmin  = "admin"
	endedBySystem = "system"
)

// End terminates a session on behalf of the originating admin. It fails with
// [ErrSessionNotFound] when the session is absent from the cache — including
// when a concurrent End already completed, which makes double-ends an
// idempotent failure rather than a crash.
func (e *Engine) End(ctx context.Context, sessionID, reason string) error {
	return e.endSession(ctx, sessionID, reason, endedByAdmin)
}

// ForceEnd terminates a session on the engine's own authority (the expiry
// sweeper, or teardown after a failed start). Same contract as [End],
// different caller.
func (e *Engine) ForceEnd(ctx context.Context, sessionID, reason string) error {
	return e.endSession(ctx, sessionID, reason, endedBySystem)
}

func (e *Engine) endSession(ctx context.Context, sessionID, reason, endedBy string) error {
	if e == nil || e.log == nil {
		return ErrEngineNotReady
	}

	sess, ok, err := e.cache.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session cache lookup failed: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}

	now := e.now()
	if err := e.log.EndSession(ctx, sessionID, now); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if _, err := e.cache.Remove(ctx, sessionID); err != nil {
		log.Print("goImpersonate: session cache removal failed")
	}

	if err := e.recordAudit(ctx, &AuditRecord{
		SessionID: sessionID,
		AdminID:   sess.AdminID,
		TargetID:  sess.TargetID,
		Action:    ActionEnd,
		Details: map[string]any{
			"reason":           reason,
			"ended_by":         endedBy,
			"duration_minutes": int(now.Sub(sess.StartedAt).Minutes()),
		},
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
	}); err != nil {
		log.Print("goImpersonate: end audit write failed")
	}

	e.metricInc(MetricSessionEnded)
	if reason == ReasonExpired {
		e.metricInc(MetricSessionExpired)
	}

	return nil
}
