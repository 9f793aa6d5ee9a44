package goImpersonate

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Attempt types recorded on security events.
const (
	// AttemptUnauthorized marks a start attempt by a principal without
	// impersonation rights.
	AttemptUnauthorized = "unauthorized"
)

// recordSecurityEvent persists a security event synchronously. A persistence
// failure here is logged but never masks the error the caller is about to
// return.
func (e *Engine) recordSecurityEvent(ctx context.Context, ev *SecurityEvent) {
	if e == nil || e.log == nil || ev == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = e.now().UTC()
	}
	if ev.Context == nil {
		ev.Context = map[string]any{}
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		ev.Context["ip"] = ip
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		ev.Context["user_agent"] = ua
	}

	if err := e.log.AppendSecurityEvent(ctx, ev); err != nil {
		log.Print("goImpersonate: security event write failed")
		return
	}
	e.metricInc(MetricSecurityEvent)
}

// SecurityEvents returns recorded security events matching the filter,
// newest first. Security events are read-only: no interface mutates them.
func (e *Engine) SecurityEvents(ctx context.Context, f SecurityEventFilter) ([]*SecurityEvent, error) {
	if e == nil || e.log == nil {
		return nil, ErrEngineNotReady
	}
	return e.log.QuerySecurityEvents(ctx, f)
}
