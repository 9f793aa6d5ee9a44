package goImpersonate

import (
	"context"
	"log"
	"time"

	"github.com/MrEthical07/goImpersonate/internal"
	"github.com/MrEthical07/goImpersonate/restriction"
)

const heartbeatTimeout = 5 * time.Second

// Resolve is the per-request interception point. It matches the request's
// credential against the session cache and, on a hit, returns the
// impersonation context carrying the restriction verdict, updates the
// session's activity heartbeat, and appends an activity audit record.
//
// Resolve never rejects the request: a blocked verdict is attached for the
// downstream handler to act on. A request with no usable session returns
// (nil, false) silently — the common path must stay cheap. Heartbeat and
// activity-audit writes are best-effort and never fail or stall the request.
func (e *Engine) Resolve(ctx context.Context, req ResolveRequest) (*ImpersonationContext, bool) {
	if e == nil || req.Credential == "" {
		return nil, false
	}

	sessionID, err := e.DecodeCredential(req.Credential)
	if err != nil || sessionID == "" {
		e.metricInc(MetricResolveMiss)
		return nil, false
	}

	sess, ok, err := e.cache.Get(ctx, sessionID)
	if err != nil {
		// Cache outage fails closed: the request proceeds under the
		// admin's own identity, and the outage is visible in logs.
		log.Print("goImpersonate: session cache lookup failed")
		return nil, false
	}
	if !ok || !sess.Usable(e.now()) {
		e.metricInc(MetricResolveMiss)
		return nil, false
	}

	verdict := restriction.Evaluate(sess.Restrictions, req.Route, req.Method)

	ip := req.IP
	if ip == "" {
		ip = clientIPFromContext(ctx)
	}
	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = userAgentFromContext(ctx)
	}

	// Sanitization must happen before any write path sees the payload.
	payload := internal.SanitizePayload(req.Payload)

	e.heartbeat(sessionID)

	details := map[string]any{"blocked": verdict.Blocked}
	if verdict.Blocked {
		details["block_reason"] = verdict.Reason
	}
	e.recordActivityAsync(&AuditRecord{
		SessionID: sess.SessionID,
		AdminID:   sess.AdminID,
		TargetID:  sess.TargetID,
		Action:    ActionActivity,
		Details:   details,
		Route:     req.Route,
		Method:    req.Method,
		Payload:   payload,
		IP:        ip,
		UserAgent: userAgent,
	})

	e.metricInc(MetricResolveHit)

	return &ImpersonationContext{
		SessionID:    sess.SessionID,
		AdminID:      sess.AdminID,
		TargetID:     sess.TargetID,
		Restrictions: sess.Restrictions,
		Verdict:      verdict,
	}, true
}

// heartbeat updates last_activity_at in the cache and the durable log.
// Fire-and-forget: under concurrent requests only the latest write needs to
// win, and a persistence failure must never surface to the request.
func (e *Engine) heartbeat(sessionID string) {
	at := e.now()

	e.bg.Add(1)
	go func() {
		defer e.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), heartbeatTimeout)
		defer cancel()

		if err := e.cache.Touch(ctx, sessionID, at); err != nil {
			log.Print("goImpersonate: session cache heartbeat failed")
			e.metricInc(MetricHeartbeatFailure)
		}
		if err := e.log.TouchSession(ctx, sessionID, at); err != nil {
			log.Print("goImpersonate: session log heartbeat failed")
			e.metricInc(MetricHeartbeatFailure)
		}
	}()
}
