package goImpersonate

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/MrEthical07/goImpersonate/internal"
	"github.com/MrEthical07/goImpersonate/session"
)

// Start begins an impersonation session: the admin principal assumes the
// target principal's identity until the session expires or is ended.
//
// The admin must carry the CanImpersonate flag and, when
// Config.Access.PermittedRoles is non-empty, one of the permitted roles;
// otherwise Start records a SecurityEvent and returns [ErrPermissionDenied]
// with no session created. An absent target returns [ErrTargetNotFound]
// without a SecurityEvent — a usage error, not a security violation.
//
// Start returns only after the session is durably recorded; a durable write
// failure aborts with [ErrPersistenceFailure] and leaves nothing behind.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if e == nil || e.log == nil {
		return nil, ErrEngineNotReady
	}
	if req.Duration < 0 {
		return nil, ErrDurationInvalid
	}

	admin, err := e.directory.Lookup(ctx, req.AdminID)
	if err != nil || !e.mayImpersonate(admin) {
		// A missing admin record fails closed: permission cannot be
		// verified, so the attempt is treated as unauthorized.
		e.recordSecurityEvent(ctx, &SecurityEvent{
			ActorID:         req.AdminID,
			AttemptedTarget: req.TargetID,
			AttemptType:     AttemptUnauthorized,
			FailureReason:   denialReason(admin, err),
		})
		e.metricInc(MetricStartDenied)
		return nil, ErrPermissionDenied
	}

	target, err := e.directory.Lookup(ctx, req.TargetID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			e.metricInc(MetricStartTargetMissing)
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("target lookup failed: %w", err)
	}

	duration := req.Duration
	if duration == 0 {
		duration = e.config.Session.DefaultDuration
	}
	if max := e.config.Session.MaxDuration; max > 0 && duration > max {
		duration = max
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("session id generation failed: %w", err)
	}

	now := e.now()
	sess := &session.Session{
		SessionID:    sid.String(),
		AdminID:      admin.ID,
		TargetID:     target.ID,
		Restrictions: req.Restrictions.Clone(),
		StartedAt:    now,
		ExpiresAt:    now.Add(duration),
		LastActivity: now,
		Active:       true,
	}

	if err := e.log.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if err := e.cache.Put(ctx, sess); err != nil {
		// The session is durable; rehydration or the next restart
		// recovers it. Do not fail the start.
		log.Print("goImpersonate: session cache insert failed")
	}

	if err := e.recordAudit(ctx, &AuditRecord{
		SessionID: sess.SessionID,
		AdminID:   admin.ID,
		TargetID:  target.ID,
		Action:    ActionStart,
		Details: map[string]any{
			"restrictions":   sess.Restrictions,
			"duration_hours": duration.Hours(),
		},
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
	}); err != nil {
		log.Print("goImpersonate: start audit write failed")
	}

	credential, err := e.IssueCredential(sess.SessionID, sess.ExpiresAt)
	if err != nil {
		// Without a deliverable credential the session is unusable;
		// tear it down rather than leave it dangling.
		_ = e.ForceEnd(ctx, sess.SessionID, "credential_issue_failed")
		return nil, err
	}

	result := &StartResult{
		SessionID:  sess.SessionID,
		Credential: credential,
		ExpiresAt:  sess.ExpiresAt,
		Target:     target,
	}

	if e.minter != nil {
		minted, err := e.minter.MintCredential(ctx, target.ID)
		if err != nil {
			_ = e.ForceEnd(ctx, sess.SessionID, "credential_mint_failed")
			return nil, fmt.Errorf("mint credential for target: %w", err)
		}
		result.TargetCredential = minted
	}

	e.metricInc(MetricStartSuccess)

	return result, nil
}

func (e *Engine) mayImpersonate(p Principal) bool {
	if !p.CanImpersonate {
		return false
	}
	roles := e.config.Access.PermittedRoles
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if role == p.Role {
			return true
		}
	}
	return false
}

func denialReason(admin Principal, lookupErr error) string {
	switch {
	case errors.Is(lookupErr, ErrPrincipalNotFound):
		return "admin principal not found"
	case lookupErr != nil:
		return "admin principal lookup failed"
	case !admin.CanImpersonate:
		return "impersonation flag not set"
	default:
		return "role not permitted to impersonate"
	}
}
