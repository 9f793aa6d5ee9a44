package goImpersonate

import (
	"context"
	"time"

	"github.com/MrEthical07/goImpersonate/restriction"
	"github.com/MrEthical07/goImpersonate/session"
)

// Principal is the minimal view of an identity the engine needs: who it is,
// how to display it, and whether it may impersonate others.
type Principal struct {
	ID          string
	DisplayName string
	Role        string
	// CanImpersonate must be true for an admin to start a session. Role
	// membership is additionally checked against Config.Access.PermittedRoles.
	CanImpersonate bool
}

// PrincipalDirectory is the caller-implemented lookup for principals.
// Implementations return [ErrPrincipalNotFound] for absent principals.
type PrincipalDirectory interface {
	Lookup(ctx context.Context, principalID string) (Principal, error)
}

// CredentialMinter optionally mints an opaque credential for the impersonated
// identity on session start. The engine never interprets the result; it is
// surfaced verbatim in [StartResult.TargetCredential].
type CredentialMinter interface {
	MintCredential(ctx context.Context, principalID string) (string, error)
}

// ActionType classifies audit records.
type ActionType string

const (
	// ActionStart is recorded once per successful session start.
	ActionStart ActionType = "start"
	// ActionEnd is recorded once per session end, whatever the reason.
	ActionEnd ActionType = "end"
	// ActionActivity is recorded once per intercepted request during an
	// active session.
	ActionActivity ActionType = "activity"
)

// ReasonExpired is the end reason used by the expiry sweeper.
const ReasonExpired = "expired"

// AuditRecord is one append-only log entry: a lifecycle transition or one
// intercepted request. Records are never mutated or deleted by the engine;
// retention is an external policy.
type AuditRecord struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	AdminID   string         `json:"admin_id"`
	TargetID  string         `json:"target_id"`
	Action    ActionType     `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	Route     string         `json:"route,omitempty"`
	Method    string         `json:"method,omitempty"`
	// Payload is the sanitized request payload snapshot. Sensitive fields
	// are redacted before the record is written, never afterwards.
	Payload   map[string]any `json:"payload,omitempty"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SecurityEvent records a failed or unauthorized impersonation attempt. It is
// kept separate from AuditRecord because it may fire with no session ever
// created.
type SecurityEvent struct {
	ID              string         `json:"id"`
	ActorID         string         `json:"actor_id"`
	AttemptedTarget string         `json:"attempted_target"`
	AttemptType     string         `json:"attempt_type"`
	FailureReason   string         `json:"failure_reason"`
	Context         map[string]any `json:"context,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// AuditFilter narrows an audit query. Zero fields are ignored; Limit
// defaults to 100 when unset.
type AuditFilter struct {
	AdminID   string
	TargetID  string
	SessionID string
	Action    ActionType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// SecurityEventFilter narrows a security event query.
type SecurityEventFilter struct {
	ActorID     string
	AttemptType string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// SessionLog is the durable, transactional store behind the cache. It is
// authoritative for recovery after restart and is written to exclusively by
// the engine; reporting tooling may read it directly.
type SessionLog interface {
	// CreateSession persists a new session. Start returns success only
	// after this write completes.
	CreateSession(ctx context.Context, sess *session.Session) error
	// EndSession marks the session inactive. Ending an already-ended
	// session is a no-op at the store level.
	EndSession(ctx context.Context, sessionID string, endedAt time.Time) error
	// TouchSession updates last_activity_at. Best-effort; callers swallow
	// failures.
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
	// ActiveSessions returns sessions with is_active true and expiry after
	// now, for cache rehydration.
	ActiveSessions(ctx context.Context, now time.Time) ([]*session.Session, error)
	// ExpiredSessions returns up to limit IDs of sessions still marked
	// active whose expiry has passed.
	ExpiredSessions(ctx context.Context, asOf time.Time, limit int) ([]string, error)
	AppendAudit(ctx context.Context, rec *AuditRecord) error
	AppendSecurityEvent(ctx context.Context, ev *SecurityEvent) error
	QueryAudit(ctx context.Context, f AuditFilter) ([]*AuditRecord, error)
	QuerySecurityEvents(ctx context.Context, f SecurityEventFilter) ([]*SecurityEvent, error)
}

// StartRequest is the input to [Engine.Start].
type StartRequest struct {
	AdminID      string
	TargetID     string
	Restrictions restriction.Spec
	// Duration overrides Config.Session.DefaultDuration when positive. It
	// is capped by Config.Session.MaxDuration when that is set.
	Duration time.Duration
}

// StartResult is returned by [Engine.Start].
type StartResult struct {
	SessionID string
	// Credential is the transport credential to deliver to the client
	// (cookie or header value). Signed when Config.Credential.SigningKey
	// is set, otherwise the raw session ID.
	Credential string
	ExpiresAt  time.Time
	// Target is a display snapshot of the assumed identity.
	Target Principal
	// TargetCredential is the minted credential for the impersonated
	// identity; empty when no CredentialMinter is configured.
	TargetCredential string
}

// SessionStatus is the read-only view returned by [Engine.Status]. The zero
// value means "not impersonating" — a normal outcome, not an error.
type SessionStatus struct {
	IsImpersonating bool
	SessionID       string
	AdminID         string
	AdminName       string
	TargetID        string
	TargetName      string
	StartedAt       time.Time
	ExpiresAt       time.Time
	LastActivity    time.Time
	Restrictions    restriction.Spec
}

// ActiveSessionInfo is one row of the active-sessions listing.
type ActiveSessionInfo struct {
	SessionID        string
	AdminID          string
	TargetID         string
	StartedAt        time.Time
	ExpiresAt        time.Time
	DurationMinutes  int
	ExpiresInMinutes int
}

// ResolveRequest describes one inbound request to [Engine.Resolve].
type ResolveRequest struct {
	// Credential is the raw transport credential; decoded per config.
	Credential string
	Route      string
	Method     string
	// Payload is the request payload snapshot; it is sanitized before any
	// audit write.
	Payload map[string]any
	// IP and UserAgent fall back to context values attached via
	// WithClientIP / WithUserAgent when empty.
	IP        string
	UserAgent string
}

// ImpersonationContext is attached to a request's processing context when an
// active session is resolved. Downstream handlers consult Verdict and decide
// how to act on it.
type ImpersonationContext struct {
	SessionID    string
	AdminID      string
	TargetID     string
	Restrictions restriction.Spec
	Verdict      restriction.Verdict
}
