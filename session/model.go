package session

import (
	"time"

	"github.com/MrEthical07/goImpersonate/restriction"
)

// Session identifies one act of impersonation: an admin principal acting
// under a target principal's identity for a bounded time.
//
// Once Active is false the session is terminal and must never be
// reactivated. Restrictions are immutable for the session's lifetime;
// LastActivity is advisory and last-write-wins under concurrency.
type Session struct {
	SessionID    string           `json:"session_id"`
	AdminID      string           `json:"admin_id"`
	TargetID     string           `json:"target_id"`
	Restrictions restriction.Spec `json:"restrictions"`
	StartedAt    time.Time        `json:"started_at"`
	ExpiresAt    time.Time        `json:"expires_at"`
	LastActivity time.Time        `json:"last_activity"`
	Active       bool             `json:"active"`
}

// Usable reports whether the session may still be acted under at the given
// instant: active and not past expiry.
func (s *Session) Usable(now time.Time) bool {
	return s != nil && s.Active && now.Before(s.ExpiresAt)
}

// Clone returns a deep copy. Caches hand out clones so callers can never
// mutate cached state in place.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Restrictions = s.Restrictions.Clone()
	return &out
}
