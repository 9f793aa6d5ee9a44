package goImpersonate

import (
	"context"
	"sort"
)

// Status returns the read-only view of a session. Absence — unknown ID,
// ended, or expired — yields the zero "not impersonating" view, never an
// error.
func (e *Engine) Status(ctx context.Context, sessionID string) SessionStatus {
	if e == nil || sessionID == "" {
		return SessionStatus{}
	}

	sess, ok, err := e.cache.Get(ctx, sessionID)
	if err != nil || !ok || !sess.Usable(e.now()) {
		return SessionStatus{}
	}

	status := SessionStatus{
		IsImpersonating: true,
		SessionID:       sess.SessionID,
		AdminID:         sess.AdminID,
		TargetID:        sess.TargetID,
		StartedAt:       sess.StartedAt,
		ExpiresAt:       sess.ExpiresAt,
		LastActivity:    sess.LastActivity,
		Restrictions:    sess.Restrictions.Clone(),
	}

	// Display names are decoration; lookup failures leave them empty.
	if admin, err := e.directory.Lookup(ctx, sess.AdminID); err == nil {
		status.AdminName = admin.DisplayName
	}
	if target, err := e.directory.Lookup(ctx, sess.TargetID); err == nil {
		status.TargetName = target.DisplayName
	}

	return status
}

// ActiveSessions lists every currently usable session with computed
// durations, ordered by start time.
func (e *Engine) ActiveSessions(ctx context.Context) ([]ActiveSessionInfo, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sessions, err := e.cache.List(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	out := make([]ActiveSessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		if !sess.Usable(now) {
			continue
		}
		out = append(out, ActiveSessionInfo{
			SessionID:        sess.SessionID,
			AdminID:          sess.AdminID,
			TargetID:         sess.TargetID,
			StartedAt:        sess.StartedAt,
			ExpiresAt:        sess.ExpiresAt,
			DurationMinutes:  int(now.Sub(sess.StartedAt).Minutes()),
			ExpiresInMinutes: int(sess.ExpiresAt.Sub(now).Minutes()),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})

	return out, nil
}
