package session

import (
	"context"
	"errors"
	"time"
)

// ErrCacheUnavailable wraps backend failures from cache implementations.
var ErrCacheUnavailable = errors.New("session cache unavailable")

// Cache maps session identifiers to session state. It is owned exclusively
// by the impersonation engine; no other component writes to it. All methods
// must be safe for concurrent use.
type Cache interface {
	// Put inserts or replaces a session.
	Put(ctx context.Context, sess *Session) error
	// Get returns the session and whether it was present. Absence is not
	// an error.
	Get(ctx context.Context, sessionID string) (*Session, bool, error)
	// Remove deletes a session and reports whether it was present.
	// Removing an absent session is a no-op.
	Remove(ctx context.Context, sessionID string) (bool, error)
	// Touch updates the session's last-activity timestamp. Last write
	// wins; touching an absent session is a no-op.
	Touch(ctx context.Context, sessionID string, at time.Time) error
	// List returns all cached sessions, including ones past expiry that
	// have not been swept yet.
	List(ctx context.Context) ([]*Session, error)
}
