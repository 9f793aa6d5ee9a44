package session

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the in-process [Cache]: a RWMutex-guarded map sized for
// concurrent reads on the request hot path with occasional lifecycle writes.
type MemoryCache struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		sessions: make(map[string]*Session),
	}
}

// Put implements [Cache].
func (c *MemoryCache) Put(_ context.Context, sess *Session) error {
	if sess == nil || sess.SessionID == "" {
		return nil
	}

	c.mu.Lock()
	c.sessions[sess.SessionID] = sess.Clone()
	c.mu.Unlock()
	return nil
}

// Get implements [Cache].
func (c *MemoryCache) Get(_ context.Context, sessionID string) (*Session, bool, error) {
	c.mu.RLock()
	sess, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return sess.Clone(), true, nil
}

// Remove implements [Cache].
func (c *MemoryCache) Remove(_ context.Context, sessionID string) (bool, error) {
	c.mu.Lock()
	_, ok := c.sessions[sessionID]
	delete(c.sessions, sessionID)
	c.mu.Unlock()
	return ok, nil
}

// Touch implements [Cache].
func (c *MemoryCache) Touch(_ context.Context, sessionID string, at time.Time) error {
	c.mu.Lock()
	if sess, ok := c.sessions[sessionID]; ok && at.After(sess.LastActivity) {
		sess.LastActivity = at
	}
	c.mu.Unlock()
	return nil
}

// List implements [Cache].
func (c *MemoryCache) List(_ context.Context) ([]*Session, error) {
	c.mu.RLock()
	out := make([]*Session, 0, len(c.sessions))
	for _, sess := range c.sessions {
		out = append(out, sess.Clone())
	}
	c.mu.RUnlock()
	return out, nil
}

// Len returns the number of cached sessions.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
