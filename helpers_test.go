package goImpersonate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goImpersonate/session"
)

// fakeClock is a settable time source so tests can cross expiry boundaries
// without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeLog is an in-memory SessionLog with injectable failures.
type fakeLog struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	audits   []*AuditRecord
	events   []*SecurityEvent

	failCreate error
	failAudit  error
	failEnd    error
}

func newFakeLog() *fakeLog {
	return &fakeLog{sessions: make(map[string]*session.Session)}
}

func (l *fakeLog) CreateSession(_ context.Context, sess *session.Session) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failCreate != nil {
		return l.failCreate
	}
	l.sessions[sess.SessionID] = sess.Clone()
	return nil
}

func (l *fakeLog) EndSession(_ context.Context, sessionID string, _ time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failEnd != nil {
		return l.failEnd
	}
	if sess, ok := l.sessions[sessionID]; ok {
		sess.Active = false
	}
	return nil
}

func (l *fakeLog) TouchSession(_ context.Context, sessionID string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if sess, ok := l.sessions[sessionID]; ok && at.After(sess.LastActivity) {
		sess.LastActivity = at
	}
	return nil
}

func (l *fakeLog) ActiveSessions(_ context.Context, now time.Time) ([]*session.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*session.Session
	for _, sess := range l.sessions {
		if sess.Usable(now) {
			out = append(out, sess.Clone())
		}
	}
	return out, nil
}

func (l *fakeLog) ExpiredSessions(_ context.Context, asOf time.Time, limit int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []string
	for id, sess := range l.sessions {
		if sess.Active && !asOf.Before(sess.ExpiresAt) {
			ids = append(ids, id)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}

func (l *fakeLog) AppendAudit(_ context.Context, rec *AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAudit != nil {
		return l.failAudit
	}
	clone := *rec
	l.audits = append(l.audits, &clone)
	return nil
}

func (l *fakeLog) AppendSecurityEvent(_ context.Context, ev *SecurityEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := *ev
	l.events = append(l.events, &clone)
	return nil
}

func (l *fakeLog) QueryAudit(_ context.Context, f AuditFilter) ([]*AuditRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*AuditRecord
	for _, rec := range l.audits {
		if f.SessionID != "" && rec.SessionID != f.SessionID {
			continue
		}
		if f.AdminID != "" && rec.AdminID != f.AdminID {
			continue
		}
		if f.Action != "" && rec.Action != f.Action {
			continue
		}
		clone := *rec
		out = append(out, &clone)
	}
	return out, nil
}

func (l *fakeLog) QuerySecurityEvents(_ context.Context, f SecurityEventFilter) ([]*SecurityEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*SecurityEvent
	for _, ev := range l.events {
		if f.ActorID != "" && ev.ActorID != f.ActorID {
			continue
		}
		if f.AttemptType != "" && ev.AttemptType != f.AttemptType {
			continue
		}
		clone := *ev
		out = append(out, &clone)
	}
	return out, nil
}

func (l *fakeLog) auditsByAction(action ActionType) []*AuditRecord {
	recs, _ := l.QueryAudit(context.Background(), AuditFilter{Action: action})
	return recs
}

func (l *fakeLog) row(sessionID string) (*session.Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sess, ok := l.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// fakeDirectory is a map-backed PrincipalDirectory.
type fakeDirectory struct {
	mu         sync.Mutex
	principals map[string]Principal
}

func newFakeDirectory(principals ...Principal) *fakeDirectory {
	d := &fakeDirectory{principals: make(map[string]Principal)}
	for _, p := range principals {
		d.principals[p.ID] = p
	}
	return d
}

func (d *fakeDirectory) Lookup(_ context.Context, principalID string) (Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.principals[principalID]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return p, nil
}

var (
	adminPrincipal  = Principal{ID: "admin-1", DisplayName: "Ava Admin", Role: "admin", CanImpersonate: true}
	viewerPrincipal = Principal{ID: "viewer-1", DisplayName: "Vern Viewer", Role: "viewer"}
	targetPrincipal = Principal{ID: "target-1", DisplayName: "Tess Target", Role: "user"}
)

type testEngine struct {
	engine *Engine
	log    *fakeLog
	clock  *fakeClock
	dir    *fakeDirectory
}

func newTestEngine(t *testing.T, configure func(*Builder)) *testEngine {
	t.Helper()

	log := newFakeLog()
	clock := newFakeClock()
	dir := newFakeDirectory(adminPrincipal, viewerPrincipal, targetPrincipal)

	b := New().
		WithSessionLog(log).
		WithDirectory(dir).
		WithClock(clock.Now)
	if configure != nil {
		configure(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{engine: engine, log: log, clock: clock, dir: dir}
}

func (te *testEngine) start(t *testing.T, req StartRequest) *StartResult {
	t.Helper()
	res, err := te.engine.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return res
}

// waitFor polls cond until it holds or the deadline passes. Used for the
// fire-and-forget write paths.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
