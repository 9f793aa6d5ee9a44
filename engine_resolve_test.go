package goImpersonate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goImpersonate/internal"
	"github.com/MrEthical07/goImpersonate/restriction"
)

func TestResolveWithoutCredentialIsSilent(t *testing.T) {
	te := newTestEngine(t, nil)

	if imp, ok := te.engine.Resolve(context.Background(), ResolveRequest{Route: "/home", Method: "GET"}); ok || imp != nil {
		t.Fatal("no credential must resolve to nothing")
	}
	if imp, ok := te.engine.Resolve(context.Background(), ResolveRequest{Credential: "not-a-session"}); ok || imp != nil {
		t.Fatal("unknown credential must resolve to nothing")
	}
}

func TestResolveAttachesVerdictWithoutRejecting(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{
		AdminID:  "admin-1",
		TargetID: "target-1",
		Restrictions: restriction.Spec{
			BlockedRoutes:  []string{"/admin/billing/*"},
			ReadOnlyFields: []string{"email"},
		},
	})

	imp, ok := te.engine.Resolve(ctx, ResolveRequest{
		Credential: res.Credential,
		Route:      "/admin/billing/invoices",
		Method:     "GET",
	})
	if !ok {
		t.Fatal("expected resolution for active session")
	}
	if imp.AdminID != "admin-1" || imp.TargetID != "target-1" {
		t.Fatalf("unexpected identity pair %+v", imp)
	}
	if !imp.Verdict.Blocked {
		t.Fatal("blocked route must carry a blocked verdict")
	}
	if len(imp.Verdict.ReadOnlyFields) != 1 || imp.Verdict.ReadOnlyFields[0] != "email" {
		t.Fatalf("read-only fields not carried: %+v", imp.Verdict)
	}

	// An allowed route resolves with a clean verdict.
	imp, ok = te.engine.Resolve(ctx, ResolveRequest{
		Credential: res.Credential,
		Route:      "/admin/gallery",
		Method:     "GET",
	})
	if !ok || imp.Verdict.Blocked {
		t.Fatalf("allowed route wrongly blocked: %+v", imp)
	}
}

func TestResolveRecordsActivityPerRequest(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1"})

	var wg sync.WaitGroup
	for _, route := range []string{"/users", "/orders"} {
		wg.Add(1)
		go func(route string) {
			defer wg.Done()
			te.engine.Resolve(ctx, ResolveRequest{Credential: res.Credential, Route: route, Method: "GET"})
		}(route)
	}
	wg.Wait()

	waitFor(t, func() bool {
		return len(te.log.auditsByAction(ActionActivity)) == 2
	})

	routes := map[string]bool{}
	for _, rec := range te.log.auditsByAction(ActionActivity) {
		routes[rec.Route] = true
		if rec.SessionID != res.SessionID {
			t.Fatalf("activity record for wrong session: %+v", rec)
		}
	}
	if !routes["/users"] || !routes["/orders"] {
		t.Fatalf("each request must leave its own record, got %v", routes)
	}
}

func TestResolveSanitizesPayloadBeforeWrite(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1"})

	te.engine.Resolve(ctx, ResolveRequest{
		Credential: res.Credential,
		Route:      "/profile",
		Method:     "POST",
		Payload: map[string]any{
			"name":     "Tess",
			"password": "hunter2",
			"nested":   map[string]any{"api_token": "abc123"},
		},
	})

	waitFor(t, func() bool {
		return len(te.log.auditsByAction(ActionActivity)) == 1
	})

	payload := te.log.auditsByAction(ActionActivity)[0].Payload
	if payload["name"] != "Tess" {
		t.Fatalf("benign field lost: %+v", payload)
	}
	if payload["password"] != internal.RedactedValue {
		t.Fatalf("password not redacted: %+v", payload)
	}
	nested, ok := payload["nested"].(map[string]any)
	if !ok || nested["api_token"] != internal.RedactedValue {
		t.Fatalf("nested secret not redacted: %+v", payload)
	}
}

func TestResolveIgnoresExpiredSession(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1", Duration: time.Hour})
	te.clock.Advance(61 * time.Minute)

	if _, ok := te.engine.Resolve(ctx, ResolveRequest{Credential: res.Credential, Route: "/home", Method: "GET"}); ok {
		t.Fatal("expired session must not resolve")
	}
}

func TestResolveHeartbeatAdvancesActivity(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1"})
	startedAt := te.clock.Now()
	te.clock.Advance(10 * time.Minute)

	te.engine.Resolve(ctx, ResolveRequest{Credential: res.Credential, Route: "/home", Method: "GET"})

	waitFor(t, func() bool {
		row, ok := te.log.row(res.SessionID)
		return ok && row.LastActivity.After(startedAt)
	})

	status := te.engine.Status(ctx, res.SessionID)
	if !status.LastActivity.After(startedAt) {
		t.Fatalf("cache heartbeat not applied: %v", status.LastActivity)
	}
}

func TestResolveMetrics(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	res := te.start(t, StartRequest{AdminID: "admin-1", TargetID: "target-1"})
	te.engine.Resolve(ctx, ResolveRequest{Credential: res.Credential, Route: "/home", Method: "GET"})
	te.engine.Resolve(ctx, ResolveRequest{Credential: "bogus", Route: "/home", Method: "GET"})

	snap := te.engine.MetricsSnapshot()
	if snap[MetricResolveHit.String()] != 1 {
		t.Fatalf("expected 1 resolve hit, got %d", snap[MetricResolveHit.String()])
	}
	if snap[MetricResolveMiss.String()] != 1 {
		t.Fatalf("expected 1 resolve miss, got %d", snap[MetricResolveMiss.String()])
	}
}
