// Package restriction implements the per-session policy that limits which
// routes, actions, and fields are available while an impersonation session is
// live.
//
// Evaluation is a pure function over (Spec, route, method): it performs no
// I/O, holds no state, and never rejects a request itself. Callers attach the
// resulting [Verdict] to the request context and leave enforcement to the
// downstream handler.
package restriction

import (
	"fmt"
	"strings"
)

// Spec is the restriction policy attached to one impersonation session. A
// zero Spec means no restriction; an absent category means no restriction in
// that category. Specs are immutable for the session's lifetime.
type Spec struct {
	// BlockedRoutes are route patterns. A pattern containing "*" is a
	// wildcard match; a pattern without "*" matches as a path prefix.
	BlockedRoutes []string `json:"blocked_routes,omitempty"`
	// BlockedActions are HTTP methods disallowed regardless of route,
	// matched case-insensitively.
	BlockedActions []string `json:"blocked_actions,omitempty"`
	// ReadOnlyFields are field names the impersonated context may not
	// mutate. They are passed through to the verdict uninterpreted.
	ReadOnlyFields []string `json:"read_only_fields,omitempty"`
}

// IsZero reports whether the spec carries no restriction at all.
func (s Spec) IsZero() bool {
	return len(s.BlockedRoutes) == 0 && len(s.BlockedActions) == 0 && len(s.ReadOnlyFields) == 0
}

// Clone returns a deep copy so stored specs cannot be mutated by the caller.
func (s Spec) Clone() Spec {
	return Spec{
		BlockedRoutes:  cloneStrings(s.BlockedRoutes),
		BlockedActions: cloneStrings(s.BlockedActions),
		ReadOnlyFields: cloneStrings(s.ReadOnlyFields),
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Verdict is the evaluation result for one request. Blocked does not mean
// rejected: the downstream handler decides how to act on it.
type Verdict struct {
	Blocked        bool
	Reason         string
	ReadOnlyFields []string
}

// Evaluate decides whether a request to route with the given method is
// blocked under spec. Route-block and method-block are independent checks
// joined by union; there is no precedence between them.
func Evaluate(spec Spec, route, method string) Verdict {
	verdict := Verdict{
		ReadOnlyFields: cloneStrings(spec.ReadOnlyFields),
	}

	var reasons []string
	for _, pattern := range spec.BlockedRoutes {
		if MatchRoute(pattern, route) {
			reasons = append(reasons, fmt.Sprintf("route matches blocked pattern %q", pattern))
			break
		}
	}
	for _, action := range spec.BlockedActions {
		if strings.EqualFold(action, method) {
			reasons = append(reasons, fmt.Sprintf("method %s is blocked", strings.ToUpper(method)))
			break
		}
	}

	if len(reasons) > 0 {
		verdict.Blocked = true
		verdict.Reason = strings.Join(reasons, "; ")
	}
	return verdict
}

// MatchRoute reports whether route matches pattern. A pattern without "*" is
// a path-prefix match. Each "*" in a pattern matches any run of characters:
// the segment before the first "*" anchors the start, the segment after the
// last "*" anchors the end, and interior segments must appear in order.
func MatchRoute(pattern, route string) bool {
	if pattern == "" {
		return false
	}
	if !strings.Contains(pattern, "*") {
		return strings.HasPrefix(route, pattern)
	}

	parts := strings.Split(pattern, "*")

	rest := route
	if first := parts[0]; first != "" {
		if !strings.HasPrefix(rest, first) {
			return false
		}
		rest = rest[len(first):]
	}

	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}

	if last == "" {
		return true
	}
	return strings.HasSuffix(rest, last)
}
