// Package middleware exposes HTTP middleware adapters that attach impersonation
// context to incoming requests on top of goImpersonate.Engine resolution.
//
// # Adapters
//
//   - [Intercept] — net/http middleware; resolves the impersonation credential
//     and injects the resulting context into the request.
//   - [GinIntercept] — the same behavior for gin handler chains.
//
// Each adapter reads the impersonation credential from the configured cookie or
// header, calls Engine.Resolve, and injects the resolved context into the
// request context. Requests without a credential pass through untouched.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT decide
// whether a request is restricted — restriction verdicts come from
// Engine.Resolve, and enforcement is the caller's responsibility.
//
// # What this package must NOT do
//
//   - Reject or rewrite requests (handlers act on the attached verdict).
//   - Decode or validate credentials directly (delegates to Engine).
//   - Access the session cache or durable log (Engine handles I/O).
package middleware
