// Package goImpersonate provides a time-bounded, fully audited impersonation
// engine for multi-tenant platforms: a privileged admin temporarily assumes
// another principal's identity, every request made under that identity is
// intercepted, restriction-annotated, and audit-logged, and sessions end
// deterministically by explicit end, forced end, or expiry sweep.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goImpersonate is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (AuditRecord, SecurityEvent, SessionStatus,
// etc.). The session cache lives in the session subpackage, the pure policy
// evaluator in restriction, and HTTP adapters in middleware.
//
// The durable session log, the principal directory, and credential minting
// are external collaborators consumed only through the [SessionLog],
// [PrincipalDirectory], and [CredentialMinter] interfaces. The cache is a
// performance layer over the durable log, rehydrated at process start via
// [Engine.LoadActiveSessions]; it is never the source of truth across
// restarts.
//
// # What this package must NOT do
//
//   - Reject a blocked request itself. [Engine.Resolve] attaches a verdict;
//     downstream handlers decide how to communicate the block.
//   - Authenticate the admin. Callers are assumed to have done that.
//   - Let a best-effort activity write stall or fail a request.
//
// # Performance contract
//
// Resolve is the hot path. For requests carrying no impersonation credential
// it must return after a single cache lookup with no durable-log round trip.
// Start and End complete their durable write before returning success.
package goImpersonate
