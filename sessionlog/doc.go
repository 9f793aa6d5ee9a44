// Package sessionlog provides the gorm-backed durable store behind the
// engine's session cache: session rows, the append-only audit log, and the
// security event log.
//
// The store is authoritative. The cache may be rebuilt from it at any time,
// and the expiry sweeper reconciles against it, so every state transition the
// engine reports as committed has a row here first.
//
// # What this package must NOT do
//
//   - Mutate or delete audit rows (retention is an external policy).
//   - Interpret restriction specs or payloads (stored as opaque JSON).
//   - Cache anything (that is the session package's job).
package sessionlog
