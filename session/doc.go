// Package session holds the impersonation session model and the session
// cache consulted on every intercepted request.
//
// The cache is a performance layer over the durable session log, never the
// source of truth: it is rehydrated from the log at process start and both
// implementations tolerate losing their contents.
//
// # Implementations
//
//   - [MemoryCache] — mutex-guarded in-process map. Correct for a single
//     process; sessions started on one instance are invisible to others.
//   - [RedisCache] — Redis-backed shared cache for horizontally scaled
//     deployments, with per-session TTLs matching session expiry.
//
// # What this package must NOT do
//
//   - Write to the durable session log (the engine owns write-through).
//   - Decide whether a session is usable (callers check Usable).
package session
