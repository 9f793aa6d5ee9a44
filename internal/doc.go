// Package internal holds shared primitives used by the impersonation engine:
// session identifier generation and audit payload sanitization.
//
// Nothing in this package is part of the public API.
package internal
