package goImpersonate

import "errors"

var (
	// ErrPermissionDenied is returned by Start when the admin principal may
	// not impersonate. It is always paired with a recorded SecurityEvent.
	ErrPermissionDenied = errors.New("impersonation permission denied")
	// ErrTargetNotFound is returned by Start when the target principal does
	// not exist. A usage error, not a security violation: no SecurityEvent.
	ErrTargetNotFound = errors.New("target principal not found")
	// ErrPrincipalNotFound must be returned by PrincipalDirectory
	// implementations for absent principals.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrSessionNotFound is returned by End and ForceEnd when the session is
	// absent from the cache or already ended.
	ErrSessionNotFound = errors.New("impersonation session not found")
	// ErrPersistenceFailure wraps durable-log write failures during Start or
	// End. The operation aborts; no half-created session survives.
	ErrPersistenceFailure = errors.New("session log write failed")
	// ErrCredentialInvalid is returned when a signed transport credential
	// fails verification.
	ErrCredentialInvalid = errors.New("invalid impersonation credential")
	// ErrDurationInvalid is returned by Start for a negative duration.
	ErrDurationInvalid = errors.New("invalid session duration")
	// ErrEngineNotReady is returned when an Engine method is called on a nil
	// or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
