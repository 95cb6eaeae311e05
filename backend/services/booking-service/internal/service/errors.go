package service

import "errors"

// Error taxonomy surfaced to HTTP handlers. Lifecycle and billing invariant
// violations are reported synchronously; peer-call failures during
// best-effort notifications are logged and swallowed instead.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrAlreadyRunning  = errors.New("session already running")
	ErrNotRunning      = errors.New("no session running")
	ErrValidation      = errors.New("invalid request")
	ErrPeerUnavailable = errors.New("peer service unavailable")
)
