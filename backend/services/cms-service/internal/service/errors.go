package service

import "errors"

// Accrual conflict and lookup errors surfaced to HTTP handlers.
var (
	ErrAlreadyRunning = errors.New("accrual already running for charger")
	ErrNotRunning     = errors.New("no accrual running for charger")
	ErrNotFound       = errors.New("not found")
)
