package domain

import "errors"

// Provider errors: surfaced to the caller as a rejected operation.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email already registered")
	ErrProviderUnavailable = errors.New("auth provider unavailable")
)

// Profile repository errors: never surfaced to end users directly, always
// absorbed by the reconciler's fallback path.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileTimeout  = errors.New("profile lookup timed out")
	ErrProfileOffline  = errors.New("profile backend offline")
)

// Credential store errors.
var ErrDuplicateEmail = errors.New("email already exists")
