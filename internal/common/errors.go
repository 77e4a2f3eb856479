// Package common defines shared constants and sentinel errors used across
// the vault core, its repositories and the HTTP layer. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Startup errors. Fatal for process initialization.
	ErrConfiguration = errors.New("configuration error")

	// Second-factor seed failed Base32 or length validation.
	ErrInvalidSecretFormat = errors.New("invalid secret format")

	// Ciphertext token errors. Callers treat both the same way; they are
	// kept apart for diagnostics.
	ErrIntegrity      = errors.New("token integrity check failed")
	ErrMalformedToken = errors.New("malformed token")

	// Master password errors.
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrWeakPassword     = errors.New("password is too weak")

	// Entry-specific errors.
	ErrNoLogo = errors.New("entry has no logo")

	// A seed already in storage no longer produces codes. Unlike
	// ErrInvalidSecretFormat this is never the caller's fault.
	ErrStoredSeed = errors.New("stored seed is unusable")

	// Logo references under the storage key prefix are only ever set by
	// the server.
	ErrInvalidLogo = errors.New("invalid logo reference")
)
