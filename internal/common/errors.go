// Package common defines shared constants, helpers and sentinel errors used
// across the vendorverify server and the admin CLI. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
	// ErrStateChanged rejects a conditional write whose expected lifecycle
	// state no longer matches the stored one.
	ErrStateChanged = errors.New("lifecycle state changed")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// ErrorUnavailable marks a transient dependency failure (store, renderer).
	ErrorUnavailable = errors.New("dependency unavailable")

	// Auth errors (invalid or malformed access token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Token rotation errors. Both are retryable by the caller.
	ErrTokenCollision = errors.New("could not allocate a unique token")
	ErrRenderFailed   = errors.New("qr rendering failed")

	// Lifecycle errors.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)
