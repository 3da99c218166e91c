// Package domain holds the error taxonomy shared by the stores, the
// application services and the HTTP layer. Callers match with errors.Is;
// producers wrap a sentinel with context via fmt.Errorf("%w: ...").
package domain

import "errors"

var (
	// Input is malformed or mismatched (e.g. password != confirmPassword).
	ErrValidation = errors.New("validation error")

	// A unique identity (username, email) is already taken.
	ErrConflict = errors.New("conflict")

	// No matching user, token or product.
	ErrNotFound = errors.New("not found")

	// A single-use token is past its expiry.
	ErrExpired = errors.New("token expired")

	// Bad credential, or a missing/invalid/expired session.
	ErrAuth = errors.New("authentication failed")

	// The account exists but has not been verified yet.
	ErrUnverified = errors.New("account not verified")

	// Too many requests for the same key.
	ErrRateLimited = errors.New("rate limited")

	// Storage or infrastructure failure.
	ErrUnexpected = errors.New("unexpected error")
)
