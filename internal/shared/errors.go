package shared

import "errors"

var (
	// ErrNotFound indicates the referenced node, role or user is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a hierarchy invariant violation, a duplicate code
	// or an attempted mutation of an immutable entity.
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates the caller lacks rights to mutate a protected entity.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated indicates the principal cannot be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
