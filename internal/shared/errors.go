package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. Unknown email and wrong
	// password both map here so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates a missing, malformed, expired or
	// wrong-type token, or a token whose user is gone or inactive.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the principal lacks a required permission.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrDuplicate indicates a uniqueness violation (email, role name).
	ErrDuplicate = errors.New("duplicate resource")
	// ErrValidation indicates a structurally invalid request.
	ErrValidation = errors.New("validation failed")
)
