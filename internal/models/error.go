package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Login-flow errors
	ErrInvalidInput         = errors.New("missing or malformed input")
	ErrSecurityCheckFailed  = errors.New("security check failed")
	ErrRateLimited          = errors.New("too many attempts")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrRegistrationDisabled = errors.New("registration is disabled")

	// Token errors. Both map to the same user-facing message so that a
	// fabricated token is indistinguishable from a stale one.
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")

	// Account errors
	ErrDuplicateAccount      = errors.New("email address already registered")
	ErrAccountCreationFailed = errors.New("account creation failed")
	ErrPasswordMismatch      = errors.New("passwords do not match")

	// External collaborator errors
	ErrUpstreamService = errors.New("upstream service error")
)

// EmailRejectedError carries the message code explaining why address
// verification rejected an email. It unwraps to ErrInvalidInput so generic
// handling still applies.
type EmailRejectedError struct {
	Reason string
}

func (e *EmailRejectedError) Error() string {
	return "email address rejected: " + e.Reason
}

func (e *EmailRejectedError) Unwrap() error {
	return ErrInvalidInput
}
