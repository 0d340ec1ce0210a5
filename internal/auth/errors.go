package auth

import "errors"

var (
	ErrInvalidPayload     = errors.New("auth: invalid payload")
	ErrConfiguration      = errors.New("auth: configuration error")
	ErrTokenInvalid       = errors.New("auth: token invalid")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountSuspended   = errors.New("auth: account suspended")
	ErrDuplicateAccount   = errors.New("auth: account already exists")
	ErrPermissionDenied   = errors.New("auth: permission denied")
	ErrTooManyAttempts    = errors.New("auth: too many attempts")
	ErrNotFound           = errors.New("auth: not found")
)
