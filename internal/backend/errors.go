package backend

import "errors"

// Auth failure classes. Each maps to a distinct user-presentable message;
// callers classify with errors.Is rather than string matching.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrNoSession          = errors.New("no active session")
	ErrServiceUnavailable = errors.New("backend unavailable")
)
