package domain

import "errors"

// Pipeline rejection kinds. The HTTP error handler maps each to a status
// code and a fixed external message; binding failures deliberately share one
// message so callers cannot probe which check failed.
var (
	ErrMissingAuthHeader   = errors.New("missing or malformed authorization header")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrCredentialBinding   = errors.New("credentials do not match configuration")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrUpstreamUnreachable = errors.New("upstream unreachable")

	// ErrInvalidCredentials is returned by the login flow only.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
