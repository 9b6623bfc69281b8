package screener

import "errors"

var (
	// Login errors
	ErrMissingCredentials = errors.New("username and password are required")
	ErrCSRFTokenMissing   = errors.New("could not extract CSRF token")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Session errors
	ErrSessionNotFound = errors.New("session expired, please login again")

	// Upstream errors
	ErrUpstreamFetch = errors.New("failed to fetch data from screener")
	ErrParse         = errors.New("failed to parse screener results")

	ErrUnknownFilter = errors.New("unknown predefined filter")
)

// IsAuthError reports whether err should be surfaced as an authentication failure
func IsAuthError(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrInvalidCredentials)
}

// IsUpstreamError reports whether err came from talking to or reading the upstream site
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamFetch) || errors.Is(err, ErrParse)
}
