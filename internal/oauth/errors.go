package oauth

import "fmt"

// AuthorizationFailedError indicates the interactive flow ended without a
// usable authorization code (missing code, state mismatch, user denial).
type AuthorizationFailedError struct {
	Reason string
}

func (e *AuthorizationFailedError) Error() string {
	return fmt.Sprintf("authorization failed: %s", e.Reason)
}

// RefreshUnavailableError indicates no refresh token is present, so the
// only way forward is re-authentication. No HTTP call is made.
type RefreshUnavailableError struct{}

func (e *RefreshUnavailableError) Error() string {
	return "no refresh token available, re-authentication required"
}

// RefreshFailedError indicates the token endpoint rejected a refresh
// exchange. Carries the HTTP status and raw response body.
type RefreshFailedError struct {
	Status int
	Body   string
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("token refresh failed with status %d: %s", e.Status, e.Body)
}
