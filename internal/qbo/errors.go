package qbo

import "fmt"

// NotAuthenticatedError indicates no access token is present in memory.
// Raised before any network call is attempted.
type NotAuthenticatedError struct{}

func (e *NotAuthenticatedError) Error() string {
	return "not authenticated: run the auth flow first"
}

// RemoteAPIError indicates a non-401 non-2xx response from the
// QuickBooks API. Carries the status and raw body; never retried.
type RemoteAPIError struct {
	Status int
	Body   string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("QuickBooks API returned status %d: %s", e.Status, e.Body)
}

// UnauthorizedAfterRefreshError indicates the replayed request was
// rejected with a second consecutive 401. The credentials are
// fundamentally invalid; no further retry happens.
type UnauthorizedAfterRefreshError struct{}

func (e *UnauthorizedAfterRefreshError) Error() string {
	return "still unauthorized after token refresh"
}

// EntityNotFoundError indicates the fetch step of an update returned no
// usable record (unknown id, or a record missing Id/SyncToken).
type EntityNotFoundError struct {
	Kind string
	ID   string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("could not fetch existing %s %q", e.Kind, e.ID)
}
