package ns

import (
	"errors"
	"fmt"
	"net/http"
)

// MinQueryLength is the shortest station search query the upstream
// accepts; shorter queries are rejected before any network call.
const MinQueryLength = 2

// Validation errors reported before any network call is made.
var (
	ErrQueryTooShort      = fmt.Errorf("query must be at least %d characters long", MinQueryLength)
	ErrMissingOrigin      = errors.New("either an origin station code or UIC code must be provided")
	ErrMissingDestination = errors.New("either a destination station code or UIC code must be provided")
	ErrMissingStation     = errors.New("either a station code or UIC code must be provided")
)

// APIError is a failed upstream request. It carries the HTTP status and
// the upstream error body; the subscription key never appears in it.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("NS API request error: %s", e.Message)
	}
	return fmt.Sprintf("NS API request failed: %d - %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether the upstream rejected the subscription key.
// These failures are never worth retrying with the same key.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether the requested entity does not exist upstream.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsServerError reports an upstream 5xx or transport-level failure.
func (e *APIError) IsServerError() bool {
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError
}
