package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ProblemDetails is the RFC 7807 error body the platform returns for
// application-level rejections.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// APIError is a definitive application-level rejection from the platform:
// the server answered and said no. Retrying an APIError unchanged will not
// help, which is what separates it from a transport failure.
type APIError struct {
	Status  int
	Problem ProblemDetails
}

func (e *APIError) Error() string {
	if e.Problem.Title != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Problem.Title, e.Status)
	}
	return fmt.Sprintf("api: request failed with status %d", e.Status)
}

// IsDefinitive reports whether err carries a server response, as opposed to
// a transport failure where no response arrived at all.
func IsDefinitive(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsAlreadyCheckedIn reports whether err is the platform's duplicate
// check-in rejection.
func IsAlreadyCheckedIn(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

// StatusOf returns the HTTP status of a definitive error, or 0 for
// transport failures.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
