package backend

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsUnauthorized returns true if err carries a 401 or 403 from the backend.
func IsUnauthorized(err error) bool {
	var statusError *StatusError
	if !errors.As(err, &statusError) {
		return false
	}
	return statusError.StatusCode == http.StatusUnauthorized || statusError.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if err carries a 404 from the backend.
func IsNotFound(err error) bool {
	var statusError *StatusError
	return errors.As(err, &statusError) && statusError.StatusCode == http.StatusNotFound
}
