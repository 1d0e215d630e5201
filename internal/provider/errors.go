package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a structured provider failure.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

// IsCapacityExceeded reports whether err is a transient provider
// overload, the only failure class the model cascade retries on the
// next tier. Everything else is fatal and propagates immediately.
func IsCapacityExceeded(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode == http.StatusServiceUnavailable {
			return true
		}
		switch apiErr.Status {
		case "RESOURCE_EXHAUSTED", "UNAVAILABLE":
			return true
		}
		return strings.Contains(strings.ToLower(apiErr.Message), "overloaded")
	}
	return false
}
