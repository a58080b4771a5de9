package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable    = errors.New("backend unavailable")
	ErrBadResponse    = errors.New("backend returned an unreadable response")
	ErrInvalidBaseURL = errors.New("invalid backend base url")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error %d", e.StatusCode)
}

// Rejected reports a client error the backend explained, as opposed to an outage.
func (e *APIError) Rejected() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

// AsRejection returns the APIError when err is a 4xx answer.
func AsRejection(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Rejected() {
		return apiErr, true
	}
	return nil, false
}
