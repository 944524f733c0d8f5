package clockify

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates the API rejected the key (401/403).
	ErrUnauthorized = errors.New("clockify rejected api key")

	// ErrUnavailable indicates a transport failure or a 5xx response.
	ErrUnavailable = errors.New("clockify unavailable")

	// ErrMalformedResponse indicates a 2xx response whose body could not be
	// decoded or lacks required fields.
	ErrMalformedResponse = errors.New("malformed clockify response")
)

// APIError is a non-2xx response. It unwraps to ErrUnauthorized or
// ErrUnavailable when the status falls in those classes.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("clockify api error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("clockify api error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return ErrUnauthorized
	case e.StatusCode >= 500:
		return ErrUnavailable
	default:
		return nil
	}
}
