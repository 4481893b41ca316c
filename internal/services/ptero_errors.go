package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimitExceeded is returned once the panel kept answering 429 past the retry budget.
var ErrRateLimitExceeded = errors.New("pterodactyl rate limit exceeded")

// maxErrorBody bounds how much of a response body is kept on an APIError.
const maxErrorBody = 1024

// APIError is a non-2xx answer from the panel
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	err        error
}

func newAPIError(method, path string, status int, body []byte, wrapped error) *APIError {
	b := string(body)
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody] + "..."
	}
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       b,
		err:        wrapped,
	}
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("pterodactyl %s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.err
}

// IsNotFound reports whether err is a 404 from the panel
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRetryable reports whether a status code is worth another attempt.
func IsRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
