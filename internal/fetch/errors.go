package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors returned by the fetch client.
var (
	// ErrNetwork indicates a transport failure (DNS, connection reset, timeout).
	ErrNetwork = errors.New("network error fetching page")

	// ErrCircuitOpen indicates the breaker is refusing requests after repeated failures.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrBodyTooLarge indicates the response exceeded MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body too large")
)

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	URL        string
	StatusCode int
	RetryAfter time.Duration // from the Retry-After header, zero if absent
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound returns true if the error is a 404 or 410 response.
func IsNotFound(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone
	}
	return false
}

// IsRateLimited returns true if the error is a 429 response.
func IsRateLimited(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// isRetryable reports whether another attempt may succeed.
func isRetryable(err error) bool {
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return false
}

// countsAsFailure decides what the circuit breaker treats as a failed request.
// Client-side 4xx responses (other than 429) mean the site is healthy.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	return isRetryable(err)
}
