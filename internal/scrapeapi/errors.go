package scrapeapi

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// StatusError is returned when the scrape service responds with a non-2xx
// status. The code drives the orchestrator's retryable/non-retryable split.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("scrape api returned status %d: %s", e.Code, e.Body)
}

// StatusCode extracts the HTTP status from err, or 0 when err carries none.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

// IsTimeout reports whether err represents a timeout: a context deadline,
// a network timeout, or an HTTP 408/504 from the service.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	code := StatusCode(err)
	return code == 408 || code == 504
}
