package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAuthentication signals an invalid or missing API key.
	ErrAuthentication = errors.New("authentication failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrServiceUnavailable signals a temporarily unavailable backend.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrValidation signals invalid request parameters or data.
	ErrValidation = errors.New("validation error")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrTimeout signals a request that did not complete in time.
	ErrTimeout = errors.New("request timed out")
	// ErrNetwork signals a connection-level failure.
	ErrNetwork = errors.New("network error")
	// ErrServer signals a server-side failure (5xx).
	ErrServer = errors.New("server error")

	// ErrSchemaValidation signals payloads rejected by a strict payload schema.
	ErrSchemaValidation = errors.New("schema validation failed")
	// ErrSchemaNotFound signals a collection without a payload schema.
	// It matches ErrNotFound.
	ErrSchemaNotFound = fmt.Errorf("schema %w", ErrNotFound)
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrPreconditionFailed signals a write rejected for a stale concurrency token.
	ErrPreconditionFailed = &markedError{msg: "precondition failed", status: 412}
	// ErrSchemaChanged is returned when a write keeps failing its precondition
	// after the schema was refreshed.
	ErrSchemaChanged = &markedError{msg: "schema changed, please retry your request", status: 412}
)

// markedError is a validation error variant carrying a status marker.
// errors.Is matches the marker itself and ErrValidation; ErrSchemaChanged
// also matches ErrPreconditionFailed.
type markedError struct {
	msg    string
	status int
}

func (e *markedError) Error() string { return e.msg }

func (e *markedError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	return e == ErrSchemaChanged && target == ErrPreconditionFailed
}

// StatusHint returns the HTTP status the marker stands for.
func (e *markedError) StatusHint() int { return e.status }

// APIError is an error response classified into the taxonomy above.
type APIError struct {
	Kind       error
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	RetryAfter time.Duration
	Details    map[string]any
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request id %s)", e.RequestID)
	}
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, " (retry after %s)", e.RetryAfter)
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Kind }

// DimensionMismatchError reports a point whose vector length differs from the
// collection dimensionality.
type DimensionMismatchError struct {
	Index    int
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: point %d: expected %d, got %d",
		ErrVectorDimMismatch.Error(), e.Index, e.Expected, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(index, expected, got int) error {
	return &DimensionMismatchError{Index: index, Expected: expected, Got: got}
}

// IsRetryable is the default retry classification: unavailable, timeout,
// network, and rate-limit errors that carry a positive retry-after hint.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrNetwork) {
		return true
	}
	var apiErr *APIError
	if errors.Is(err, ErrRateLimited) && errors.As(err, &apiErr) {
		return apiErr.RetryAfter > 0
	}
	return false
}
