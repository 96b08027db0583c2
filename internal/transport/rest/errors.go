package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
)

// errorBody covers both error shapes the service sends:
// {"message","request_id","error_code","details"} and {"error":{"code","message"}}.
type errorBody struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	ErrorCode string         `json:"error_code"`
	Details   map[string]any `json:"details"`
	Error     *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// classifyStatus maps a non-2xx response into the error taxonomy.
func classifyStatus(status int, header http.Header, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb) // non-JSON bodies fall back to the status text

	apiErr := &domain.APIError{
		StatusCode: status,
		Code:       eb.ErrorCode,
		Message:    eb.Message,
		RequestID:  eb.RequestID,
		Details:    eb.Details,
	}
	if eb.Error != nil {
		if apiErr.Code == "" {
			apiErr.Code = eb.Error.Code
		}
		if apiErr.Message == "" {
			apiErr.Message = eb.Error.Message
		}
		if apiErr.Details == nil {
			apiErr.Details = eb.Error.Details
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	if apiErr.RequestID == "" {
		apiErr.RequestID = header.Get("X-Request-ID")
	}

	switch {
	case status == http.StatusBadRequest:
		apiErr.Kind = domain.ErrValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr.Kind = domain.ErrAuthentication
	case status == http.StatusNotFound:
		apiErr.Kind = domain.ErrNotFound
		if strings.EqualFold(apiErr.Code, "schema_not_found") {
			apiErr.Kind = domain.ErrSchemaNotFound
		}
	case status == http.StatusRequestTimeout:
		apiErr.Kind = domain.ErrTimeout
	case status == http.StatusPreconditionFailed:
		apiErr.Kind = domain.ErrPreconditionFailed
	case status == http.StatusTooManyRequests:
		apiErr.Kind = domain.ErrRateLimited
		apiErr.RetryAfter = retryAfter(apiErr.Details, header)
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		apiErr.Kind = domain.ErrServiceUnavailable
	case status >= 500:
		apiErr.Kind = domain.ErrServer
	default:
		apiErr.Kind = domain.ErrValidation
	}
	return apiErr
}

// retryAfter reads details.retry_after (seconds), then the Retry-After header.
func retryAfter(details map[string]any, header http.Header) time.Duration {
	if v, ok := details["retry_after"]; ok {
		switch n := v.(type) {
		case float64:
			return time.Duration(n * float64(time.Second))
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return time.Duration(f * float64(time.Second))
			}
		}
	}
	if h := header.Get("Retry-After"); h != "" {
		if secs, err := strconv.Atoi(h); err == nil {
			return time.Duration(secs) * time.Second
		}
		if t, err := http.ParseTime(h); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}
	return 0
}

// classifyTransport maps a failed round trip to timeout, cancellation or network errors.
func classifyTransport(ctx context.Context, route string, timeout time.Duration, err error) error {
	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", route, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		msg := fmt.Sprintf("request to %s timed out", route)
		if timeout > 0 {
			msg = fmt.Sprintf("request to %s timed out after %s", route, timeout)
		}
		return &domain.APIError{Kind: domain.ErrTimeout, Message: msg}
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrNetwork, route, err)
}
