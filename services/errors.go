package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNewsAPIKeyMissing is returned by news lookups when no NewsAPI key is configured
var ErrNewsAPIKeyMissing = errors.New("NEWS_API_KEY is not configured")

// ErrServiceUnavailable is returned when a circuit breaker rejects a call
var ErrServiceUnavailable = errors.New("service unavailable")

// APIError is a non-2xx response from an upstream HTTP API
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// Retryable reports whether repeating the request could succeed
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// categorizeAPIError categorizes an error for metrics purposes
func categorizeAPIError(err error) string {
	if err == nil {
		return "none"
	}

	var apiErr *APIError
	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limit"
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return "auth_error"
		case apiErr.StatusCode >= 500:
			return "server_error"
		default:
			return "client_error"
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "timeout", "deadline"):
		return "timeout"
	case containsAny(msg, "rate limit", "429"):
		return "rate_limit"
	case containsAny(msg, "unauthorized", "401"):
		return "auth_error"
	case containsAny(msg, "connection", "network"):
		return "connection_error"
	default:
		return "unknown"
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
