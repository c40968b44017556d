// Package resilience wraps every external generation call in rate
// limiting, retry classification, model tier selection, and deterministic
// template fallback.
package resilience

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/inkwell-labs/storyplan/domain/action"
)

// ErrorKind is the classified failure category of an action invocation.
type ErrorKind string

const (
	KindRateLimit      ErrorKind = "rate_limit"
	KindTimeout        ErrorKind = "timeout"
	KindServerError    ErrorKind = "server_error"
	KindAuthError      ErrorKind = "auth_error"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindContextTooLong ErrorKind = "context_too_long"
	KindNetworkError   ErrorKind = "network_error"
)

// Classify derives the error kind from the status-code-like signal and
// message content carried by the failure.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindServerError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetworkError
	}

	var invokeErr *action.InvokeError
	if errors.As(err, &invokeErr) {
		if kind, ok := classifyStatus(invokeErr.Status); ok {
			return kind
		}
		return classifyMessage(invokeErr.Message)
	}

	return classifyMessage(err.Error())
}

// classifyStatus maps an HTTP-like status code to an error kind.
func classifyStatus(status int) (ErrorKind, bool) {
	switch {
	case status == 429:
		return KindRateLimit, true
	case status == 401 || status == 403:
		return KindAuthError, true
	case status == 408 || status == 504:
		return KindTimeout, true
	case status == 413:
		return KindContextTooLong, true
	case status == 400 || status == 404 || status == 422:
		return KindInvalidRequest, true
	case status >= 500:
		return KindServerError, true
	default:
		return "", false
	}
}

// classifyMessage inspects the failure text when no status was available.
func classifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests") || strings.Contains(lower, "quota"):
		return KindRateLimit
	case strings.Contains(lower, "context length") || strings.Contains(lower, "context too long") || strings.Contains(lower, "maximum context") || strings.Contains(lower, "token limit"):
		return KindContextTooLong
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") || strings.Contains(lower, "deadline"):
		return KindTimeout
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "api key") || strings.Contains(lower, "forbidden") || strings.Contains(lower, "authentication"):
		return KindAuthError
	case strings.Contains(lower, "invalid request") || strings.Contains(lower, "malformed") || strings.Contains(lower, "bad request"):
		return KindInvalidRequest
	case strings.Contains(lower, "connection") || strings.Contains(lower, "network") || strings.Contains(lower, "dns") || strings.Contains(lower, "refused"):
		return KindNetworkError
	default:
		return KindServerError
	}
}
