package airquality

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/airsentinel/airsentinel/internal/provider/resilience"
)

// ErrorKind identifies a class of failure in the stable error taxonomy.
type ErrorKind string

const (
	KindInvalidInput         ErrorKind = "InvalidInput"
	KindNetworkUnavailable   ErrorKind = "NetworkUnavailable"
	KindInvalidRequest       ErrorKind = "InvalidRequest"
	KindAuthenticationFailed ErrorKind = "AuthenticationFailed"
	KindAccessDenied         ErrorKind = "AccessDenied"
	KindNotFound             ErrorKind = "NotFound"
	KindRateLimited          ErrorKind = "RateLimited"
	KindUpstreamServerError  ErrorKind = "UpstreamServerError"
	KindServiceUnavailable   ErrorKind = "ServiceUnavailable"
	KindUpstreamError        ErrorKind = "UpstreamError"
	KindNoResponse           ErrorKind = "NoResponse"
	KindUnexpected           ErrorKind = "Unexpected"
)

// DomainError is a classified failure with a user-facing message.
type DomainError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func (e *DomainError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func invalidInput(msg string) *DomainError {
	return &DomainError{Kind: KindInvalidInput, Message: msg, Retryable: false}
}

// Classify maps a raw transport or HTTP failure into a DomainError.
//
// Callers choose between two modes: strict callers return the classified
// error to their own caller; degrade callers feed its message into a
// fallback-tagged result instead. Every public service operation degrades.
func Classify(err error, apiName string) *DomainError {
	var derr *DomainError
	if errors.As(err, &derr) {
		return derr
	}

	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &DomainError{
			Kind:      KindServiceUnavailable,
			Message:   fmt.Sprintf("%s service is temporarily unavailable. Please try again later.", apiName),
			Retryable: true,
		}
	}

	var statusErr *resilience.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode, apiName)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &DomainError{
			Kind:      KindNoResponse,
			Message:   fmt.Sprintf("No response from %s. The service may be temporarily unavailable.", apiName),
			Retryable: true,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &DomainError{
				Kind:      KindNoResponse,
				Message:   fmt.Sprintf("No response from %s. The service may be temporarily unavailable.", apiName),
				Retryable: true,
			}
		}
		return &DomainError{
			Kind:      KindNetworkUnavailable,
			Message:   fmt.Sprintf("Network connection to %s failed. Please check your internet connection and try again.", apiName),
			Retryable: true,
		}
	}

	return &DomainError{
		Kind:      KindUnexpected,
		Message:   fmt.Sprintf("Unexpected error with %s: %v", apiName, err),
		Retryable: false,
	}
}

// classifyStatus maps an HTTP status code to a DomainError.
func classifyStatus(status int, apiName string) *DomainError {
	switch status {
	case http.StatusBadRequest:
		return &DomainError{
			Kind:      KindInvalidRequest,
			Message:   fmt.Sprintf("Invalid request to %s. Please check your coordinates and try again.", apiName),
			Retryable: false,
		}
	case http.StatusUnauthorized:
		return &DomainError{
			Kind:      KindAuthenticationFailed,
			Message:   fmt.Sprintf("Authentication failed for %s. API key may be invalid.", apiName),
			Retryable: false,
		}
	case http.StatusForbidden:
		return &DomainError{
			Kind:      KindAccessDenied,
			Message:   fmt.Sprintf("Access denied to %s. You may have exceeded rate limits.", apiName),
			Retryable: false,
		}
	case http.StatusNotFound:
		return &DomainError{
			Kind:      KindNotFound,
			Message:   fmt.Sprintf("No data found for this location in %s.", apiName),
			Retryable: false,
		}
	case http.StatusTooManyRequests:
		return &DomainError{
			Kind:      KindRateLimited,
			Message:   fmt.Sprintf("Too many requests to %s. Please wait a moment and try again.", apiName),
			Retryable: true,
		}
	case http.StatusInternalServerError:
		return &DomainError{
			Kind:      KindUpstreamServerError,
			Message:   fmt.Sprintf("%s server error. Please try again later.", apiName),
			Retryable: true,
		}
	case http.StatusServiceUnavailable:
		return &DomainError{
			Kind:      KindServiceUnavailable,
			Message:   fmt.Sprintf("%s service is temporarily unavailable. Please try again later.", apiName),
			Retryable: true,
		}
	default:
		return &DomainError{
			Kind:      KindUpstreamError,
			Message:   fmt.Sprintf("%s returned an error (%d). Please try again later.", apiName, status),
			Retryable: false,
		}
	}
}
