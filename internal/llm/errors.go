package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// TransientError represents a temporary error that may succeed on retry
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable)
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent error that should not be retried
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable)
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error is transient and should be retried
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error is fatal and should not be retried
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// classifyStatus wraps err according to the HTTP status that produced it:
// 429 and 5xx are transient, everything else is fatal.
func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests || (status >= 500 && status < 600) {
		return NewTransientError(err)
	}
	return NewFatalError(err)
}

// classifyTransport wraps an error raised before any HTTP status was seen.
// Timeouts and refused or reset connections are transient.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return NewFatalError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTransientError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTransientError(err)
	}
	if isRetryableNetworkError(err.Error()) {
		return NewTransientError(err)
	}
	return NewFatalError(err)
}

func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}
