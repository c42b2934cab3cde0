package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a call failed
type Kind int

const (
	// KindValidation is a local failure detected before any network I/O
	KindValidation Kind = iota + 1
	// KindRejected is a backend rejection (4xx/5xx other than 401)
	KindRejected
	// KindUnauthorized means the backend rejected the credential; the
	// session has already been invalidated by the response pipeline
	KindUnauthorized
	// KindTransport covers network failures and unreadable responses
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRejected:
		return "rejected"
	case KindUnauthorized:
		return "unauthorized"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// APIError is the error returned by every Client call
type APIError struct {
	Kind   Kind
	Status int    // HTTP status, 0 when no response was received
	Op     string // operation name, e.g. "login"
	// Message is the backend's error text, empty when the backend sent none
	Message string
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s failed (status %d)", e.Op, e.Status)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnauthorized) match any unauthorized APIError
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}

var (
	// ErrUnauthorized matches APIErrors of KindUnauthorized
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation matches APIErrors of KindValidation
	ErrValidation = errors.New("validation failed")
)

// NewValidationError builds a local validation failure for op
func NewValidationError(op, message string) *APIError {
	return &APIError{Kind: KindValidation, Op: op, Message: message}
}

// KindOf returns the Kind of err, or 0 when err is not an APIError
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// Message extracts the user-facing text of err: the backend's error payload
// when present, otherwise fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func kindForStatus(status int) Kind {
	if status == http.StatusUnauthorized {
		return KindUnauthorized
	}
	return KindRejected
}
