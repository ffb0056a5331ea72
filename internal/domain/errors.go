package domain

import (
	"errors"
	"strings"
)

// ErrorKind classifies a failed tool call
type ErrorKind string

const (
	KindPolicyDenied       ErrorKind = "policy_denied"
	KindTableNotFound      ErrorKind = "table_not_found"
	KindColumnNotFound     ErrorKind = "column_not_found"
	KindTypeMismatch       ErrorKind = "type_mismatch"
	KindInvalidDateTime    ErrorKind = "invalid_datetime"
	KindPermissionDenied   ErrorKind = "permission_denied"
	KindInvalidArgument    ErrorKind = "invalid_argument"
	KindBackendUnavailable ErrorKind = "backend_unavailable"
	KindDatabase           ErrorKind = "database"
	KindInternal           ErrorKind = "internal"
)

// ToolError is a failure rendered for the caller. Message is the exact text
// shown at the boundary; Err keeps the underlying cause for logging.
type ToolError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError builds a ToolError without an underlying cause.
func NewToolError(kind ErrorKind, message string) *ToolError {
	return &ToolError{Kind: kind, Message: message}
}

// BackendError is a classified driver failure before it is bound to a
// particular tool's message template.
type BackendError struct {
	Kind ErrorKind
	Err  error
}

func (e *BackendError) Error() string {
	return e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification carried by err, or KindDatabase when
// err carries none.
func KindOf(err error) ErrorKind {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Kind
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindDatabase
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
