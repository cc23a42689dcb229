package domain

import (
	"errors"
	"fmt"
)

// ErrKind classifies failures surfaced to MCP callers. Every per-request
// error is reported to the caller and the server keeps serving; only
// ErrConfiguration is fatal, and only at startup.
type ErrKind int

const (
	ErrConfiguration ErrKind = iota // missing/empty webhook URL at startup
	ErrInvalidParams                // malformed tool arguments
	ErrUnknownTool                  // tool name not in the registry
	ErrDelivery                     // webhook rejected the message or transport failed
)

func (k ErrKind) String() string {
	switch k {
	case ErrConfiguration:
		return "configuration"
	case ErrInvalidParams:
		return "invalid_params"
	case ErrUnknownTool:
		return "unknown_tool"
	case ErrDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Error is a classified error. It wraps an optional cause so callers can
// recover the kind with errors.As even after further %w wrapping.
type Error struct {
	Kind    ErrKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error with a formatted message.
func NewError(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a classified error around a cause.
func WrapError(kind ErrKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, if it carries one.
func KindOf(err error) (ErrKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
