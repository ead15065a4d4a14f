package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrNotConnected = errors.New("database is not connected")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// EngineErrorKind classifies failures surfaced by engine adapters.
type EngineErrorKind string

const (
	KindRefusedConnection EngineErrorKind = "refused_connection"
	KindHostNotFound      EngineErrorKind = "host_not_found"
	KindTimedOut          EngineErrorKind = "timed_out"
	KindAuthFailed        EngineErrorKind = "auth_failed"
	KindDatabaseMissing   EngineErrorKind = "database_missing"
	KindUnsupported       EngineErrorKind = "unsupported"
	KindFeatureDisabled   EngineErrorKind = "feature_disabled"
	KindUnclassified      EngineErrorKind = "unclassified"
)

// EngineError is a classified adapter failure. Message is human-readable and
// safe to return to API callers; Cause keeps the raw driver error for
// operator diagnosis.
type EngineError struct {
	Kind    EngineErrorKind
	Message string
	Cause   error
}

func (e *EngineError) Error() string {
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewEngineError builds a classified engine error wrapping cause.
func NewEngineError(kind EngineErrorKind, message string, cause error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Cause: cause}
}

// EngineErrorKindOf returns the kind of err if it is (or wraps) an
// EngineError, otherwise KindUnclassified.
func EngineErrorKindOf(err error) EngineErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnclassified
}

// ValidationError wraps ErrValidation with a field-specific message so
// handlers can match it with errors.Is.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
