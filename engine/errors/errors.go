// Package errors provides the coded error type shared by the schema, source and plan layers.
package errors

import (
	"context"
	"fmt"
	"log/slog"

	crdb "github.com/cockroachdb/errors"

	"github.com/guileen/litequery/logger"
)

// Error codes for different types of errors
const (
	ErrCodeUnknown       = "unknown_error"
	ErrCodeIndex         = "index_error"
	ErrCodeNotFound      = "not_found"
	ErrCodeAmbiguousName = "ambiguous_name"
	ErrCodeSchema        = "schema_error"
	ErrCodeConflict      = "conflict"
	ErrCodeStorage       = "storage_error"
	ErrCodeCodec         = "codec_error"
	ErrCodeValidation    = "validation_error"
)

// EngineError represents a custom error type for the engine
type EngineError struct {
	Code    string
	Message string
	Op      string
	Err     error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	msg := e.Message
	if e.Err != nil && e.Err.Error() != e.Message {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap implements the unwrap interface for error chaining
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target error
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return false
}

// Log logs the error with the provided logger
func (e *EngineError) Log(ctx context.Context, logLevel slog.Level) {
	logFields := []any{
		"error_code", e.Code,
		logger.Operation(e.Op),
		"message", e.Message,
	}
	if e.Err != nil {
		logFields = append(logFields, "cause", e.Err.Error())
	}

	switch logLevel {
	case slog.LevelDebug:
		logger.DebugContext(ctx, "Engine error occurred", logFields...)
	case slog.LevelInfo:
		logger.InfoContext(ctx, "Engine error occurred", logFields...)
	case slog.LevelWarn:
		logger.WarnContext(ctx, "Engine error occurred", logFields...)
	default:
		logger.ErrorContext(ctx, "Engine error occurred", logFields...)
	}
}

// Errorf creates a new EngineError with formatted message
func Errorf(code, op, format string, args ...interface{}) *EngineError {
	return &EngineError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Op:      op,
	}
}

// Wrap wraps an existing error with context. A stack trace is attached to
// causes that do not carry one yet.
func Wrap(err error, code, op string) *EngineError {
	return &EngineError{
		Code:    code,
		Message: err.Error(),
		Op:      op,
		Err:     withStack(err),
	}
}

// Wrapf wraps an existing error with formatted context
func Wrapf(err error, code, op, format string, args ...interface{}) *EngineError {
	return &EngineError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Op:      op,
		Err:     withStack(err),
	}
}

func withStack(err error) error {
	if _, ok := err.(*EngineError); ok {
		return err
	}
	return crdb.WithStack(err)
}

func NewIndexError(op string, index, length int) *EngineError {
	return Errorf(ErrCodeIndex, op, "index %d out of range [0, %d)", index, length)
}

func NewNotFoundErrorf(op, format string, args ...interface{}) *EngineError {
	return Errorf(ErrCodeNotFound, op, format, args...)
}

func NewAmbiguousNameError(op, name string, candidates []string) *EngineError {
	return Errorf(ErrCodeAmbiguousName, op, "column name %q is ambiguous, candidates: %v", name, candidates)
}

func NewSchemaErrorf(op, format string, args ...interface{}) *EngineError {
	return Errorf(ErrCodeSchema, op, format, args...)
}

func NewStorageErrorf(op, format string, args ...interface{}) *EngineError {
	return Errorf(ErrCodeStorage, op, format, args...)
}

func NewCodecErrorf(op, format string, args ...interface{}) *EngineError {
	return Errorf(ErrCodeCodec, op, format, args...)
}

func NewValidationErrorf(op, format string, args ...interface{}) *EngineError {
	return Errorf(ErrCodeValidation, op, format, args...)
}

// Predefined error variables, usable as errors.Is targets.
var (
	ErrIndex         = &EngineError{Code: ErrCodeIndex, Message: "index out of range"}
	ErrNotFound      = &EngineError{Code: ErrCodeNotFound, Message: "not found"}
	ErrAmbiguousName = &EngineError{Code: ErrCodeAmbiguousName, Message: "ambiguous name"}
	ErrSchema        = &EngineError{Code: ErrCodeSchema, Message: "schema mismatch"}
	ErrConflict      = &EngineError{Code: ErrCodeConflict, Message: "conflict"}
	ErrStorage       = &EngineError{Code: ErrCodeStorage, Message: "storage failure"}
	ErrCodec         = &EngineError{Code: ErrCodeCodec, Message: "codec failure"}
	ErrValidation    = &EngineError{Code: ErrCodeValidation, Message: "invalid configuration"}
)

// hasCode walks the whole cause chain, so a schema error caused by an index
// error answers true for both codes.
func hasCode(err error, code string) bool {
	for err != nil {
		if e, ok := err.(*EngineError); ok && e.Code == code {
			return true
		}
		err = crdb.UnwrapOnce(err)
	}
	return false
}

// IsIndexError checks if an error is an ordinal out-of-range error
func IsIndexError(err error) bool {
	return hasCode(err, ErrCodeIndex)
}

// IsNotFound checks if an error indicates something was not found
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsAmbiguousName checks if an error is an ambiguous column reference
func IsAmbiguousName(err error) bool {
	return hasCode(err, ErrCodeAmbiguousName)
}

// IsSchemaError checks if an error is a schema mismatch
func IsSchemaError(err error) bool {
	return hasCode(err, ErrCodeSchema)
}

// IsConflict checks if an error indicates a conflict
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsStorageError checks if an error is a storage error
func IsStorageError(err error) bool {
	return hasCode(err, ErrCodeStorage)
}

// IsCodecError checks if an error is a codec error
func IsCodecError(err error) bool {
	return hasCode(err, ErrCodeCodec)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// CodeOf returns the code of the outermost EngineError in err's chain, or
// ErrCodeUnknown.
func CodeOf(err error) string {
	var e *EngineError
	if crdb.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}

// LogError logs an error at error level
func LogError(ctx context.Context, err error) {
	var e *EngineError
	if crdb.As(err, &e) {
		e.Log(ctx, slog.LevelError)
		return
	}
	logger.ErrorContext(ctx, "Unexpected error occurred", logger.ErrorField(err))
}

// LogWarning logs an error at warning level
func LogWarning(ctx context.Context, err error) {
	var e *EngineError
	if crdb.As(err, &e) {
		e.Log(ctx, slog.LevelWarn)
		return
	}
	logger.WarnContext(ctx, "Unexpected error occurred", logger.ErrorField(err))
}
