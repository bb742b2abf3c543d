package apperrors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorType classifies pipeline failures.
type ErrorType string

const (
	// ErrorTypeParse marks a malformed structured block. Recovered locally:
	// the prose is still shown, only a warning is logged.
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeProvider marks a transport or invalid-request failure from the
	// completion provider. Aborts the in-flight operation and rolls back.
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeStorageQuota marks a persistence write rejected for lack of
	// space. Surfaced to the user distinctly from provider errors.
	ErrorTypeStorageQuota ErrorType = "storage_quota"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError carries a classified error with structured context.
type AppError struct {
	Type     ErrorType
	Code     string
	Message  string
	Internal error
	Context  map[string]interface{}
	Source   string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}
	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}
	for k, v := range e.Context {
		fields = append(fields, k, v)
	}
	return fields
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  caller(),
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   caller(),
		Context:  make(map[string]interface{}),
	}
}

func caller() string {
	_, file, line, _ := runtime.Caller(2)
	return fmt.Sprintf("%s:%d", file, line)
}

// TypeOf returns the classified type of err, or ErrorTypeInternal for
// unclassified errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsRecoverable reports whether the error leaves the conversation intact.
// Parse failures never interrupt the pipeline.
func IsRecoverable(err error) bool {
	return TypeOf(err) == ErrorTypeParse
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle processes an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeParse, ErrorTypeValidation:
			h.logger.WarnContext(ctx, "Recoverable error", appErr.LogFields()...)
		case ErrorTypeProvider, ErrorTypeStorageQuota, ErrorTypeTimeout, ErrorTypeInternal:
			h.logger.ErrorContext(ctx, "Operation aborted", appErr.LogFields()...)
		default:
			h.logger.ErrorContext(ctx, "Unknown error type", appErr.LogFields()...)
		}
		return
	}
	h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
}

// Predefined errors
var (
	ErrInvalidInput  = New(ErrorTypeValidation, "INVALID_INPUT", "Invalid input provided")
	ErrProviderDown  = New(ErrorTypeProvider, "PROVIDER", "Completion provider request failed")
	ErrStorageQuota  = New(ErrorTypeStorageQuota, "QUOTA", "Local storage is full")
	ErrTimeout       = New(ErrorTypeTimeout, "TIMEOUT", "Operation timed out")
	ErrInternal      = New(ErrorTypeInternal, "INTERNAL", "Internal error")
)

// Convenience constructors for common failures

func NewParseError(err error) *AppError {
	return Wrap(err, ErrorTypeParse, "MALFORMED_BLOCK", "Structured block could not be decoded")
}

func NewProviderError(err error, provider string) *AppError {
	return Wrap(err, ErrorTypeProvider, "PROVIDER", fmt.Sprintf("%s request failed", provider)).
		WithContext("provider", provider)
}

func NewStorageQuotaError(err error) *AppError {
	return Wrap(err, ErrorTypeStorageQuota, "QUOTA", "Local storage is full")
}

func NewTimeoutError(operation string) *AppError {
	return New(ErrorTypeTimeout, "TIMEOUT", fmt.Sprintf("%s operation timed out", operation)).
		WithContext("operation", operation)
}
