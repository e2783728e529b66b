// Package errors defines the structured error type used by every loading
// path (rules document, job document, app config) in this repository. The
// QC evaluators themselves never return an error — per spec.md §7 they skip
// a rule silently when a field is missing.
package errors

import (
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeUser       ErrorType = "USER"
	ErrorTypeSystem     ErrorType = "SYSTEM"
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeParse      ErrorType = "PARSE"
	ErrorTypeIO         ErrorType = "IO"
	ErrorTypeConfig     ErrorType = "CONFIG"
	ErrorTypeInternal   ErrorType = "INTERNAL"
)

// ErrorCode represents specific error codes for programmatic handling.
type ErrorCode string

const (
	// User error codes
	CodeInvalidInput    ErrorCode = "E001"
	CodeMissingRequired ErrorCode = "E002"
	CodeInvalidFormat   ErrorCode = "E003"

	// System error codes
	CodeFileNotFound     ErrorCode = "E101"
	CodePermissionDenied ErrorCode = "E102"

	// Validation error codes
	CodeInvalidRule     ErrorCode = "E301"
	CodeInvalidRowType  ErrorCode = "E302"
	CodeInvalidSchema   ErrorCode = "E303"

	// Parse error codes
	CodeMalformedJob      ErrorCode = "E401"
	CodeMalformedConfig   ErrorCode = "E402"
	CodeUnsupportedFormat ErrorCode = "E403"

	// IO error codes
	CodeReadFailed   ErrorCode = "E501"
	CodeWriteFailed  ErrorCode = "E502"
	CodeCreateFailed ErrorCode = "E503"

	// Configuration error codes
	CodeMissingConfig  ErrorCode = "E601"
	CodeInvalidConfig  ErrorCode = "E602"
	CodeConfigConflict ErrorCode = "E603"

	// Internal error codes
	CodeUnexpected      ErrorCode = "E901"
	CodeAssertionFailed ErrorCode = "E903"
)

// QCError represents a structured error with context, the same shape the
// teacher's CIPGramError carries.
type QCError struct {
	Type        ErrorType              `json:"type"`
	Code        ErrorCode              `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Cause       error                  `json:"cause,omitempty"`
	File        string                 `json:"file,omitempty"`
	Line        int                    `json:"line,omitempty"`
	Function    string                 `json:"function,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

func (e *QCError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *QCError) Unwrap() error {
	return e.Cause
}

func (e *QCError) Is(target error) bool {
	if t, ok := target.(*QCError); ok {
		return e.Code == t.Code && e.Type == t.Type
	}
	return false
}

// WithContext adds context information to the error.
func (e *QCError) WithContext(key string, value interface{}) *QCError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds detailed information to the error.
func (e *QCError) WithDetails(details string) *QCError {
	e.Details = details
	return e
}

// WithCause wraps another error as the cause.
func (e *QCError) WithCause(cause error) *QCError {
	e.Cause = cause
	return e
}

func (e *QCError) IsRecoverable() bool {
	return e.Recoverable
}

func (e *QCError) GetType() ErrorType {
	return e.Type
}

func (e *QCError) GetCode() ErrorCode {
	return e.Code
}

func (e *QCError) GetContext() map[string]interface{} {
	return e.Context
}

// NewError creates a new QCError, capturing the caller's file/line/function.
func NewError(errorType ErrorType, code ErrorCode, message string) *QCError {
	err := &QCError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		Context:     make(map[string]interface{}),
		Recoverable: isRecoverableByDefault(errorType),
	}

	if pc, file, line, ok := runtime.Caller(1); ok {
		err.File = file
		err.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			err.Function = fn.Name()
		}
	}

	return err
}

func isRecoverableByDefault(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeUser, ErrorTypeValidation, ErrorTypeConfig:
		return true
	case ErrorTypeSystem, ErrorTypeIO:
		return false
	case ErrorTypeParse:
		return false
	case ErrorTypeInternal:
		return false
	default:
		return false
	}
}

func NewUserError(code ErrorCode, message string) *QCError {
	return NewError(ErrorTypeUser, code, message)
}

func NewSystemError(code ErrorCode, message string) *QCError {
	return NewError(ErrorTypeSystem, code, message)
}

func NewValidationError(code ErrorCode, message string) *QCError {
	return NewError(ErrorTypeValidation, code, message)
}

func NewParseError(code ErrorCode, message string) *QCError {
	return NewError(ErrorTypeParse, code, message)
}

func NewIOError(code ErrorCode, message string) *QCError {
	return NewError(ErrorTypeIO, code, message)
}

func NewConfigError(code ErrorCode, message string) *QCError {
	return NewError(ErrorTypeConfig, code, message)
}

func NewInternalError(code ErrorCode, message string) *QCError {
	return NewError(ErrorTypeInternal, code, message)
}

// Wrap wraps an existing error with QCError context.
func Wrap(err error, errorType ErrorType, code ErrorCode, message string) *QCError {
	qcErr := NewError(errorType, code, message)
	qcErr.Cause = err
	return qcErr
}

func WrapUser(err error, code ErrorCode, message string) *QCError {
	return Wrap(err, ErrorTypeUser, code, message)
}

func WrapValidation(err error, code ErrorCode, message string) *QCError {
	return Wrap(err, ErrorTypeValidation, code, message)
}

func WrapParse(err error, code ErrorCode, message string) *QCError {
	return Wrap(err, ErrorTypeParse, code, message)
}

func WrapIO(err error, code ErrorCode, message string) *QCError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	if qcErr, ok := err.(*QCError); ok {
		return qcErr.Type == ErrorTypeValidation
	}
	return false
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	if qcErr, ok := err.(*QCError); ok {
		return qcErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if qcErr, ok := err.(*QCError); ok {
		return qcErr.Code
	}
	return ""
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	if qcErr, ok := err.(*QCError); ok {
		return qcErr.Type
	}
	return ""
}
