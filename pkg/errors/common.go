package errors

import "fmt"

// Common error scenarios with pre-defined messages and context, for the
// loading paths that read rules/job/config documents off disk.

// ErrFileNotFound creates a file not found error.
func ErrFileNotFound(filepath string) *QCError {
	return NewIOError(CodeFileNotFound, "file not found").
		WithContext("filepath", filepath).
		WithDetails(fmt.Sprintf("the file %q does not exist or is not accessible", filepath))
}

// ErrFileReadFailed creates a file read error.
func ErrFileReadFailed(filepath string, cause error) *QCError {
	return NewIOError(CodeReadFailed, "failed to read file").
		WithContext("filepath", filepath).
		WithCause(cause).
		WithDetails(fmt.Sprintf("unable to read from file %q", filepath))
}

// ErrFileWriteFailed creates a file write error.
func ErrFileWriteFailed(filepath string, cause error) *QCError {
	return NewIOError(CodeWriteFailed, "failed to write file").
		WithContext("filepath", filepath).
		WithCause(cause).
		WithDetails(fmt.Sprintf("unable to write to file %q", filepath))
}

// ErrMissingConfig creates a missing-config error (E601).
func ErrMissingConfig(path string) *QCError {
	return NewConfigError(CodeMissingConfig, "configuration file missing").
		WithContext("path", path).
		WithDetails(fmt.Sprintf("no configuration found at %q; falling back to defaults", path))
}

// ErrInvalidConfig creates an invalid-config error (E602).
func ErrInvalidConfig(path string, cause error) *QCError {
	return NewConfigError(CodeInvalidConfig, "configuration is invalid").
		WithContext("path", path).
		WithCause(cause).
		WithDetails(fmt.Sprintf("configuration at %q could not be loaded", path))
}

// ErrMalformedJob creates a malformed job-document error (E401).
func ErrMalformedJob(path string, cause error) *QCError {
	return NewParseError(CodeMalformedJob, "job document is malformed").
		WithContext("path", path).
		WithCause(cause).
		WithDetails(fmt.Sprintf("unable to decode job document %q", path))
}

// ErrMalformedRules creates a malformed rules-document error (E402).
func ErrMalformedRules(path string, cause error) *QCError {
	return NewParseError(CodeMalformedConfig, "rules document is malformed").
		WithContext("path", path).
		WithCause(cause).
		WithDetails(fmt.Sprintf("unable to decode rules document %q; falling back to default rules", path))
}

// ErrUnsupportedSchema creates an unsupported-schema error (E403).
func ErrUnsupportedSchema(schema string, version int) *QCError {
	return NewParseError(CodeUnsupportedFormat, "unsupported rules schema").
		WithContext("schema", schema).
		WithContext("schemaVersion", version).
		WithDetails(fmt.Sprintf("schema %q version %d is not recognized", schema, version))
}

// ErrInvalidRule creates an invalid rule-tunable error (E301).
func ErrInvalidRule(field string, reason string) *QCError {
	return NewValidationError(CodeInvalidRule, "invalid rule tunable").
		WithContext("field", field).
		WithDetails(fmt.Sprintf("%s: %s", field, reason))
}
