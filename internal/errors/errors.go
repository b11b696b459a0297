// Package errors defines the structured error taxonomy shared by the fetch bot.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeUnknownStream indicates the command named a stream outside the catalog.
	ErrCodeUnknownStream ErrorCode = "unknown_stream"
	// ErrCodeDateFormat indicates the date range token could not be parsed.
	ErrCodeDateFormat ErrorCode = "date_format"
	// ErrCodeConfigurationMissing indicates a required credential or setting is absent.
	ErrCodeConfigurationMissing ErrorCode = "configuration_missing"
	// ErrCodeJobStartFailed indicates the vendor never produced a job id.
	ErrCodeJobStartFailed ErrorCode = "job_start_failed"
	// ErrCodePollTransient indicates a status poll failed and should be retried.
	ErrCodePollTransient ErrorCode = "poll_transient"
	// ErrCodeNotificationDeliveryFailed indicates every delivery method failed.
	ErrCodeNotificationDeliveryFailed ErrorCode = "notification_delivery_failed"
	// ErrCodeAuditLogFailure indicates the spreadsheet log could not be written or read.
	ErrCodeAuditLogFailure ErrorCode = "audit_log_failure"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUnauthorized indicates the shared token did not match.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
	// Hint is an optional usage hint shown to the requester next to Message.
	Hint string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// UnknownStream creates an error for a stream name outside the catalog.
// The message lists the valid names in alphabetical order.
func UnknownStream(name string, valid []string) *AppError {
	names := append([]string(nil), valid...)
	sort.Strings(names)
	return &AppError{
		Code:    ErrCodeUnknownStream,
		Message: fmt.Sprintf("unknown stream %q (valid streams: %s)", name, strings.Join(names, ", ")),
		Field:   "stream",
	}
}

// DateFormat creates a date parsing error with a reason and usage hint.
func DateFormat(reason, hint string) *AppError {
	return &AppError{
		Code:    ErrCodeDateFormat,
		Message: reason,
		Field:   "date_range",
		Hint:    hint,
	}
}

// ConfigurationMissing creates an error naming the absent configuration keys.
func ConfigurationMissing(keys ...string) *AppError {
	return &AppError{
		Code:    ErrCodeConfigurationMissing,
		Message: "missing configuration: " + strings.Join(keys, ", "),
	}
}

// JobStartFailed creates an error for a trigger call that produced no job id.
func JobStartFailed(detail string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeJobStartFailed,
		Message: detail,
		Cause:   cause,
	}
}

// PollTransient wraps a recoverable status poll failure.
func PollTransient(cause error, format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodePollTransient,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// NotificationDeliveryFailed wraps the last error of an exhausted delivery chain.
func NotificationDeliveryFailed(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeNotificationDeliveryFailed,
		Message: "notification delivery failed",
		Cause:   cause,
	}
}

// AuditLogFailure wraps a failed spreadsheet operation.
func AuditLogFailure(op string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeAuditLogFailure,
		Message: "audit log " + op,
		Cause:   cause,
	}
}

// Unauthorized creates an error for a failed shared-token check.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsUnknownStream checks if an error is an UnknownStream error.
func IsUnknownStream(err error) bool {
	return isCode(err, ErrCodeUnknownStream)
}

// IsDateFormat checks if an error is a DateFormat error.
func IsDateFormat(err error) bool {
	return isCode(err, ErrCodeDateFormat)
}

// IsConfigurationMissing checks if an error is a ConfigurationMissing error.
func IsConfigurationMissing(err error) bool {
	return isCode(err, ErrCodeConfigurationMissing)
}

// IsJobStartFailed checks if an error is a JobStartFailed error.
func IsJobStartFailed(err error) bool {
	return isCode(err, ErrCodeJobStartFailed)
}

// IsPollTransient checks if an error is a PollTransient error.
func IsPollTransient(err error) bool {
	return isCode(err, ErrCodePollTransient)
}

// IsNotificationDeliveryFailed checks if an error is a NotificationDeliveryFailed error.
func IsNotificationDeliveryFailed(err error) bool {
	return isCode(err, ErrCodeNotificationDeliveryFailed)
}

// IsAuditLogFailure checks if an error is an AuditLogFailure error.
func IsAuditLogFailure(err error) bool {
	return isCode(err, ErrCodeAuditLogFailure)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool {
	return isCode(err, ErrCodeUnauthorized)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetHint returns the usage hint from an error, or empty string if none is set.
func GetHint(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Hint
	}
	return ""
}

// GetMessage returns the AppError message without its cause, falling back to err.Error().
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
