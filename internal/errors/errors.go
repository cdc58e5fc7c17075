// Package errors defines the normalized error shape returned by the request pipeline
// and the API surface built on top of it.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind represents a category of client-side failure.
type Kind string

const (
	// KindValidation indicates a request rejected locally before any network activity.
	KindValidation Kind = "validation"
	// KindFingerprint indicates an authenticated request without a readable client fingerprint.
	KindFingerprint Kind = "fingerprint"
	// KindNetwork indicates the request produced no response (timeout, offline, unreachable).
	KindNetwork Kind = "network"
	// KindHTTP indicates a response was received but was not a success.
	KindHTTP Kind = "http"
	// KindUnauthorized is the 401 specialization of KindHTTP.
	KindUnauthorized Kind = "unauthorized"
	// KindRequest indicates the request could not be prepared (encoding, URL, session read).
	KindRequest Kind = "request"
)

// Sentinel causes for KindNetwork errors. Use errors.Is to tell them apart.
var (
	ErrTimeout     = errors.New("timeout")
	ErrOffline     = errors.New("offline")
	ErrUnreachable = errors.New("unreachable")
	ErrCanceled    = errors.New("canceled")
)

// AppError is the single error shape every pipeline failure converges to.
// Status and Code are optional: Status is zero when no HTTP response was received and
// Code is nil when the backend did not report a business code.
type AppError struct {
	// Kind categorizes the failure
	Kind Kind
	// Message is the user-facing message; callers render it as-is
	Message string
	// Status is the HTTP status code, 0 when absent
	Status int
	// Code is the backend business code, nil when absent
	Code *int
	// Field is the offending field for validation errors (optional)
	Field string
	// Cause is the underlying error (optional)
	Cause error
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

// normalized is the wire shape of an AppError.
type normalized struct {
	Success bool   `json:"success"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Code    *int   `json:"code,omitempty"`
}

// MarshalJSON renders the error as {success:false, status?, message, code?}.
func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(normalized{
		Success: false,
		Status:  e.Status,
		Message: e.Message,
		Code:    e.Code,
	})
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: message,
		Field:   field,
	}
}

// Fingerprint creates a FingerprintPolicy error.
func Fingerprint(message string, cause error) *AppError {
	return &AppError{
		Kind:    KindFingerprint,
		Message: message,
		Cause:   cause,
	}
}

// Network creates a no-response error. cause should be one of the network sentinels.
func Network(message string, cause error) *AppError {
	return &AppError{
		Kind:    KindNetwork,
		Message: message,
		Cause:   cause,
	}
}

// HTTP creates an error for a received non-success response.
func HTTP(status int, message string, code *int) *AppError {
	return &AppError{
		Kind:    KindHTTP,
		Message: message,
		Status:  status,
		Code:    code,
	}
}

// Unauthorized creates the 401 specialization of an HTTP error.
func Unauthorized(status int, message string, code *int) *AppError {
	return &AppError{
		Kind:    KindUnauthorized,
		Message: message,
		Status:  status,
		Code:    code,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, kind Kind, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) *AppError {
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// CodePtr returns a pointer to a business code.
func CodePtr(code int) *int {
	return &code
}

func isKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isKind(err, KindValidation)
}

// IsFingerprint checks if an error is a FingerprintPolicy error.
func IsFingerprint(err error) bool {
	return isKind(err, KindFingerprint)
}

// IsNetwork checks if an error is a no-response error.
func IsNetwork(err error) bool {
	return isKind(err, KindNetwork)
}

// IsHTTP checks if an error carries a received HTTP response, including 401s.
func IsHTTP(err error) bool {
	return isKind(err, KindHTTP) || isKind(err, KindUnauthorized)
}

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool {
	return isKind(err, KindUnauthorized)
}

// IsPreflight reports whether the error was raised before any network activity.
func IsPreflight(err error) bool {
	return isKind(err, KindValidation) || isKind(err, KindFingerprint) || isKind(err, KindRequest)
}

// GetKind returns the Kind from an error, or empty string if not an AppError.
func GetKind(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// Normalize converts any error into an AppError. Errors that are already AppErrors are
// returned unchanged; anything else becomes a KindRequest error.
func Normalize(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, KindRequest, "request failed")
}
