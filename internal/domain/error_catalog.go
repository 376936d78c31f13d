package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes for different categories
const (
	// Search Errors (1xxx)
	ErrCodeSearchUnreachable ErrorCode = "SEARCH_1001"
	ErrCodeSearchFailed      ErrorCode = "SEARCH_1002"

	// Render Errors (2xxx)
	ErrCodeTemplateMissing ErrorCode = "RENDER_2001"
	ErrCodeRenderFailed    ErrorCode = "RENDER_2002"

	// Mail Errors (3xxx)
	ErrCodeMailAuth      ErrorCode = "MAIL_3001"
	ErrCodeMailRejected  ErrorCode = "MAIL_3002"
	ErrCodeMailTransport ErrorCode = "MAIL_3003"
	ErrCodeMailBuild     ErrorCode = "MAIL_3004"

	// Configuration Errors (4xxx)
	ErrCodeConfiguration ErrorCode = "CONFIG_4001"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Search errors
func ErrSearchUnreachable(url string, cause error) *AppError {
	return NewAppError(ErrCodeSearchUnreachable, "Search backend is not reachable", fmt.Sprintf("URL: %s", url), cause)
}

func ErrSearchFailed(index string, cause error) *AppError {
	return NewAppError(ErrCodeSearchFailed, "Search query failed", fmt.Sprintf("Index: %s", index), cause)
}

// Render errors
func ErrTemplateMissing(name string, cause error) *AppError {
	return NewAppError(ErrCodeTemplateMissing, "Report template could not be loaded", fmt.Sprintf("Template: %s", name), cause)
}

func ErrRenderFailed(name string, cause error) *AppError {
	return NewAppError(ErrCodeRenderFailed, "Report rendering failed", fmt.Sprintf("Template: %s", name), cause)
}

// Mail errors
func ErrMailAuth(details string, cause error) *AppError {
	return NewAppError(ErrCodeMailAuth, "Mail API authentication failed", details, cause)
}

func ErrMailRejected(status int, code, message string) *AppError {
	return NewAppError(ErrCodeMailRejected, "sendMail failed", fmt.Sprintf("Status: %d, Code: %s, Message: %s", status, code, message), nil)
}

func ErrMailTransport(cause error) *AppError {
	return NewAppError(ErrCodeMailTransport, "Send mail failed with error", "", cause)
}

func ErrMailBuild(cause error) *AppError {
	return NewAppError(ErrCodeMailBuild, "Could not build MIME message", "", cause)
}

// Configuration errors
func ErrConfiguration(details string) *AppError {
	return NewAppError(ErrCodeConfiguration, "Configuration error", details, nil)
}

// ErrorCodeOf returns the code of the first AppError in the chain, or "".
func ErrorCodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsDeliveryError reports whether err belongs to the mail delivery family.
// Delivery errors are logged and the run continues; all others abort it.
func IsDeliveryError(err error) bool {
	return strings.HasPrefix(string(ErrorCodeOf(err)), "MAIL_")
}
