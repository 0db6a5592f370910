package apierrors

import (
	"fmt"
	"net/http"
)

// Error codes returned to API clients. Machine-readable, stable across
// releases.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeRecipientNotFound   = "RECIPIENT_NOT_FOUND"
	CodeCampaignNotFound    = "CAMPAIGN_NOT_FOUND"
	CodeConditionNotFound   = "CONDITION_NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidEventType    = "INVALID_EVENT_TYPE"
	CodeSMSServiceError     = "SMS_SERVICE_ERROR"
	CodeEmailServiceError   = "EMAIL_SERVICE_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// APIError carries an HTTP status, a machine-readable code and a
// client-safe message. The wrapped internal error is logged, never
// serialized.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 APIError
func NotFound(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusNotFound, Code: code, Message: message}
}

// BadRequest creates a 400 APIError
func BadRequest(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Code: code, Message: message}
}

// Conflict creates a 409 APIError
func Conflict(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusConflict, Code: code, Message: message}
}

// ServiceUnavailable creates a 503 APIError wrapping the provider error
func ServiceUnavailable(code, message string, err error) *APIError {
	return &APIError{StatusCode: http.StatusServiceUnavailable, Code: code, Message: message, Err: err}
}

// InternalError creates a sanitized 500 APIError. Internal details stay in
// the wrapped error.
func InternalError(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternalError,
		Message:    "An internal error occurred. Please try again later.",
		Err:        err,
	}
}
