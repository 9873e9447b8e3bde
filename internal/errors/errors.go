package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so a wrapped sentinel still compares equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrStorageUnavailable = &AppError{Code: "STORAGE_001", Message: "secure storage unavailable"}
	ErrStorageCorrupted   = &AppError{Code: "STORAGE_002", Message: "stored value corrupted"}

	ErrNetwork         = &AppError{Code: "API_001", Message: "network error"}
	ErrRequestRejected = &AppError{Code: "API_002", Message: "request failed"}
	ErrInvalidResponse = &AppError{Code: "API_003", Message: "invalid response"}
	ErrCircuitOpen     = &AppError{Code: "API_004", Message: "service temporarily unavailable"}
	ErrRateLimited     = &AppError{Code: "API_005", Message: "rate limit exceeded"}

	ErrInvalidFeedback  = &AppError{Code: "FEEDBACK_001", Message: "invalid feedback"}
	ErrFeedbackNotFound = &AppError{Code: "FEEDBACK_002", Message: "feedback not found"}

	ErrUnauthorized       = &AppError{Code: "AUTH_001", Message: "unauthorized"}
	ErrInvalidCredentials = &AppError{Code: "AUTH_002", Message: "invalid credentials"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
)

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithCause returns a copy of the sentinel carrying cause.
func (e *AppError) WithCause(cause error) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Cause: cause}
}

// WithMessage returns a copy of the sentinel with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{Code: e.Code, Message: message, Cause: e.Cause}
}
