package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a category of application error. The HTTP layer maps
// each code to a status; services only ever deal in codes.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeProfileNotFound Code = "PROFILE_NOT_FOUND"
	CodeSlotConflict    Code = "SLOT_CONFLICT"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidation      Code = "VALIDATION_FAILURE"
	CodeStorage         Code = "STORAGE_FAILURE"
)

// AppError represents an application error
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error's code.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeProfileNotFound:
		return http.StatusNotFound
	case CodeSlotConflict, CodeAlreadyExists:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func Unauthenticated(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func ProfileNotFound(profile string) *AppError {
	return &AppError{Code: CodeProfileNotFound, Message: fmt.Sprintf("%s profile not found", profile)}
}

func SlotConflict(message string) *AppError {
	return &AppError{Code: CodeSlotConflict, Message: message}
}

func AlreadyExists(message string) *AppError {
	return &AppError{Code: CodeAlreadyExists, Message: message}
}

func NotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Validation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func Storage(err error) *AppError {
	return &AppError{Code: CodeStorage, Message: "storage failure", Err: err}
}

// CodeOf extracts the application code from err, or CodeStorage when err
// is not an AppError.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeStorage
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
