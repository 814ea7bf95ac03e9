package campus

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown              Code = "UNKNOWN"
	CodeNotFound             Code = "NOT_FOUND"
	CodeCrossCollegeMismatch Code = "CROSS_COLLEGE_MISMATCH"
	CodeCapacityExceeded     Code = "CAPACITY_EXCEEDED"
	CodeInvalidRating        Code = "INVALID_RATING"
	CodeRegistrationNotFound Code = "REGISTRATION_NOT_FOUND"
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeConflict             Code = "CONFLICT"
)

// HTTPStatus maps a code to the status the API answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, CodeRegistrationNotFound:
		return http.StatusNotFound
	case CodeCrossCollegeMismatch, CodeInvalidRating, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeCapacityExceeded, CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a caller-input error with a code and a descriptive message.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound             = &Error{Code: CodeNotFound, Message: "not found"}
	ErrCrossCollegeMismatch = &Error{Code: CodeCrossCollegeMismatch, Message: "student and event must be in the same college"}
	ErrCapacityExceeded     = &Error{Code: CodeCapacityExceeded, Message: "event capacity reached"}
	ErrInvalidRating        = &Error{Code: CodeInvalidRating, Message: "rating must be an integer between 1 and 5"}
	ErrRegistrationNotFound = &Error{Code: CodeRegistrationNotFound, Message: "matching registration not found"}
	ErrInvalidInput         = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrConflict             = &Error{Code: CodeConflict, Message: "conflict"}
)

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf returns the code of err, or CodeUnknown when err is not a campus error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
