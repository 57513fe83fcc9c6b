package apperr

import "fmt"

// Code is the machine-readable status carried by every application error.
type Code string

const (
	CodeValidation       Code = "VALIDATION"
	CodeNotFound         Code = "NOT_FOUND"
	CodeDuplicateRequest Code = "DUPLICATE_REQUEST"
	CodeInvalidState     Code = "INVALID_STATE"
	CodeInvalidClaim     Code = "INVALID_CLAIM"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeUpstream         Code = "UPSTREAM_FAILURE"
)

// Error pairs a machine status with a human message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// Is matches two application errors by code, so package-level sentinels
// like ErrRoomNotFound compare against wrapped instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || t.Message == e.Message)
}

// WithCause returns a copy of e carrying err as its cause.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Validation(message string) *Error       { return New(CodeValidation, message) }
func NotFound(message string) *Error         { return New(CodeNotFound, message) }
func DuplicateRequest(message string) *Error { return New(CodeDuplicateRequest, message) }
func InvalidState(message string) *Error     { return New(CodeInvalidState, message) }
func InvalidClaim(message string) *Error     { return New(CodeInvalidClaim, message) }
func Unauthorized(message string) *Error     { return New(CodeUnauthorized, message) }
func Upstream(message string) *Error         { return New(CodeUpstream, message) }
