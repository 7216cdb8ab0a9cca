package errors

import "fmt"

// ErrorCode represents a memcap error code.
type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"       // 400: missing or malformed argument
	ErrNotFound             ErrorCode = "NOT_FOUND"             // 404: capsule does not exist
	ErrConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED" // 412: destructive op without confirm
	ErrCapsuleAccess        ErrorCode = "CAPSULE_ACCESS"        // 502: engine open/create/store/find failed
	ErrUnknownOperation     ErrorCode = "UNKNOWN_OPERATION"     // 400: unrecognized tool name
	ErrInternal             ErrorCode = "INTERNAL"              // 500
)

// Error is a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a capsule that does not exist.
func NewNotFound(name string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("capsule not found: %s", name),
		Details: map[string]any{"capsule": name},
	}
}

// NewConfirmationRequired creates a 412 error for a destructive operation
// attempted without the explicit confirm flag.
func NewConfirmationRequired(op string) *Error {
	return &Error{
		Code:    ErrConfirmationRequired,
		Status:  412,
		Message: fmt.Sprintf("%s requires confirm=true", op),
	}
}

// NewCapsuleAccess wraps an engine failure with the capsule name.
// The underlying error text is preserved, never replaced.
func NewCapsuleAccess(name string, err error) *Error {
	return &Error{
		Code:    ErrCapsuleAccess,
		Status:  502,
		Message: fmt.Sprintf("failed to access capsule %q: %v", name, err),
		Details: map[string]any{"capsule": name},
	}
}

// NewUnknownOperation creates a 400 error for an unrecognized tool name.
func NewUnknownOperation(op string) *Error {
	return &Error{
		Code:    ErrUnknownOperation,
		Status:  400,
		Message: fmt.Sprintf("unknown operation: %s", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
