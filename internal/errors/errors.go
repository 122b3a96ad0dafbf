package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeMalformed indicates a request line that failed framing checks
	ErrorTypeMalformed ErrorType = "MALFORMED"
	// ErrorTypeInvalidCommand indicates a well-framed request with an unknown command code
	ErrorTypeInvalidCommand ErrorType = "INVALID_COMMAND"
	// ErrorTypeNotFound indicates the requested tuple was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeAlreadyExists indicates a PUT on a key that is already stored
	ErrorTypeAlreadyExists ErrorType = "ALREADY_EXISTS"
	// ErrorTypeInvalidInput indicates invalid input parameters
	ErrorTypeInvalidInput ErrorType = "INVALID_INPUT"
	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
	// ErrorTypeIO indicates a connection-level read or write failure
	ErrorTypeIO ErrorType = "IO"
)

// KVError represents a custom error with additional context
type KVError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   string
}

// Error implements the error interface
func (e *KVError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *KVError) Unwrap() error {
	return e.Err
}

// New creates a new KVError
func New(errType ErrorType, message string, err error) *KVError {
	// Capture stack trace
	_, file, line, _ := runtime.Caller(1)
	stack := fmt.Sprintf("%s:%d", file, line)

	return &KVError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// TypeOf returns the ErrorType of the first KVError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var kvErr *KVError
	if stderrors.As(err, &kvErr) {
		return kvErr.Type
	}
	return ""
}

// IsMalformed checks if the error is a framing error
func IsMalformed(err error) bool {
	return TypeOf(err) == ErrorTypeMalformed
}

// IsInvalidCommand checks if the error is an unknown command error
func IsInvalidCommand(err error) bool {
	return TypeOf(err) == ErrorTypeInvalidCommand
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsAlreadyExists checks if the error is a duplicate key error
func IsAlreadyExists(err error) bool {
	return TypeOf(err) == ErrorTypeAlreadyExists
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return TypeOf(err) == ErrorTypeInvalidInput
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return TypeOf(err) == ErrorTypeInternal
}

// IsIO checks if the error is a connection I/O error
func IsIO(err error) bool {
	return TypeOf(err) == ErrorTypeIO
}

// RecoverError recovers from a panic and converts it to a KVError
func RecoverError(r interface{}) error {
	if r == nil {
		return nil
	}

	var err error
	switch v := r.(type) {
	case error:
		err = v
	case string:
		err = fmt.Errorf("%s", v)
	default:
		err = fmt.Errorf("%v", v)
	}

	return New(ErrorTypeInternal, "recovered from panic", err)
}
