package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeInvalidInput      ErrorType = "INVALID_INPUT"
	ErrTypeInternal          ErrorType = "INTERNAL"
	ErrTypeUnavailable       ErrorType = "UNAVAILABLE"
	ErrTypeRateLimit         ErrorType = "RATE_LIMIT"
	ErrTypeEmbeddingFailure  ErrorType = "EMBEDDING_FAILURE"
	ErrTypeMalformedResponse ErrorType = "MALFORMED_RESPONSE"
	ErrTypeJobNotFound       ErrorType = "JOB_NOT_FOUND"
)

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// IsType reports whether any error in err's chain is a DomainError of type t.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	for err != nil {
		if !stderrors.As(err, &de) {
			return false
		}
		if de.Type == t {
			return true
		}
		err = de.Err
	}
	return false
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

func Unavailable(message string, err error) *DomainError {
	return New(ErrTypeUnavailable, message, err)
}

func RateLimit(message string, err error) *DomainError {
	return New(ErrTypeRateLimit, message, err)
}

// EmbeddingFailure marks an embedding request that could not produce a vector.
func EmbeddingFailure(message string, err error) *DomainError {
	return New(ErrTypeEmbeddingFailure, message, err)
}

// MalformedResponse marks a remote model reply missing its required fields.
func MalformedResponse(message string, err error) *DomainError {
	return New(ErrTypeMalformedResponse, message, err)
}

func JobNotFound(title string) *DomainError {
	return New(ErrTypeJobNotFound, fmt.Sprintf("no posting titled %q", title), nil)
}
