package store

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Code is the stable tag carried by every storage error.
type Code string

const (
	CodeInternal               Code = "db.internal_error"
	CodeInvalidIteratorOptions Code = "db.invalid_iterator_options"
	CodeNotFound               Code = "not_found"
	CodeLockTimeout            Code = "db.lock_timeout"
	CodeClosed                 Code = "db.closed"
)

// Error is a storage failure with a code the binding layer can switch on.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so the sentinels below can be
// used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInternal               = &Error{Code: CodeInternal, Message: "internal error"}
	ErrInvalidIteratorOptions = &Error{Code: CodeInvalidIteratorOptions, Message: "invalid iterator options"}
	ErrNotFound               = &Error{Code: CodeNotFound, Message: "key not found"}
	ErrLockTimeout            = &Error{Code: CodeLockTimeout, Message: "timed out waiting for the transaction lock"}
	ErrClosed                 = &Error{Code: CodeClosed, Message: "database is closed"}
)

func internalError(err error, format string, args ...interface{}) error {
	return &Error{
		Code:    CodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     errors.WithStack(err),
	}
}

func invalidOptions(message string) error {
	return &Error{Code: CodeInvalidIteratorOptions, Message: message}
}

// CodeOf returns the code of the first *Error in err's chain, CodeInternal
// for foreign errors, and the empty code for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
