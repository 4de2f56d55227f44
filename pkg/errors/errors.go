// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with a Wrap() method to wrap errors without resorting
// to fmt.Errorf("%w", err).
//
// Errors created with New are meant to be used as sentinels: wrapping
// or decorating a sentinel returns a copy which still matches the sentinel
// with Is. A sentinel may declare sub-kinds with Sub: an error of the
// sub-kind matches both the sub-kind and its parent.
package errors

import (
	stderr "errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var _ error = New("")

// New Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error augments the standard error interface with a Wrap method.
//
// The main difference with github.com/pkg/errors is that we are wrapping
// errors from errors, not from text.
type Error struct {
	msg    string
	err    error
	kind   *Error // the sentinel this error was derived from
	parent *Error // set on sub-kinds
}

// Error message
func (e *Error) Error() string {
	return e.msg
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a nested error.
//
// The receiver is left unchanged: a copy bearing the same kind is returned.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, kind: e.sentinel()}
}

// WrapMessage decorates the error message with some formatted details
func (e *Error) WrapMessage(format string, args ...interface{}) *Error {
	return &Error{
		msg:  e.msg + ": " + fmt.Sprintf(format, args...),
		err:  e.err,
		kind: e.sentinel(),
	}
}

// WrapWithLog logs the nested error before wrapping it
func (e *Error) WrapWithLog(l *zap.Logger, err error, fields ...zap.Field) *Error {
	if l != nil {
		l.Error(e.msg, append(fields, zap.Error(err))...)
	}
	return e.Wrap(err)
}

// Sub declares a new kind of error, which is also of the kind of the receiver
func (e *Error) Sub(msg string) *Error {
	return &Error{msg: msg, parent: e.sentinel()}
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	for k := e.sentinel(); k != nil; k = k.parent {
		if k == t {
			return true
		}
	}
	return e == t
}

func (e *Error) sentinel() *Error {
	if e.kind != nil {
		return e.kind
	}
	return e
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.As)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}

// Details renders the messages of all errors in the chain, outermost first
func Details(err error) string {
	var parts []string
	for current := err; current != nil; current = stderr.Unwrap(current) {
		msg := current.Error()
		if len(parts) > 0 && strings.HasSuffix(parts[len(parts)-1], msg) {
			// fmt.Errorf("...: %w") already carries the nested message
			continue
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "\n  caused by: ")
}
