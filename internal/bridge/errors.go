package bridge

import (
	"errors"
	"fmt"
)

// Kind classifies a failed command.
type Kind string

const (
	KindInvalidCommand    Kind = "invalid_command"
	KindSessionLaunch     Kind = "session_launch_failure"
	KindNavigationTimeout Kind = "navigation_timeout"
	KindExecution         Kind = "execution_failure"
	KindInternal          Kind = "internal_failure"
	KindOverloaded        Kind = "overloaded"
)

// Error is returned by Solve for every failure. Message is what the caller
// sees; Err keeps the cause for errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

func invalidf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidCommand, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind carried by err, or KindInternal for errors that
// did not come out of Solve.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}
