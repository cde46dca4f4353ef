// Package errors defines the error taxonomy shared across para's packages.
//
// Every error a component returns that should influence CLI exit codes, MCP
// error responses, or monitor display is wrapped in an *Error with a Kind.
// Callers that only care about presentation use errors.As to recover the
// Kind; callers that need the underlying cause use errors.Unwrap (or
// errors.Is/As against it directly, since Error implements Unwrap).
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed, matching spec.md's error taxonomy.
type Kind int

const (
	// KindValidation means caller-supplied input failed a format check
	// (bad session name, invalid branch name, malformed config).
	KindValidation Kind = iota
	// KindPrecondition means the operation's preconditions were not met
	// (session not active, workspace already exists, dirty worktree on
	// cancel without --force).
	KindPrecondition
	// KindVCS means the git adapter failed.
	KindVCS
	// KindIsolation means the sandbox or container provider failed.
	KindIsolation
	// KindIO means a filesystem or state-store operation failed.
	KindIO
	// KindExternalProcess means a spawned process (agent, IDE, hook)
	// exited abnormally or could not be started.
	KindExternalProcess
)

// String renders the kind for logging and error messages.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindVCS:
		return "vcs"
	case KindIsolation:
		return "isolation"
	case KindIO:
		return "io"
	case KindExternalProcess:
		return "external_process"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the structured error type returned by para's components.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New creates an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error wrapping cause. If cause is nil, Wrap returns nil,
// allowing `return errors.Wrap(KindVCS, "...", err)` at the end of a function
// without an extra nil check.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind and Message,
// so that package-level sentinel values (e.g. vcs.ErrDirtyWorktree) compare
// equal via errors.Is even after being re-wrapped with a different Cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind && e.Message == t.Message
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to KindIO when err is not an
// *Error (e.g. a raw os.PathError that was never wrapped).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}
