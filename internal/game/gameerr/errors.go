// Package gameerr defines the error taxonomy shared across the game core
// (spec §7). Handlers convert Kind into the right outward behavior: only
// ContentLoad is fatal at startup, everything else becomes a user-facing
// event or an operator-visible log line without crashing the game thread.
package gameerr

import "fmt"

// Kind classifies a game error so callers can decide how to surface it.
type Kind int

const (
	// ContentLoad is a startup-time template loading failure. Fatal.
	ContentLoad Kind = iota
	// StorageCorrupt is a durable read/write failure, operator-visible.
	StorageCorrupt
	// AuthFailed is a bad login/create attempt, user-visible and rate-limitable.
	AuthFailed
	// InvalidCommand is an unparsable or unknown verb, user-visible warning.
	InvalidCommand
	// TargetNotFound is a fuzzy-match or lookup miss, user-visible.
	TargetNotFound
	// PreconditionFailed covers SlotOccupied, NotEnoughItems,
	// QuestRequirementsUnmet, AlreadyInCombat and similar, user-visible.
	PreconditionFailed
	// Internal is a bug: the user sees a generic notice, the operator sees
	// the full error.
	Internal
)

func (k Kind) String() string {
	switch k {
	case ContentLoad:
		return "ContentLoad"
	case StorageCorrupt:
		return "StorageCorrupt"
	case AuthFailed:
		return "AuthFailed"
	case InvalidCommand:
		return "InvalidCommand"
	case TargetNotFound:
		return "TargetNotFound"
	case PreconditionFailed:
		return "PreconditionFailed"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with a Kind and an optional user-facing
// message distinct from the internal detail.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a *Error around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Newf builds a *Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, defaulting
// to Internal for anything else.
func KindOf(err error) Kind {
	var ge *Error
	if asError(err, &ge) {
		return ge.Kind
	}
	return Internal
}

func asError(err error, target **Error) bool {
	for err != nil {
		if ge, ok := err.(*Error); ok {
			*target = ge
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// UserVisible reports whether this kind of error should be translated into
// a player-facing event rather than only logged.
func (k Kind) UserVisible() bool {
	switch k {
	case AuthFailed, InvalidCommand, TargetNotFound, PreconditionFailed:
		return true
	default:
		return false
	}
}
