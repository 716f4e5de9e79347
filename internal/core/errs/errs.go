// Package errs classifies failures so front ends can branch on a kind
// instead of parsing messages.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the failure classification
type Kind int

const (
	Unknown Kind = iota
	NotFound
	Validation
	Upstream
	PartialFailure
	NothingToSearch
	Config
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Validation:
		return "validation failure"
	case Upstream:
		return "upstream failure"
	case PartialFailure:
		return "partial failure"
	case NothingToSearch:
		return "nothing to search"
	case Config:
		return "configuration error"
	default:
		return "error"
	}
}

var (
	ErrClassNotFound   = errors.New("class not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrNothingToSearch = errors.New("nothing to search")
)

// Error carries a Kind plus the identifiers involved
type Error struct {
	Kind      Kind
	Op        string
	ClassID   string
	SessionID string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(e.Kind.String())
	}
	var ids []string
	if e.ClassID != "" {
		ids = append(ids, "class="+e.ClassID)
	}
	if e.SessionID != "" {
		ids = append(ids, "session="+e.SessionID)
	}
	if len(ids) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ids, " "))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an *Error. ids are class ID then session ID, both optional.
func E(kind Kind, op string, err error, ids ...string) *Error {
	e := &Error{Kind: kind, Op: op, Err: err}
	if len(ids) > 0 {
		e.ClassID = ids[0]
	}
	if len(ids) > 1 {
		e.SessionID = ids[1]
	}
	return e
}

// Validationf is shorthand for a Validation error with a formatted message
func Validationf(op, format string, args ...any) *Error {
	return E(Validation, op, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrClassNotFound), errors.Is(err, ErrSessionNotFound):
		return NotFound
	case errors.Is(err, ErrNothingToSearch):
		return NothingToSearch
	}
	return Unknown
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
