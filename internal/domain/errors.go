package domain

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure or recovered condition
type Kind string

const (
	// KindMissingInput is a device directory without its config artifact
	KindMissingInput Kind = "missing_input"
	// KindUnresolvableReference is an interface name that cannot be looked up
	KindUnresolvableReference Kind = "unresolvable_reference"
	// KindNoPath is a demand trial between disconnected devices
	KindNoPath Kind = "no_path"
	// KindConfigRoot is a missing or unreadable configuration root
	KindConfigRoot Kind = "config_root"
	KindParse      Kind = "parse"
	KindCollect    Kind = "collect"
	KindExport     Kind = "export"
)

// ErrNotFound is returned by lookups that find nothing
var ErrNotFound = errors.New("not found")

// Error wraps an underlying error with a Kind and the failing operation
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError creates an error of the given kind
func NewError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether any error in the chain carries the kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
