package tal

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies render failures.
type ErrorKind string

const (
	KindParse            ErrorKind = "parse"
	KindTemplateNotFound ErrorKind = "template_not_found"
	KindStructural       ErrorKind = "structural"
	KindUnknownModifier  ErrorKind = "unknown_modifier"
	KindRecursion        ErrorKind = "recursion"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrParse            = &Error{Kind: KindParse}
	ErrTemplateNotFound = &Error{Kind: KindTemplateNotFound}
	ErrRecursion        = &Error{Kind: KindRecursion}
)

// Error is the structured error returned from the render entry points.
// Structural mismatches and unknown modifiers are logged, not returned, so
// only parse, lookup and recursion kinds reach callers.
type Error struct {
	Kind     ErrorKind
	Template string
	Err      error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Template != "" {
		msg += fmt.Sprintf(" %q", e.Template)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause lets errors.Cause reach the underlying failure.
func (e *Error) Cause() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if stderrors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind ErrorKind, template string, err error) error {
	return errors.WithStack(&Error{Kind: kind, Template: template, Err: err})
}

func parseError(template string, err error) error {
	return newError(KindParse, template, err)
}

func notFoundError(template string) error {
	return newError(KindTemplateNotFound, template, nil)
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
