// Package shellerr implements the error-kind taxonomy shared by every
// bridge, adapted from the teacher's storage-layer error taxonomy
// (server/common's per-subsystem error tables) and generalized to the
// shell's own kinds. Every error wraps through github.com/juju/errors,
// the teacher's error-annotation library, so Cause() keeps working across
// the bridge→runtime boundary.
package shellerr

import (
	stderrors "errors"
	"fmt"

	"github.com/juju/errors"
)

// Kind is one of the error kinds named in spec.md §7.
type Kind string

const (
	TypeMismatch    Kind = "TypeMismatch"
	UnknownMember   Kind = "UnknownMember"
	ArgumentError   Kind = "ArgumentError"
	InvalidCallOrder Kind = "InvalidCallOrder"
	UnboundParameter Kind = "UnboundParameter"
	UriParseError   Kind = "UriParseError"
	SqlError        Kind = "SqlError"
	SessionClosed   Kind = "SessionClosed"
	ResultShapeError Kind = "ResultShapeError"
	ResultLeak      Kind = "ResultLeak"
	Interrupted     Kind = "Interrupted"
	ProtocolError   Kind = "ProtocolError"
	Internal        Kind = "Internal"
)

// Error is a kind-tagged error whose message follows the
// "<API>: <human message>" pattern from spec.md §7.
type Error struct {
	kind    Kind
	api     string
	message string
	cause   error

	// SQL-specific detail, populated only for kind SqlError.
	ServerCode int
	SQLState   string
}

func (e *Error) Error() string {
	if e.api == "" {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.api, e.message)
}

func (e *Error) Cause() error { return e.cause }

func (e *Error) Kind() Kind { return e.kind }

// New builds a shellerr.Error and wraps it with juju/errors so the
// standard annotate/cause chain keeps working for callers upstream of the
// bridge boundary.
func New(kind Kind, api, format string, args ...interface{}) error {
	e := &Error{kind: kind, api: api, message: fmt.Sprintf(format, args...)}
	return errors.Trace(e)
}

// NewSQL builds a SqlError carrying the server code and SQLSTATE.
func NewSQL(api string, serverCode int, sqlState, message string) error {
	e := &Error{kind: SqlError, api: api, message: message, ServerCode: serverCode, SQLState: sqlState}
	return errors.Trace(e)
}

// Of unwraps err back to *Error, so tests and script-runtime adapters
// can match on Kind() regardless of which wrapping convention carried
// it across a boundary: juju/errors' Cause() (used inside this package
// and the teacher's own error-annotation calls) or the standard
// library's Unwrap() (used by go.starlark.net's EvalError and similar
// host-language exception wrappers in the script runtimes).
func Of(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		if cause := errors.Cause(err); cause != err {
			err = cause
			continue
		}
		if cause := stderrors.Unwrap(err); cause != nil {
			err = cause
			continue
		}
		return nil, false
	}
	return nil, false
}

// Is reports whether err (or a cause in its chain) carries the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := Of(err)
	return ok && e.kind == kind
}

// ArgumentKindError renders the "Argument #N is expected to be a <kind>"
// message form from spec.md §7.
func ArgumentKindError(api string, position int, kind string) error {
	return New(ArgumentError, api, "Argument #%d is expected to be a %s", position, kind)
}

// ArityError renders the "Invalid number of arguments in <API>, expected
// M to N but got K" message form from spec.md §7.
func ArityError(api string, min, max, got int) error {
	return New(ArgumentError, api, "Invalid number of arguments in %s, expected %d to %d but got %d", api, min, max, got)
}
