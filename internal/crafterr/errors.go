// Package crafterr defines the error kinds shared by the mapping engine,
// the adapter generator and their collaborators.
package crafterr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure by the stage that produced it.
type Kind string

const (
	// KindParse marks a malformed input spec. It aborts one file's contribution.
	KindParse Kind = "parse"
	// KindMapping is reserved for rule-application failures.
	KindMapping Kind = "mapping"
	// KindGeneration marks an unsupported output language or a rendering failure.
	KindGeneration Kind = "generation"
	// KindOracle marks a failed or invalid AI oracle exchange.
	KindOracle Kind = "oracle"
	// KindConfig marks missing or invalid configuration, such as a credential.
	KindConfig Kind = "config"
	// KindIO marks persistence failures.
	KindIO Kind = "io"
	// KindSerialization marks encode/decode failures of rules or specs.
	KindSerialization Kind = "serialization"
	// KindTemplate marks prompt or text template failures.
	KindTemplate Kind = "template"
)

var (
	// ErrUnsupportedFormat is returned for output languages the generator does not know.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrOracleUnavailable is returned by the default oracle.
	ErrOracleUnavailable = errors.New("ai oracle unavailable")
	// ErrMissingCredential is returned when an oracle backend needs an API key.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidResponse is returned when oracle output fails validation.
	ErrInvalidResponse = errors.New("invalid oracle response")
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error from a message.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: pkgerrors.New(msg)}
}

// Newf creates a classified error from a format string.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: pkgerrors.Errorf(format, args...)}
}

// Wrap classifies err, recording a stack at the wrap site.
// A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: pkgerrors.WithStack(err)}
}

// Wrapf classifies err with an additional message.
func Wrapf(kind Kind, op string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: pkgerrors.Wrapf(err, format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain,
// or the empty Kind if err carries none.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
