package http

import "github.com/pkg/errors"

// Kind categorizes failures of reading or writing a message.
// A Kind is itself an error so that errors.Is(err, ParseError) works.
type Kind uint8

const (
	// Malformed request line, field line or query, or an unknown method/version.
	ParseError Kind = iota + 1
	// Bytes that were expected to be text are not valid UTF-8.
	EncodingError
	// The underlying stream failed, including a peer disconnecting mid-message.
	IOError
)

func (k Kind) Error() string {
	switch k {
	case ParseError:
		return "parse error"
	case EncodingError:
		return "encoding error"
	case IOError:
		return "i/o error"
	}
	return "unclassified"
}

type Error struct {
	Kind  Kind
	cause error
}

func newError(kind Kind, cause error) error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.cause.Error() }
func (e *Error) Unwrap() error { return e.cause }
func (e *Error) Cause() error  { return e.cause }

func (e *Error) Is(target error) bool {
	kind, ok := target.(Kind)
	return ok && kind == e.Kind
}

// KindOf returns the [Kind] of err, or zero if err was not produced by this package.
// The zero Kind matches no category and prints as "unclassified".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
