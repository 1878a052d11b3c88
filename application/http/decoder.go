package http

import (
	"bytes"
	"io"
	"unicode/utf8"

	"http-conn/application/util/rule"
	iolib "http-conn/lib/io"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies whether a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// MaxRequestLineLength sets the limit of request line length, terminator included.
	// Zero means no limit.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-5
	MaxRequestLineLength uint

	// MaxFieldLineLength sets the limit of field line length on headers, terminator included.
	// Zero means no limit.
	MaxFieldLineLength uint

	// MaxFieldCount sets the limit of field lines in a header block.
	// Zero means no limit.
	MaxFieldCount uint
}

var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:          false,
	MaxRequestLineLength: 8000,
	MaxFieldLineLength:   8000,
	MaxFieldCount:        100,
}

type MessageDecoder struct {
	r    *iolib.UntilReader
	opts DecodeOptions
}

var (
	errLineTooLong       = errors.New("line length exceeds limit")
	ErrMissingCRBeforeLF = errors.New("missing CR before LF")
	ErrInvalidUTF8       = errors.New("line is not valid utf-8")
)

// readLine reads a line and strips its terminator.
func (md *MessageDecoder) readLine(limit uint) ([]byte, error) {
	b, err := md.r.ReadUntilLimit([]byte{rule.LF}, limit)
	if err != nil {
		if errors.Is(err, iolib.ErrLimitExceeded) {
			return nil, errLineTooLong
		}
		if errors.Is(err, io.EOF) {
			// The peer went away in the middle of a message.
			err = io.ErrUnexpectedEOF
		}
		return nil, newError(IOError, err)
	}

	b = b[:len(b)-1] // Remove LF.

	if len(b) > 0 && b[len(b)-1] == rule.CR {
		b = b[:len(b)-1] // Remove CR.
	} else if !md.opts.AllowSoleLF {
		return nil, newError(ParseError, ErrMissingCRBeforeLF)
	}

	if !utf8.Valid(b) {
		return nil, newError(EncodingError, errors.Wrapf(ErrInvalidUTF8, "%q", b))
	}

	return b, nil
}

var (
	ErrFieldLineTooLong   = errors.New("field line length exceeds limit")
	ErrMalformedFieldLine = errors.New("field line is malformed")
	ErrTooManyFields      = errors.New("too many field lines")
)

// decodeHeaders reads field lines until an empty line.
func (md *MessageDecoder) decodeHeaders() (map[string]string, error) {
	headers := make(map[string]string)
	for count := uint(0); ; count++ {
		fieldLine, err := md.readLine(md.opts.MaxFieldLineLength)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return nil, newError(ParseError, ErrFieldLineTooLong)
			}
			return nil, errors.Wrap(err, "reading line")
		}

		if len(fieldLine) == 0 {
			// An empty line. This means that there are no more headers.
			break
		}

		if md.opts.MaxFieldCount > 0 && count >= md.opts.MaxFieldCount {
			return nil, newError(ParseError, ErrTooManyFields)
		}

		name, value, err := ParseField(fieldLine)
		if err != nil {
			return nil, newError(ParseError, err)
		}

		// Later fields overwrite earlier ones.
		headers[name] = value
	}

	return headers, nil
}

// ParseField splits a field line on the first colon.
// Colons in the value are kept. A single SP after the colon is dropped,
// any other whitespace stays.
func ParseField(fieldLine []byte) (name, value string, err error) {
	n, v, found := bytes.Cut(fieldLine, []byte{rule.Colon})
	if !found {
		return "", "", errors.Wrapf(ErrMalformedFieldLine, "colon separator not found on header: %q", fieldLine)
	}

	v = bytes.TrimPrefix(v, []byte{rule.SP})

	return string(n), string(v), nil
}

var (
	ErrRequestLineTooLong   = errors.New("request line length exceeds limit")
	ErrMalformedRequestLine = errors.New("request line is malformed")
)

// RequestDecoder reads a request line and a header block off a stream.
//
// Reads from the stream may run past the empty line that ends the header block.
// Pass an [*iolib.UntilReader] to keep those bytes: it is used as is and serves them afterwards.
// Any other reader gets wrapped, and whatever was read ahead is lost to the caller.
type RequestDecoder struct{ MessageDecoder }

func NewRequestDecoder(r io.Reader, opts DecodeOptions) *RequestDecoder {
	ur, ok := r.(*iolib.UntilReader)
	if !ok {
		ur = iolib.NewUntilReader(r)
	}

	return &RequestDecoder{
		MessageDecoder{r: ur, opts: opts},
	}
}

// r MUST be a non-nil pointer. It is left untouched when decoding fails.
func (rd *RequestDecoder) Decode(r *Request) error {
	request, err := rd.decodeRequestLine()
	if err != nil {
		return errors.Wrap(err, "parsing request line")
	}

	request.Headers, err = rd.decodeHeaders()
	if err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	*r = request

	return nil
}

func (rd *RequestDecoder) decodeRequestLine() (Request, error) {
	line, err := rd.readLine(rd.opts.MaxRequestLineLength)
	if err != nil {
		if errors.Is(err, errLineTooLong) {
			return Request{}, newError(ParseError, ErrRequestLineTooLong)
		}
		return Request{}, errors.Wrap(err, "reading line")
	}

	return parseRequestLine(line)
}

func parseRequestLine(line []byte) (Request, error) {
	// Split naively. Consecutive SPs yield empty tokens.
	parts := bytes.Split(line, []byte{rule.SP})
	if len(parts) != 3 {
		return Request{}, newError(ParseError,
			errors.Wrapf(ErrMalformedRequestLine, "expected 3 tokens, got %d", len(parts)))
	}

	method, err := ParseMethod(string(parts[0]))
	if err != nil {
		return Request{}, errors.Wrap(err, "parsing method")
	}

	target := string(parts[1])
	if len(target) == 0 {
		return Request{}, newError(ParseError,
			errors.Wrap(ErrMalformedRequestLine, "request target should not be empty"))
	}

	ver, err := ParseVersion(parts[2])
	if err != nil {
		return Request{}, errors.Wrap(err, "parsing version")
	}

	path, query, hasQuery := splitTarget(target)

	params := make(map[string]string)
	if hasQuery {
		if params, err = parseQuery(query); err != nil {
			return Request{}, newError(ParseError, err)
		}
	}

	return Request{
		Method:      method,
		URI:         path,
		Version:     ver,
		QueryParams: params,
		PathParams:  make(map[string]string),
	}, nil
}
