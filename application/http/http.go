package http

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodOptions Method = "OPTIONS"
	MethodDelete  Method = "DELETE"
)

var ErrUnknownMethod = errors.New("unknown method")

// ParseMethod matches s case-sensitively against the supported methods.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodOptions, MethodDelete:
		return m, nil
	}

	return "", newError(ParseError, errors.Wrapf(ErrUnknownMethod, "%q", s))
}

// [Major, Minor]
type Version [2]uint

var (
	Version1_1 = Version{1, 1}
	// HTTP/2 is only recognized as a label. No HTTP/2 framing takes place.
	Version2 = Version{2, 0}
)

var ErrUnknownVersion = errors.New("unknown http version")

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
// Only the exact texts of the supported versions are accepted.
func ParseVersion(b []byte) (Version, error) {
	switch string(b) {
	case "HTTP/1.1":
		return Version1_1, nil
	case "HTTP/2":
		return Version2, nil
	}

	return Version{}, newError(ParseError, errors.Wrapf(ErrUnknownVersion, "%q", b))
}

func (ver Version) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write([]byte("HTTP/"))
	buf.Write([]byte(strconv.FormatUint(uint64(ver[0]), 10)))
	if ver[0] < 2 || ver[1] != 0 {
		// Since HTTP/2 the minor version is omitted.
		buf.Write([]byte{'.'})
		buf.Write([]byte(strconv.FormatUint(uint64(ver[1]), 10)))
	}
	return buf.Bytes()
}

func (ver Version) String() string { return string(ver.Text()) }

// Request is a parsed request line and header block.
// It is only produced by [RequestDecoder] and must not be modified afterwards.
type Request struct {
	Method  Method
	URI     string // Path only. The query is in QueryParams.
	Version Version

	// Keys are kept as received. The last occurrence of a key wins.
	Headers     map[string]string
	QueryParams map[string]string

	// Reserved for routing. Always empty.
	PathParams map[string]string
}

type StatusCode struct {
	Code         uint
	ReasonPhrase string
}

func (s StatusCode) String() string {
	return strconv.FormatUint(uint64(s.Code), 10) + " " + s.ReasonPhrase
}

type Response struct {
	Status  StatusCode
	Headers map[string]string

	// Body is written as is, without any framing.
	// Set Content-Length yourself if the peer needs it.
	Body []byte
}
