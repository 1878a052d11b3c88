package http

import (
	"bufio"
	"bytes"
	"io"
	"maps"
	"slices"
	"strconv"

	"http-conn/application/util/rule"
	iolib "http-conn/lib/io"

	"github.com/pkg/errors"
)

type EncodeOptions struct {
	// UseSoleLF specifies whether a single LF character should be used as a line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	UseSoleLF bool
}

var DefaultEncodeOptions = EncodeOptions{
	UseSoleLF: false,
}

type MessageEncoder struct {
	w    io.Writer
	bw   *bufio.Writer
	opts EncodeOptions
}

func (me *MessageEncoder) writeLine(line []byte) error {
	if _, err := me.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	term := rule.CRLF
	if me.opts.UseSoleLF {
		term = term[1:]
	}

	if _, err := me.bw.Write(term); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

// encodeHeaders writes fields sorted by name, so the output does not
// depend on map iteration order.
func (me *MessageEncoder) encodeHeaders(headers map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(headers)) {
		if err := me.writeLine(fieldText(name, headers[name])); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// Write a empty line as all the headers are written.
	if err := me.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func fieldText(name, value string) []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(name)
	buf.Write([]byte{rule.Colon, rule.SP})
	buf.WriteString(value)
	return buf.Bytes()
}

// ResponseEncoder writes a status line, a header block and a raw body.
type ResponseEncoder struct{ MessageEncoder }

func NewResponseEncoder(w io.Writer, opts EncodeOptions) *ResponseEncoder {
	return &ResponseEncoder{
		MessageEncoder{
			w:    w,
			bw:   bufio.NewWriter(w),
			opts: opts,
		},
	}
}

// Encode writes response as a reply in version.
// Bytes written before a failure are not taken back.
func (re *ResponseEncoder) Encode(version Version, response Response) error {
	if err := re.encode(version, response); err != nil {
		return newError(IOError, err)
	}
	return nil
}

func (re *ResponseEncoder) encode(version Version, response Response) error {
	if err := re.encodeStatusLine(version, response.Status); err != nil {
		return errors.Wrap(err, "encoding status line")
	}

	if err := re.encodeHeaders(response.Headers); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing status line & header")
	}

	if len(response.Body) > 0 {
		if _, err := iolib.WriteFull(re.w, response.Body); err != nil {
			return errors.Wrap(err, "writing response body")
		}
	}

	return nil
}

func (re *ResponseEncoder) encodeStatusLine(version Version, status StatusCode) error {
	buf := bytes.NewBuffer(nil)

	buf.Write(version.Text())
	buf.WriteByte(rule.SP)
	buf.Write([]byte(strconv.FormatUint(uint64(status.Code), 10)))
	buf.WriteByte(rule.SP)
	buf.Write([]byte(status.ReasonPhrase))

	if err := re.writeLine(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing line")
	}

	return nil
}
