package iolib

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// UntilReader scans an underlying reader for a delimiter.
// Bytes read past the delimiter are kept and served by later calls,
// so the stream stays positioned right after the last returned delimiter.
type UntilReader struct {
	r io.Reader

	buf *bytes.Buffer
}

func NewUntilReader(r io.Reader) *UntilReader {
	return &UntilReader{r: r, buf: bytes.NewBuffer(nil)}
}

func (ur *UntilReader) Read(p []byte) (n int, err error) {
	if ur.buf.Len() > 0 {
		n, err = ur.buf.Read(p)
		if err == io.EOF {
			err = nil
		}
		return n, err
	}

	return ur.r.Read(p)
}

// Buffered returns the number of bytes read from the underlying reader
// but not consumed yet.
func (ur *UntilReader) Buffered() int { return ur.buf.Len() }

var (
	ErrZeroLenDelim  = errors.New("delim has zero length")
	ErrLimitExceeded = errors.New("delim not found within limit")
)

// ReadUntil reads until delim. The output will include delim.
func (ur *UntilReader) ReadUntil(delim []byte) ([]byte, error) {
	return ur.ReadUntilLimit(delim, 0)
}

// ReadUntilLimit is ReadUntil but fails with [ErrLimitExceeded]
// when delim does not end within the first limit bytes.
// A zero limit means no limit.
//
// If the underlying reader fails before delim,
// the bytes read so far are returned with the error.
func (ur *UntilReader) ReadUntilLimit(delim []byte, limit uint) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	temp := make([]byte, 1024)
	searched := 0
	var readErr error

	for {
		data := ur.buf.Bytes()

		// The delim may straddle the boundary of the previous search.
		from := max(0, searched-len(delim)+1)
		if idx := bytes.Index(data[from:], delim); idx >= 0 {
			end := from + idx + len(delim)
			if limit > 0 && uint(end) > limit {
				return nil, ErrLimitExceeded
			}

			found := bytes.Clone(data[:end])
			ur.buf.Next(end)
			return found, nil
		}
		searched = len(data)

		if limit > 0 && uint(searched) >= limit {
			return nil, ErrLimitExceeded
		}

		if readErr != nil {
			// Underlying reader returned error before delim.
			b := bytes.Clone(data)
			ur.buf.Reset()
			return b, readErr
		}

		n, err := ur.r.Read(temp)
		ur.buf.Write(temp[:n])
		readErr = err
	}
}
