package server

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"http-conn/application/http"
	"http-conn/application/http/status"
	iolib "http-conn/lib/io"
	"http-conn/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type connState uint8

const (
	stateParsing connState = iota
	stateReady
	stateDone
)

// Conn is an accepted connection that carries exactly one request.
//
// The request is read by [NewConn]. Afterwards a single response can be
// written with [Conn.Respond]. There is no way to read a second request.
type Conn struct {
	con transport.Conn
	r   *iolib.UntilReader

	request *http.Request

	mu    sync.Mutex
	state connState

	clock clock.Clock
	opts  ServeOptions
}

var ErrAlreadyResponded = errors.New("response already written")

// NewConn reads a request off con.
// Cancelling ctx while reading closes con. On failure con is left to the caller.
func NewConn(ctx context.Context, con transport.Conn, clock clock.Clock, opts ServeOptions) (*Conn, error) {
	c := &Conn{
		con:   con,
		r:     iolib.NewUntilReader(con),
		clock: clock,
		opts:  opts,
		state: stateParsing,
	}

	if err := c.readRequest(ctx); err != nil {
		return nil, err
	}
	c.state = stateReady

	return c, nil
}

func (c *Conn) readRequest(ctx context.Context) error {
	if timeout := c.opts.Timeout.ReadTimeout; timeout > 0 {
		c.con.SetReadDeadLine(c.clock.Now().Add(timeout))
		defer c.con.SetReadDeadLine(time.Time{})
	}

	stop := context.AfterFunc(ctx, func() { c.con.Close() })
	defer stop()

	var request http.Request
	if err := http.NewRequestDecoder(c.r, c.opts.Decode).Decode(&request); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, "reading request")
		}
		return errors.Wrap(err, "reading request")
	}

	c.request = &request

	return nil
}

func (c *Conn) Request() *http.Request     { return c.request }
func (c *Conn) LocalAddr() transport.Addr  { return c.con.LocalAddr() }
func (c *Conn) RemoteAddr() transport.Addr { return c.con.RemoteAddr() }

// Body returns the stream right after the header block.
// No framing is applied, it reads until the peer stops sending.
func (c *Conn) Body() io.Reader { return c.r }

// Respond writes response in the version of the request.
// Only the first call writes, later ones fail with [ErrAlreadyResponded].
func (c *Conn) Respond(ctx context.Context, response http.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateReady {
		return ErrAlreadyResponded
	}
	c.state = stateDone

	if err := writeResponse(ctx, c.con, c.clock, c.opts, c.request.Version, response); err != nil {
		return errors.Wrap(err, "writing response")
	}

	return nil
}

// Close releases the underlying connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.state = stateDone
	c.mu.Unlock()

	return c.con.Close()
}

func writeResponse(
	ctx context.Context,
	con transport.Conn,
	clock clock.Clock,
	opts ServeOptions,
	version http.Version,
	response http.Response,
) error {
	if timeout := opts.Timeout.WriteTimeout; timeout > 0 {
		con.SetWriteDeadLine(clock.Now().Add(timeout))
		defer con.SetWriteDeadLine(time.Time{})
	}

	stop := context.AfterFunc(ctx, func() { con.Close() })
	defer stop()

	if err := http.NewResponseEncoder(con, opts.Encode).Encode(version, response); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	return nil
}

// toStatusError converts error into [status.Error].
// It assumes that error is returned when reading request,
// so if it isn't any specific error, it will return error with [status.BadRequest].
func toStatusError(err error) status.Error {
	if errors.Is(err, transport.ErrDeadLineExceeded) {
		return status.NewError(nil, status.RequestTimeout)
	}

	if errors.Is(err, http.ErrRequestLineTooLong) {
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-4
		return status.NewError(err, status.URITooLong)
	}

	if errors.Is(err, http.ErrFieldLineTooLong) || errors.Is(err, http.ErrTooManyFields) {
		// Reference: https://datatracker.ietf.org/doc/html/rfc6585#section-5
		return status.NewError(err, status.RequestHeaderFieldsTooLarge)
	}

	if errors.Is(err, http.ErrUnknownMethod) {
		// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-9.1-10
		return status.NewError(err, status.NotImplemented)
	}

	if errors.Is(err, http.ErrUnknownVersion) {
		// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.6.6
		return status.NewError(err, status.HTTPVersionNotSupported)
	}

	return status.NewError(err, status.BadRequest)
}

func statusErrToResponse(se status.Error, skipBody bool) *http.Response {
	res := &http.Response{
		Status:  se.Status,
		Headers: map[string]string{"Connection": "close"},
	}

	var body []byte
	if !skipBody && se.Cause() != nil {
		body = []byte(se.Cause().Error())
		res.Headers["Content-Type"] = "text/plain; charset=utf-8"
	}

	res.Headers["Content-Length"] = strconv.Itoa(len(body))
	res.Body = body

	return res
}

// canReply reports whether the peer may still be listening after a read failure.
func canReply(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, transport.ErrConnClosed),
		errors.Is(err, io.ErrUnexpectedEOF):
		return false
	}
	return true
}
