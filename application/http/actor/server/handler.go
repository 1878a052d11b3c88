package server

import (
	"context"
	"io"

	"http-conn/application/http"
	"http-conn/application/http/status"
	"http-conn/transport"

	"github.com/pkg/errors"
)

// HandleFunc builds the response for a parsed request.
// Returning nil closes the connection without writing anything.
type HandleFunc func(c *HandleContext, request *http.Request) *http.Response

type HandleContext struct {
	ctx context.Context

	remoteAddr transport.Addr
	version    http.Version
	body       io.Reader

	request *http.Request

	// Should only be used inside this struct.
	_fatalError error
}

func newHandleContext(ctx context.Context, c *Conn) *HandleContext {
	return &HandleContext{
		ctx:        ctx,
		remoteAddr: c.RemoteAddr(),
		version:    c.Request().Version,
		body:       c.Body(),
		request:    c.Request(),
	}
}

func (c *HandleContext) doHandle(handle HandleFunc) (res *http.Response, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("handler panicked: %s", e)
		}
	}()

	response := handle(c, c.request)
	if c._fatalError != nil {
		return nil, c._fatalError
	}

	return response, nil
}

func (c *HandleContext) Context() context.Context  { return c.ctx }
func (c *HandleContext) RemoteAddr() transport.Addr { return c.remoteAddr }
func (c *HandleContext) HTTPVersion() http.Version  { return c.version }

// Body is the unframed stream following the header block.
func (c *HandleContext) Body() io.Reader { return c.body }

// Error converts err into a response carrying a fitting status.
// A [status.Error] keeps its own status, anything else becomes 500.
func (c *HandleContext) Error(err error) *http.Response {
	if err == nil {
		c._fatalError = errors.New("using Error() with nil error is forbidden")
		return nil
	}

	if errors.Is(err, transport.ErrConnClosed) {
		return nil
	}

	if statusErr := new(status.Error); errors.As(err, statusErr) {
		return statusErrToResponse(*statusErr, false)
	}

	if errors.Is(err, transport.ErrDeadLineExceeded) {
		return statusErrToResponse(
			status.NewError(nil, status.RequestTimeout),
			true,
		)
	}

	return statusErrToResponse(
		status.NewError(err, status.InternalServerError),
		false,
	)
}
