package server

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"http-conn/application/http"
	"http-conn/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Server accepts connections and serves one request on each of them.
// Every connection runs on its own goroutine and shares nothing with the others.
type Server struct {
	l transport.ConnListener

	closeListener func()
	wg            sync.WaitGroup

	logger *slog.Logger
	opts   Options

	handle HandleFunc
	clock  clock.Clock
}

func New(
	l transport.ConnListener,
	logger *slog.Logger,
	clock clock.Clock,
	handle HandleFunc,
	opts Options,
) *Server {
	s := &Server{
		l:      l,
		logger: logger,
		opts:   opts,
		handle: handle,
		clock:  clock,
	}

	return s
}

// Start begins accepting connections in the background.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.closeListener = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			con, err := s.l.Accept(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Error(
						"unexpected error when accepting connection",
						"error", err.Error(),
					)
				}
				return
			}

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.serve(ctx, con)
			}()
		}
	}()
}

// Close stops accepting, tears down connections in flight and waits for them.
// The listener itself is left open.
func (s *Server) Close() error {
	if s.closeListener != nil {
		s.closeListener()
	}
	s.wg.Wait()
	return nil
}

func (s *Server) serve(ctx context.Context, con transport.Conn) {
	logger := s.logger.With("conn", con.RemoteAddr())

	defer func() {
		logger.Debug("closing connection")
		if err := con.Close(); err != nil && !errors.Is(err, transport.ErrConnClosed) {
			logger.Error("error when closing connection", "error", err)
		}
	}()

	c, err := NewConn(ctx, con, s.clock, s.opts.Serve)
	if err != nil {
		logError(logger, err)

		if s.opts.Serve.ReplyOnError && canReply(err) {
			response := statusErrToResponse(toStatusError(err), false)
			err := writeResponse(ctx, con, s.clock, s.opts.Serve, http.Version1_1, *response)
			if err != nil {
				logger.Debug("failed to reply error", "error", err)
			}
		}
		return
	}

	request := c.Request()
	logger.Debug("request received",
		"method", request.Method,
		"uri", request.URI,
		"version", request.Version.String(),
		"buffered", c.r.Buffered(),
	)

	response, err := newHandleContext(ctx, c).doHandle(s.handle)
	if err != nil {
		logger.Error("unexpected error while handling request", "error", err)
		return
	}

	if response == nil {
		logger.Debug("handler closed connection without response")
		return
	}

	if err := c.Respond(ctx, *response); err != nil {
		logError(logger, err)
	}
}

func logError(logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// no-op.
	case errors.Is(err, transport.ErrDeadLineExceeded):
		logger.Info("timeout exceeded")
	case errors.Is(err, transport.ErrConnClosed), errors.Is(err, io.ErrUnexpectedEOF):
		logger.Debug("connection closed by peer")
	case errors.Is(err, http.ParseError), errors.Is(err, http.EncodingError):
		logger.Info("malformed request", "error", err)
	default:
		logger.Error("unknown error occurred", "error", err)
	}
}
