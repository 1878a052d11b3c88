package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"http-conn/application/http"
	"http-conn/application/http/status"
	"http-conn/transport"
	"http-conn/transport/pipe"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type ServerTestSuite struct {
	suite.Suite

	transport *pipe.PipeTransport
	logger    *slog.Logger

	transportAddr pipe.Addr
	listener      transport.ConnListener

	server *Server

	clock *clock.Mock
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	s.clock = clock.NewMock()

	s.transport = pipe.NewPipeTransport(s.clock)
	s.logger = slog.New(slog.DiscardHandler)

	s.transportAddr = pipe.Addr{Name: "addr"}

	lis, err := s.transport.Listen(s.transportAddr)
	s.Require().NoError(err)
	s.listener = lis

	s.server = New(lis, s.logger, s.clock, okHandle, DefaultOptions)
}

func (s *ServerTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())

	s.NoError(s.server.Close())
	s.NoError(s.listener.Close())
}

func okHandle(c *HandleContext, request *http.Request) *http.Response {
	body := []byte(request.URI)
	return &http.Response{
		Status: status.OK,
		Headers: map[string]string{
			"Content-Length": strconv.Itoa(len(body)),
		},
		Body: body,
	}
}

// roundTrip dials the server, sends raw and returns everything
// received until the server closes the connection.
func (s *ServerTestSuite) roundTrip(raw string) string {
	conn, err := s.transport.Dial(context.Background(), s.transportAddr)
	s.Require().NoError(err)
	defer conn.Close()

	_, err = conn.Write([]byte(raw))
	s.Require().NoError(err)

	var buf bytes.Buffer
	b := make([]byte, 512)
	for {
		n, err := conn.Read(b)
		buf.Write(b[:n])
		if err != nil {
			s.ErrorIs(err, transport.ErrConnClosed)
			return buf.String()
		}
	}
}

func (s *ServerTestSuite) TestServe() {
	s.server.handle = func(c *HandleContext, got *http.Request) *http.Response {
		s.Equal(&http.Request{
			Method:      http.MethodGet,
			URI:         "/items",
			Version:     http.Version1_1,
			Headers:     map[string]string{"Host": "example"},
			QueryParams: map[string]string{"id": "42"},
			PathParams:  map[string]string{},
		}, got)
		s.Equal(pipe.Addr{Name: "dialer"}, c.RemoteAddr())

		return &http.Response{
			Status:  status.OK,
			Headers: map[string]string{"X-Test": "1"},
			Body:    []byte("hello"),
		}
	}
	s.server.Start()

	res := s.roundTrip("GET /items?id=42 HTTP/1.1\r\nHost: example\r\n\r\n")
	s.Equal("HTTP/1.1 200 OK\r\nX-Test: 1\r\n\r\nhello", res)
}

func (s *ServerTestSuite) TestMalformedRequestIsClosed() {
	handled := false
	s.server.handle = func(c *HandleContext, request *http.Request) *http.Response {
		handled = true
		return nil
	}
	s.server.Start()

	for _, raw := range []string{
		"GET /\r\n",
		"GET / HTTP/1.1\r\nNoColonHere\r\n",
		"GET /x?onlykey HTTP/1.1\r\n\r\n",
		"GET / HTTP/1.1\n\n",
	} {
		s.Empty(s.roundTrip(raw), raw)
	}

	s.server.Close()
	s.False(handled)
}

func (s *ServerTestSuite) TestReplyOnError() {
	s.server.opts.Serve.ReplyOnError = true
	s.server.Start()

	testcases := []struct {
		raw      string
		expected http.StatusCode
	}{
		{"GET /\r\n", status.BadRequest},
		{"BREW / HTTP/1.1\r\n\r\n", status.NotImplemented},
		{"GET / HTTP/1.0\r\n\r\n", status.HTTPVersionNotSupported},
	}
	for _, tc := range testcases {
		res := s.roundTrip(tc.raw)

		statusLine := fmt.Sprintf("HTTP/1.1 %s\r\n", tc.expected)
		s.Truef(bytes.HasPrefix([]byte(res), []byte(statusLine)), "got %q", res)
		s.Contains(res, "Connection: close\r\n")
	}
}

func (s *ServerTestSuite) TestNilResponse() {
	s.server.handle = func(c *HandleContext, request *http.Request) *http.Response {
		return nil
	}
	s.server.Start()

	s.Empty(s.roundTrip("GET / HTTP/1.1\r\n\r\n"))
}

func (s *ServerTestSuite) TestHandlerPanic() {
	s.server.handle = func(c *HandleContext, request *http.Request) *http.Response {
		if request.URI == "/panic" {
			panic("oops")
		}
		return okHandle(c, request)
	}
	s.server.Start()

	s.Empty(s.roundTrip("GET /panic HTTP/1.1\r\n\r\n"))
	s.Equal(
		"HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\n/ok",
		s.roundTrip("GET /ok HTTP/1.1\r\n\r\n"),
	)
}

func (s *ServerTestSuite) TestConcurrentConnections() {
	s.server.Start()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uri := "/" + strconv.Itoa(i)

			res := s.roundTrip("PUT " + uri + " HTTP/1.1\r\n\r\n")
			s.Equal(fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n%s", len(uri), uri), res)
		}()
	}
	wg.Wait()
}

func (s *ServerTestSuite) TestCloseTearsDownInFlight() {
	s.server.Start()

	conn, err := s.transport.Dial(context.Background(), s.transportAddr)
	s.Require().NoError(err)
	defer conn.Close()

	// The request never completes, so only Close can end the connection.
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n"))
	s.Require().NoError(err)

	s.NoError(s.server.Close())

	_, err = conn.Read(make([]byte, 1))
	s.ErrorIs(err, transport.ErrConnClosed)
}
