package server

import (
	"context"
	"io"
	"strconv"
	"strings"
	"testing"

	"http-conn/application/http"
	"http-conn/application/http/status"
	"http-conn/transport"
	"http-conn/transport/pipe"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type HandleContextTestSuite struct {
	suite.Suite

	ctx        context.Context
	remoteAddr transport.Addr
	version    http.Version

	request *http.Request

	hctx *HandleContext
}

func TestHandleContextTestSuite(t *testing.T) {
	suite.Run(t, new(HandleContextTestSuite))
}

func (s *HandleContextTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.remoteAddr = pipe.Addr{Name: "peer"}
	s.version = http.Version1_1
	s.request = &http.Request{
		Method:      http.MethodGet,
		URI:         "/",
		Version:     s.version,
		Headers:     map[string]string{},
		QueryParams: map[string]string{},
		PathParams:  map[string]string{},
	}

	s.hctx = &HandleContext{
		ctx:        s.ctx,
		remoteAddr: s.remoteAddr,
		version:    s.version,
		body:       strings.NewReader("Foo is Bar"),
		request:    s.request,
	}
}

func (s *HandleContextTestSuite) TestDoHandle() {
	handle := func(c *HandleContext, request *http.Request) *http.Response {
		s.Equal(s.request, request)
		s.Equal(s.remoteAddr, c.RemoteAddr())
		s.Equal(s.ctx, c.Context())
		s.Equal(s.version, c.HTTPVersion())

		b, err := io.ReadAll(c.Body())
		s.NoError(err)
		s.Equal("Foo is Bar", string(b))

		return &http.Response{Status: status.OK}
	}

	res, err := s.hctx.doHandle(handle)
	s.NoError(err)
	s.Equal(&http.Response{Status: status.OK}, res)
}

func (s *HandleContextTestSuite) TestDoHandleFatalErr() {
	handle := func(c *HandleContext, request *http.Request) *http.Response {
		return &http.Response{}
	}

	e := errors.New("hey")
	s.hctx._fatalError = e

	res, err := s.hctx.doHandle(handle)
	s.ErrorIs(err, e)
	s.Nil(res)
}

func (s *HandleContextTestSuite) TestDoHandleNilResponse() {
	handle := func(c *HandleContext, request *http.Request) *http.Response {
		return nil
	}

	res, err := s.hctx.doHandle(handle)
	s.NoError(err)
	s.Nil(res)
}

func (s *HandleContextTestSuite) TestDoHandlePanic() {
	handle := func(c *HandleContext, request *http.Request) *http.Response {
		panic("missed me?")
	}

	res, err := s.hctx.doHandle(handle)
	s.ErrorContains(err, "missed me?")
	s.Nil(res)
}

func (s *HandleContextTestSuite) TestErrorUnknown() {
	e := errors.New("unknown")
	res := s.hctx.Error(e)

	s.Equal(&http.Response{
		Status: status.InternalServerError,
		Headers: map[string]string{
			"Connection":     "close",
			"Content-Type":   "text/plain; charset=utf-8",
			"Content-Length": strconv.Itoa(len(e.Error())),
		},
		Body: []byte(e.Error()),
	}, res)
}

func (s *HandleContextTestSuite) TestErrorStatusError() {
	e := errors.New("no such item")
	res := s.hctx.Error(errors.Wrap(status.NewError(e, status.NotFound), "looking up"))

	s.Equal(&http.Response{
		Status: status.NotFound,
		Headers: map[string]string{
			"Connection":     "close",
			"Content-Type":   "text/plain; charset=utf-8",
			"Content-Length": strconv.Itoa(len(e.Error())),
		},
		Body: []byte(e.Error()),
	}, res)
}

func (s *HandleContextTestSuite) TestErrorDeadLineExceeded() {
	res := s.hctx.Error(transport.ErrDeadLineExceeded)

	s.Equal(&http.Response{
		Status: status.RequestTimeout,
		Headers: map[string]string{
			"Connection":     "close",
			"Content-Length": "0",
		},
	}, res)
}

func (s *HandleContextTestSuite) TestErrorConnClosed() {
	res := s.hctx.Error(transport.ErrConnClosed)
	s.Nil(res)
}

func (s *HandleContextTestSuite) TestErrorNil() {
	res := s.hctx.Error(nil)
	s.Nil(res)
	s.Error(s.hctx._fatalError)
}
