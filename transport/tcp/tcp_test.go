package tcp

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"http-conn/transport"
	"http-conn/transport/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TCPConnTestSuite struct {
	test.ConnTestSuite

	l *Listener
}

func TestTCPConnTestSuite(t *testing.T) {
	suite.Run(t, new(TCPConnTestSuite))
}

func (s *TCPConnTestSuite) SetupTest() {
	var err error
	s.l, err = Listen("127.0.0.1:0")
	s.Require().NoError(err)

	accepted := make(chan transport.Conn, 1)
	go func() {
		conn, err := s.l.Accept(context.Background())
		s.NoError(err)
		accepted <- conn
	}()

	d := &Dialer{Timeout: time.Second}
	s.C1, err = d.Dial(context.Background(), s.l.Addr())
	s.Require().NoError(err)
	s.C2 = <-accepted
	s.Require().NotNil(s.C2)

	s.ConnTestSuite.SetupTest()
}

func (s *TCPConnTestSuite) TearDownTest() {
	s.NoError(s.l.Close())
	s.ConnTestSuite.TearDownTest()
}

func TestAddrString(t *testing.T) {
	testcases := []struct {
		desc     string
		addr     Addr
		expected string
	}{
		{
			desc:     "ipv4",
			addr:     NewAddr(netip.MustParseAddr("127.0.0.1"), 8383),
			expected: "127.0.0.1:8383",
		},
		{
			desc:     "ipv6",
			addr:     NewAddr(netip.MustParseAddr("::1"), 80),
			expected: "[::1]:80",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.addr.String())
			assert.Equal(t, tc.addr.Port(), tc.addr.Identifier())
			assert.Equal(t, transport.TCP, tc.addr.Protocol())
		})
	}
}

func TestAcceptCancels(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	conn, err := l.Accept(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, conn)

	// The listener is still usable afterwards.
	go func() {
		d := &Dialer{}
		c, err := d.Dial(context.Background(), l.Addr())
		if err == nil {
			c.Close()
		}
	}()

	conn, err = l.Accept(context.Background())
	require.NoError(t, err)
	assert.NoError(t, conn.Close())
}

func TestAcceptAfterClose(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	conn, err := l.Accept(context.Background())
	assert.ErrorIs(t, err, transport.ErrConnListenerClosed)
	assert.Nil(t, conn)

	assert.ErrorIs(t, l.Close(), transport.ErrConnListenerClosed)
}

func TestListenAddrInUse(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	_, err = Listen(l.Addr().String())
	assert.ErrorIs(t, err, transport.ErrAddrAlreadyInUse)
}
