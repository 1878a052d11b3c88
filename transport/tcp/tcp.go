// Package tcp adapts the platform TCP sockets to [transport.Conn].
package tcp

import (
	"context"
	"io"
	"net"
	"net/netip"
	"os"
	"strconv"
	"syscall"
	"time"

	"http-conn/transport"

	"github.com/pkg/errors"
)

type Addr struct {
	ip   netip.Addr
	port uint16
}

var _ transport.Addr = Addr{}

func NewAddr(ip netip.Addr, port uint16) Addr {
	return Addr{ip, port}
}

// AddrFrom converts a [net.Addr] returned by the platform socket API.
func AddrFrom(a net.Addr) Addr {
	tcpAddr, ok := a.(*net.TCPAddr)
	if !ok || tcpAddr == nil {
		return Addr{}
	}

	ap := tcpAddr.AddrPort()
	return Addr{ip: ap.Addr().Unmap(), port: ap.Port()}
}

func (a Addr) IP() netip.Addr               { return a.ip }
func (a Addr) Port() uint16                 { return a.port }
func (a Addr) Protocol() transport.Protocol { return transport.TCP }
func (a Addr) Identifier() any              { return a.port }

func (a Addr) String() string {
	host := a.ip.String()
	if a.ip.Is6() {
		host = "[" + host + "]"
	}

	return host + ":" + strconv.FormatUint(uint64(a.port), 10)
}

type conn struct {
	nc *net.TCPConn

	local, remote Addr
}

var _ transport.Conn = (*conn)(nil)

func newConn(nc *net.TCPConn) *conn {
	return &conn{
		nc:     nc,
		local:  AddrFrom(nc.LocalAddr()),
		remote: AddrFrom(nc.RemoteAddr()),
	}
}

func (c *conn) Read(p []byte) (n int, err error) {
	n, err = c.nc.Read(p)
	return n, convertErr(err)
}

func (c *conn) Write(p []byte) (n int, err error) {
	n, err = c.nc.Write(p)
	return n, convertErr(err)
}

func (c *conn) Close() error {
	if err := c.nc.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Wrap(err, "closing tcp connection")
	}
	return nil
}

func (c *conn) LocalAddr() transport.Addr  { return c.local }
func (c *conn) RemoteAddr() transport.Addr { return c.remote }

// Deadline errors only happen on a closed socket,
// which the next Read or Write reports anyway.
func (c *conn) SetReadDeadLine(t time.Time)  { _ = c.nc.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { _ = c.nc.SetWriteDeadline(t) }

// convertErr maps socket errors onto the transport sentinels.
func convertErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		return errors.Wrap(transport.ErrDeadLineExceeded, err.Error())
	case errors.Is(err, io.EOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return errors.Wrap(transport.ErrConnClosed, err.Error())
	}
	return err
}

type Listener struct {
	l    *net.TCPListener
	addr Addr
}

var _ transport.ConnListener = (*Listener)(nil)

// Listen binds address (e.g. "127.0.0.1:8383").
func Listen(address string) (*Listener, error) {
	l, err := net.Listen("tcp", address)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, transport.ErrAddrAlreadyInUse
		}
		return nil, errors.Wrapf(err, "listening on %s", address)
	}

	tl := l.(*net.TCPListener)
	return &Listener{l: tl, addr: AddrFrom(tl.Addr())}, nil
}

func (l *Listener) Addr() Addr { return l.addr }

// Accept waits for the next connection. Cancelling ctx unblocks it.
func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A deadline in the past wakes the pending accept.
	_ = l.l.SetDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() { _ = l.l.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	nc, err := l.l.AcceptTCP()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, transport.ErrConnListenerClosed
		}
		return nil, errors.Wrap(err, "accepting tcp connection")
	}

	return newConn(nc), nil
}

func (l *Listener) Close() error {
	if err := l.l.Close(); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return transport.ErrConnListenerClosed
		}
		return errors.Wrap(err, "closing tcp listener")
	}
	return nil
}

type Dialer struct {
	Timeout time.Duration
}

var _ transport.ConnDialer = (*Dialer)(nil)

func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	nc, err := nd.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		switch {
		case errors.Is(err, syscall.ECONNREFUSED):
			return nil, transport.ErrConnRefused
		case errors.Is(err, syscall.ENETUNREACH):
			return nil, transport.ErrNetUnreachable
		}
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	return newConn(nc.(*net.TCPConn)), nil
}
