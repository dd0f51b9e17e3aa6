//go:build linux

package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/YvanMazy/Memorized/rpc/transport"
	"golang.org/x/sys/unix"
)

var (
	ErrWriteTimeout = errors.New("write timed out")
)

// rawConn is a non-blocking socket driven by an event loop instead of the Go
// runtime netpoller. Reads happen on the owning loop only, writes are
// serialized by writeMu.
type rawConn struct {
	fd           int
	remote       string
	writeTimeout time.Duration

	writeMu sync.Mutex
	closed  bool
}

// newRawConn takes the socket of conn out of the Go runtime: the fd is
// duplicated, switched to non-blocking mode and conn itself is closed.
// Socket options applied to conn before the call are kept.
func newRawConn(conn net.Conn, writeTimeout time.Duration) (*rawConn, error) {
	defer conn.Close()

	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, fmt.Errorf("connection of type %T does not expose its file descriptor", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, err
	}

	fd := -1
	var dupErr error
	if err := raw.Control(func(s uintptr) {
		fd, dupErr = unix.FcntlInt(s, unix.F_DUPFD_CLOEXEC, 0)
	}); err != nil {
		return nil, err
	}
	if dupErr != nil {
		return nil, fmt.Errorf("failed to duplicate socket: %w", dupErr)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to set non-blocking mode: %w", err)
	}

	remote := "unknown"
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
		remote = addr.String()
	}

	return &rawConn{fd: fd, remote: remote, writeTimeout: writeTimeout}, nil
}

// read reads once. It returns (0, nil) when no data is available and io.EOF
// when the peer closed the connection.
func (c *rawConn) read(p []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return 0, nil
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		default:
			return n, nil
		}
	}
}

// write writes all of p, waiting for socket space up to the write timeout
func (c *rawConn) write(p []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return transport.ErrSessionClosed
	}

	deadline := time.Now().Add(c.writeTimeout)
	for len(p) > 0 {
		n, err := unix.Write(c.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			if err := c.awaitWritable(deadline); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func (c *rawConn) awaitWritable(deadline time.Time) error {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrWriteTimeout
		}
		fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLOUT}}
		n, err := unix.Poll(fds, int(remaining/time.Millisecond)+1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
	}
}

// close closes the socket. Pending writers finish first.
func (c *rawConn) close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return unix.Close(c.fd)
}
