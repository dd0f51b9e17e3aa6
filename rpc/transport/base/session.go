//go:build linux

package base

import (
	"sync/atomic"

	"github.com/YvanMazy/Memorized/rpc/transport"
)

var sessionIDs atomic.Uint64

// Session is the per connection state owned by exactly one event loop:
// the socket, the authentication flag and the frame reader.
type Session struct {
	id            uint64
	conn          *rawConn
	reader        FrameReader
	authenticated atomic.Bool
	closing       atomic.Bool
	closed        atomic.Bool
	wake          func()
}

var _ transport.Session = (*Session)(nil)

func newSession(conn *rawConn) *Session {
	return &Session{id: sessionIDs.Add(1), conn: conn}
}

func (s *Session) ID() uint64 {
	return s.id
}

// Send writes body as one frame
func (s *Session) Send(body []byte) error {
	if s.closed.Load() {
		return transport.ErrSessionClosed
	}
	frame := AppendFrame(make([]byte, 0, LengthPrefixSize+len(body)), body)
	return s.conn.write(frame)
}

func (s *Session) IsAuthenticated() bool {
	return s.authenticated.Load()
}

func (s *Session) SetAuthenticated(authenticated bool) {
	s.authenticated.Store(authenticated)
}

func (s *Session) RemoteAddr() string {
	return s.conn.remote
}

// Close requests the owning loop to tear the connection down
func (s *Session) Close() {
	if s.closing.CompareAndSwap(false, true) && s.wake != nil {
		s.wake()
	}
}

func (s *Session) IsClosed() bool {
	return s.closing.Load() || s.closed.Load()
}

// State returns the state of the partial read state machine
func (s *Session) State() FrameState {
	return s.reader.State()
}
