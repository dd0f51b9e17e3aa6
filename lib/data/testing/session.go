package testing

import (
	"sync"
	"sync/atomic"

	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport"
)

var sessionIDs atomic.Uint64

// Frame is one reply recorded by a Session
type Frame struct {
	Command common.ServerPacket
	Payload []byte
}

// Reader returns a reader over the reply payload
func (f Frame) Reader() *codec.Reader {
	return codec.NewReader(f.Payload)
}

// Session is an in-memory transport.Session recording every sent frame.
// It is safe for concurrent use.
type Session struct {
	id            uint64
	mu            sync.Mutex
	frames        []Frame
	authenticated atomic.Bool
	closed        atomic.Bool
}

// NewSession creates an authenticated session
func NewSession() *Session {
	s := &Session{id: sessionIDs.Add(1)}
	s.authenticated.Store(true)
	return s
}

// Frames returns a copy of the recorded frames in send order
func (s *Session) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Last returns the most recent frame
func (s *Session) Last() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Count returns the number of recorded frames
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Reset forgets the recorded frames
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.Session)
// --------------------------------------------------------------------------

func (s *Session) ID() uint64 {
	return s.id
}

func (s *Session) Send(body []byte) error {
	if s.closed.Load() {
		return transport.ErrSessionClosed
	}
	if len(body) == 0 {
		return nil
	}
	payload := make([]byte, len(body)-1)
	copy(payload, body[1:])
	s.mu.Lock()
	s.frames = append(s.frames, Frame{Command: common.ServerPacket(int8(body[0])), Payload: payload})
	s.mu.Unlock()
	return nil
}

func (s *Session) IsAuthenticated() bool {
	return s.authenticated.Load()
}

func (s *Session) SetAuthenticated(authenticated bool) {
	s.authenticated.Store(authenticated)
}

func (s *Session) RemoteAddr() string {
	return "memory"
}

func (s *Session) Close() {
	s.closed.Store(true)
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}
