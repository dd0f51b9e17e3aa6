package transport

import (
	"errors"

	"github.com/YvanMazy/Memorized/rpc/codec"
)

var (
	ErrSessionClosed = errors.New("session closed")
)

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// Session is one connection as seen by packet handlers and containers.
// The event loop owning the session is the only writer of its state; Send
// may be called from any goroutine.
type Session interface {
	// ID is unique per process for the lifetime of the session
	ID() uint64
	// Send writes body as one frame (the length prefix is added)
	Send(body []byte) error
	IsAuthenticated() bool
	SetAuthenticated(authenticated bool)
	RemoteAddr() string
	// Close requests the owning loop to tear the connection down after the
	// current dispatch. Frames already received are not processed any more.
	Close()
	IsClosed() bool
}

// --------------------------------------------------------------------------
// Packet handlers
// --------------------------------------------------------------------------

// PacketHandler processes the payload of one frame (the bytes after the
// command id). A returned error is a protocol violation and closes the
// connection.
type PacketHandler interface {
	Handle(s Session, payload *codec.Reader) error
}

// HandlerFunc adapts a function to PacketHandler
type HandlerFunc func(s Session, payload *codec.Reader) error

func (f HandlerFunc) Handle(s Session, payload *codec.Reader) error {
	return f(s, payload)
}
