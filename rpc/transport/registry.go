package transport

import (
	"github.com/YvanMazy/Memorized/rpc/codec"
)

// HandlerRegistry maps a command id to its handler. It is filled before the
// owning client or server starts and read only afterwards.
type HandlerRegistry[C comparable] struct {
	handlers map[C]PacketHandler
}

func NewHandlerRegistry[C comparable]() *HandlerRegistry[C] {
	return &HandlerRegistry[C]{handlers: make(map[C]PacketHandler)}
}

// Register sets the handler of cmd, replacing a previous one
func (r *HandlerRegistry[C]) Register(cmd C, h PacketHandler) {
	r.handlers[cmd] = h
}

// Get returns the handler of cmd
func (r *HandlerRegistry[C]) Get(cmd C) (PacketHandler, bool) {
	h, ok := r.handlers[cmd]
	return h, ok
}

// --------------------------------------------------------------------------
// Reply helpers
// --------------------------------------------------------------------------

// SendPacket sends a frame made of the command id followed by payload
func SendPacket(s Session, cmd byte, payload []byte) error {
	body := make([]byte, 1+len(payload))
	body[0] = cmd
	copy(body[1:], payload)
	return s.Send(body)
}

// SendBuffer sends a frame made of the command id followed by the buffer content
func SendBuffer(s Session, cmd byte, buf *codec.Buffer) error {
	return SendPacket(s, cmd, buf.Bytes())
}
