package base

import (
	"encoding/binary"
	"fmt"
)

const (
	// LengthPrefixSize is the size of the u32 length preceding every frame body
	LengthPrefixSize = 4
)

// FrameState is the state of a FrameReader
type FrameState uint8

const (
	// AwaitingLength: collecting the 4 length bytes
	AwaitingLength FrameState = iota
	// AwaitingBody: a body buffer of the declared length is being filled
	AwaitingBody
)

func (s FrameState) String() string {
	switch s {
	case AwaitingLength:
		return "AWAITING_LENGTH"
	case AwaitingBody:
		return "AWAITING_BODY"
	default:
		return "UNKNOWN"
	}
}

// FrameTooLargeError is returned when a declared frame length exceeds the
// limit active for the session.
type FrameTooLargeError struct {
	Size  uint32
	Limit int
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("frame of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

// --------------------------------------------------------------------------
// Writing
// --------------------------------------------------------------------------

// AppendFrame appends the length prefix and body to dst
func AppendFrame(dst []byte, body []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(body)))
	return append(dst, body...)
}

// --------------------------------------------------------------------------
// Reading (partial-read state machine)
// --------------------------------------------------------------------------

// FrameReader reassembles frames from arbitrarily split reads. It holds at
// most one incomplete frame and only ever appends to it.
type FrameReader struct {
	header  [LengthPrefixSize]byte
	hlen    int
	body    []byte
	blen    int
	waiting bool
}

// State returns the current state
func (r *FrameReader) State() FrameState {
	if r.waiting {
		return AwaitingBody
	}
	return AwaitingLength
}

// Buffered returns the number of bytes held for the incomplete frame
func (r *FrameReader) Buffered() int {
	if r.waiting {
		return r.blen
	}
	return r.hlen
}

// Reset drops any incomplete frame
func (r *FrameReader) Reset() {
	r.hlen = 0
	r.body = nil
	r.blen = 0
	r.waiting = false
}

// Feed consumes data. For every completed frame deliver is called with the
// body; the body is owned by the callee. limit is evaluated when a length
// prefix completes, so a frame that authenticates the session raises the
// limit for the frames behind it in the same read.
//
// Feed stops at the first error: a *FrameTooLargeError (no body allocated,
// nothing delivered for that frame) or the error returned by deliver.
func (r *FrameReader) Feed(data []byte, limit func() int, deliver func(body []byte) error) error {
	for len(data) > 0 {
		if !r.waiting {
			n := copy(r.header[r.hlen:], data)
			r.hlen += n
			data = data[n:]
			if r.hlen < LengthPrefixSize {
				return nil
			}

			size := binary.BigEndian.Uint32(r.header[:])
			if max := limit(); int64(size) > int64(max) {
				r.Reset()
				return &FrameTooLargeError{Size: size, Limit: max}
			}

			r.hlen = 0
			r.body = make([]byte, size)
			r.blen = 0
			r.waiting = true
		}

		n := copy(r.body[r.blen:], data)
		r.blen += n
		data = data[n:]

		if r.blen == len(r.body) {
			body := r.body
			r.body = nil
			r.blen = 0
			r.waiting = false
			if err := deliver(body); err != nil {
				return err
			}
		}
	}
	return nil
}
