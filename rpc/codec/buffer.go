package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultBufferSize is the initial capacity of a Buffer
	DefaultBufferSize = 256
)

var (
	ErrShortBuffer    = errors.New("data too short")
	ErrNegativeLength = errors.New("negative length prefix")
)

// --------------------------------------------------------------------------
// Buffer (write side)
// --------------------------------------------------------------------------

// Buffer is a growable big-endian write buffer. When a write does not fit,
// the capacity doubles until it does. Existing bytes are kept in order.
type Buffer struct {
	data []byte
}

// NewBuffer creates a buffer with the default capacity
func NewBuffer() *Buffer {
	return NewBufferSize(DefaultBufferSize)
}

// NewBufferSize creates a buffer with the given initial capacity
func NewBufferSize(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]byte, 0, capacity)}
}

// grow makes room for n more bytes and returns the slice to write into
func (b *Buffer) grow(n int) []byte {
	l := len(b.data)
	if l+n > cap(b.data) {
		newCap := cap(b.data)
		for l+n > newCap {
			newCap *= 2
		}
		grown := make([]byte, l, newCap)
		copy(grown, b.data)
		b.data = grown
	}
	b.data = b.data[:l+n]
	return b.data[l:]
}

func (b *Buffer) PutInt8(v int8) *Buffer {
	b.grow(1)[0] = byte(v)
	return b
}

func (b *Buffer) PutByte(v byte) *Buffer {
	b.grow(1)[0] = v
	return b
}

func (b *Buffer) PutBool(v bool) *Buffer {
	if v {
		return b.PutByte(1)
	}
	return b.PutByte(0)
}

func (b *Buffer) PutInt16(v int16) *Buffer {
	binary.BigEndian.PutUint16(b.grow(2), uint16(v))
	return b
}

func (b *Buffer) PutInt32(v int32) *Buffer {
	binary.BigEndian.PutUint32(b.grow(4), uint32(v))
	return b
}

func (b *Buffer) PutInt64(v int64) *Buffer {
	binary.BigEndian.PutUint64(b.grow(8), uint64(v))
	return b
}

func (b *Buffer) PutFloat32(v float32) *Buffer {
	binary.BigEndian.PutUint32(b.grow(4), math.Float32bits(v))
	return b
}

func (b *Buffer) PutFloat64(v float64) *Buffer {
	binary.BigEndian.PutUint64(b.grow(8), math.Float64bits(v))
	return b
}

// PutRaw appends bytes without a length prefix
func (b *Buffer) PutRaw(v []byte) *Buffer {
	copy(b.grow(len(v)), v)
	return b
}

// PutBytes appends length:i32 followed by the bytes
func (b *Buffer) PutBytes(v []byte) *Buffer {
	b.PutInt32(int32(len(v)))
	return b.PutRaw(v)
}

// PutString appends length:i32 followed by the UTF-8 bytes of v
func (b *Buffer) PutString(v string) *Buffer {
	b.PutInt32(int32(len(v)))
	copy(b.grow(len(v)), v)
	return b
}

// Bytes returns the written bytes. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Len() int {
	return len(b.data)
}

func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Truncate drops everything after the first n bytes
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.data) {
		return
	}
	b.data = b.data[:n]
}

func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// --------------------------------------------------------------------------
// Reader (read side)
// --------------------------------------------------------------------------

// Reader decodes big-endian values from a byte slice. Every method fails
// with ErrShortBuffer instead of reading past the end.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a reader over data. The reader does not copy data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int, what string) ([]byte, error) {
	if n < 0 || len(r.data)-r.pos < n {
		return nil, fmt.Errorf("%w for %s: need %d, have %d", ErrShortBuffer, what, n, len(r.data)-r.pos)
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func (r *Reader) Byte() (byte, error) {
	b, err := r.take(1, "byte")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	b, err := r.take(1, "int8")
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.take(1, "bool")
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Reader) Int16() (int16, error) {
	b, err := r.take(2, "int16")
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (r *Reader) Int32() (int32, error) {
	b, err := r.take(4, "int32")
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *Reader) Int64() (int64, error) {
	b, err := r.take(8, "int64")
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *Reader) Float32() (float32, error) {
	b, err := r.take(4, "float32")
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func (r *Reader) Float64() (float64, error) {
	b, err := r.take(8, "float64")
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// Raw returns the next n bytes. The slice aliases the reader's data.
func (r *Reader) Raw(n int) ([]byte, error) {
	return r.take(n, "raw bytes")
}

// Bytes reads length:i32 followed by that many bytes and returns a copy
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Int32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrNegativeLength
	}
	b, err := r.take(int(n), "bytes")
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// String reads length:i32 followed by that many UTF-8 bytes
func (r *Reader) String() (string, error) {
	n, err := r.Int32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", ErrNegativeLength
	}
	b, err := r.take(int(n), "string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Rest returns all unread bytes and moves to the end
func (r *Reader) Rest() []byte {
	v := r.data[r.pos:]
	r.pos = len(r.data)
	return v
}

// Offset returns the number of bytes consumed so far
func (r *Reader) Offset() int {
	return r.pos
}
