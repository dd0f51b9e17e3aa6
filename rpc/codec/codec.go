package codec

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("codec")

var (
	ErrNoCodec        = errors.New("no codec registered")
	ErrRegistrySealed = errors.New("registry is sealed")
	ErrDuplicateCodec = errors.New("codec already registered")
	ErrTypeMismatch   = errors.New("value does not match codec type")
)

// Codec encodes and decodes values of one type. Codecs of composite types
// may use the registry to handle their elements.
type Codec[T any] interface {
	Encode(r *Registry, buf *Buffer, v T) error
	Decode(r *Registry, rd *Reader) (T, error)
}

// CodecFuncs adapts a pair of functions to the Codec interface
type CodecFuncs[T any] struct {
	EncodeFunc func(r *Registry, buf *Buffer, v T) error
	DecodeFunc func(r *Registry, rd *Reader) (T, error)
}

func (c CodecFuncs[T]) Encode(r *Registry, buf *Buffer, v T) error {
	return c.EncodeFunc(r, buf, v)
}

func (c CodecFuncs[T]) Decode(r *Registry, rd *Reader) (T, error) {
	return c.DecodeFunc(r, rd)
}

// entry is the type erased form of a Codec[T]
type entry struct {
	encode func(r *Registry, buf *Buffer, v any) error
	decode func(r *Registry, rd *Reader) (any, error)
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry maps runtime types to codecs. It is filled before a client or
// server starts and sealed by their constructors, after which it is read
// only and safe for concurrent use.
type Registry struct {
	codecs map[reflect.Type]entry
	sealed atomic.Bool
}

// NewRegistry creates a registry holding the builtin codecs
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	registerBuiltins(r)
	return r
}

// NewEmptyRegistry creates a registry without any codec
func NewEmptyRegistry() *Registry {
	return &Registry{codecs: make(map[reflect.Type]entry)}
}

// Register adds the codec for T. It fails once the registry is sealed.
func Register[T any](r *Registry, c Codec[T]) error {
	if r.sealed.Load() {
		return ErrRegistrySealed
	}
	t := reflect.TypeFor[T]()
	if _, ok := r.codecs[t]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCodec, t)
	}
	r.codecs[t] = entry{
		encode: func(r *Registry, buf *Buffer, v any) error {
			tv, ok := v.(T)
			if !ok {
				return fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, t)
			}
			return c.Encode(r, buf, tv)
		},
		decode: func(r *Registry, rd *Reader) (any, error) {
			return c.Decode(r, rd)
		},
	}
	return nil
}

// Seal makes the registry immutable. Sealing twice is a no-op.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Has reports whether a codec for t is registered
func (r *Registry) Has(t reflect.Type) bool {
	_, ok := r.codecs[t]
	return ok
}

// Encode appends v using the codec of its runtime type. A missing codec or a
// failing encode is logged and the buffer is returned unmodified.
func (r *Registry) Encode(buf *Buffer, v any) *Buffer {
	if err := r.TryEncode(buf, v); err != nil {
		Logger.Errorf("failed to encode %T: %v", v, err)
	}
	return buf
}

// TryEncode is like Encode but reports failures. On error the buffer keeps
// its previous length.
func (r *Registry) TryEncode(buf *Buffer, v any) error {
	e, ok := r.codecs[reflect.TypeOf(v)]
	if !ok {
		return fmt.Errorf("%w for %T", ErrNoCodec, v)
	}
	mark := buf.Len()
	if err := e.encode(r, buf, v); err != nil {
		buf.Truncate(mark)
		return err
	}
	return nil
}

// DecodeType decodes a value of type t
func (r *Registry) DecodeType(rd *Reader, t reflect.Type) (any, error) {
	e, ok := r.codecs[t]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoCodec, t)
	}
	return e.decode(r, rd)
}

// Decode decodes a value of type T using the registered codec
func Decode[T any](r *Registry, rd *Reader) (T, error) {
	var zero T
	v, err := r.DecodeType(rd, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	tv, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: decoded %T", ErrTypeMismatch, v)
	}
	return tv, nil
}
