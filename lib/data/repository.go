package data

import (
	"reflect"

	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/puzpuzpuz/xsync/v3"
)

// KeyedRepository is the Repository implementation for keys of type K.
// Keys are decoded with the codec registered for K.
type KeyedRepository[K comparable] struct {
	id         int32
	codecs     *codec.Registry
	containers *xsync.MapOf[K, Container]
}

// NewRepository creates an empty repository with the given id
func NewRepository[K comparable](id int32, codecs *codec.Registry) *KeyedRepository[K] {
	return &KeyedRepository[K]{
		id:         id,
		codecs:     codecs,
		containers: xsync.NewMapOf[K, Container](),
	}
}

// NewStringRepository creates the repository of string keys (id 0)
func NewStringRepository(codecs *codec.Registry) *KeyedRepository[string] {
	return NewRepository[string](codec.StringKeyID, codecs)
}

// NewByteRepository creates the repository of int8 keys (id 1)
func NewByteRepository(codecs *codec.Registry) *KeyedRepository[int8] {
	return NewRepository[int8](codec.ByteKeyID, codecs)
}

// NewIntRepository creates the repository of int32 keys (id 2)
func NewIntRepository(codecs *codec.Registry) *KeyedRepository[int32] {
	return NewRepository[int32](codec.IntKeyID, codecs)
}

// --------------------------------------------------------------------------
// Typed access
// --------------------------------------------------------------------------

// Get returns the container stored under key
func (r *KeyedRepository[K]) Get(key K) (Container, bool) {
	return r.containers.Load(key)
}

// Put stores c under key, replacing any previous container
func (r *KeyedRepository[K]) Put(key K, c Container) {
	r.containers.Store(key, c)
}

// Keys returns a snapshot of the stored keys
func (r *KeyedRepository[K]) Keys() []K {
	keys := make([]K, 0, r.containers.Size())
	r.containers.Range(func(k K, _ Container) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// --------------------------------------------------------------------------
// Interface Methods (docu see Repository)
// --------------------------------------------------------------------------

func (r *KeyedRepository[K]) Identifier() int32 {
	return r.id
}

func (r *KeyedRepository[K]) KeyType() reflect.Type {
	return reflect.TypeFor[K]()
}

func (r *KeyedRepository[K]) ReadKey(rd *codec.Reader) (any, error) {
	return codec.Decode[K](r.codecs, rd)
}

func (r *KeyedRepository[K]) Container(key any) (Container, bool) {
	k, ok := key.(K)
	if !ok {
		return nil, false
	}
	return r.containers.Load(k)
}

func (r *KeyedRepository[K]) RegisterIfAbsent(key any, c Container) bool {
	k, ok := key.(K)
	if !ok {
		return false
	}
	_, loaded := r.containers.LoadOrStore(k, c)
	return !loaded
}

func (r *KeyedRepository[K]) Remove(key any) bool {
	k, ok := key.(K)
	if !ok {
		return false
	}
	_, loaded := r.containers.LoadAndDelete(k)
	return loaded
}

func (r *KeyedRepository[K]) Size() int {
	return r.containers.Size()
}
