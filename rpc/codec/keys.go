package codec

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
)

// Default key type identifiers
const (
	StringKeyID int32 = 0
	ByteKeyID   int32 = 1
	IntKeyID    int32 = 2
)

var (
	ErrUnknownKeyType   = errors.New("unknown key type")
	ErrUnknownKeyID     = errors.New("unknown key identifier")
	ErrDuplicateKeyType = errors.New("key type or identifier already registered")
)

// KeyRegistry is a bidirectional mapping between key types and the integer
// identifiers that reference their repository on the wire.
type KeyRegistry struct {
	byType map[reflect.Type]int32
	byID   map[int32]reflect.Type
	sealed atomic.Bool
}

// NewKeyRegistry creates a registry holding the default key types:
// string=0, int8=1 and int32=2.
func NewKeyRegistry() *KeyRegistry {
	k := NewEmptyKeyRegistry()
	_ = k.Register(reflect.TypeFor[string](), StringKeyID)
	_ = k.Register(reflect.TypeFor[int8](), ByteKeyID)
	_ = k.Register(reflect.TypeFor[int32](), IntKeyID)
	return k
}

// NewEmptyKeyRegistry creates a registry without any key type
func NewEmptyKeyRegistry() *KeyRegistry {
	return &KeyRegistry{
		byType: make(map[reflect.Type]int32),
		byID:   make(map[int32]reflect.Type),
	}
}

// Register binds t to id. Both must be unused.
func (k *KeyRegistry) Register(t reflect.Type, id int32) error {
	if k.sealed.Load() {
		return ErrRegistrySealed
	}
	if _, ok := k.byType[t]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKeyType, t)
	}
	if _, ok := k.byID[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateKeyType, id)
	}
	k.byType[t] = id
	k.byID[id] = t
	return nil
}

// Identifier returns the id of t
func (k *KeyRegistry) Identifier(t reflect.Type) (int32, error) {
	id, ok := k.byType[t]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKeyType, t)
	}
	return id, nil
}

// Type returns the key type registered for id
func (k *KeyRegistry) Type(id int32) (reflect.Type, error) {
	t, ok := k.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyID, id)
	}
	return t, nil
}

// IdentifierOf returns the id of the key type K
func IdentifierOf[K any](k *KeyRegistry) (int32, error) {
	return k.Identifier(reflect.TypeFor[K]())
}

func (k *KeyRegistry) Seal() {
	k.sealed.Store(true)
}

func (k *KeyRegistry) Sealed() bool {
	return k.sealed.Load()
}
