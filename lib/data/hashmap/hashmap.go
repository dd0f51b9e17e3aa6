package hashmap

import (
	"fmt"

	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("data")

// Map is a concurrent map container. Keys and values are decoded with the
// codecs registered for K and V.
type Map[K comparable, V any] struct {
	codecs  *codec.Registry
	entries *xsync.MapOf[K, V]
}

// New creates an empty map
func New[K comparable, V any](codecs *codec.Registry) *Map[K, V] {
	return &Map[K, V]{
		codecs:  codecs,
		entries: xsync.NewMapOf[K, V](),
	}
}

// Factory creates empty maps of K to V
func Factory[K comparable, V any](codecs *codec.Registry) data.Factory {
	return func() data.Container {
		return New[K, V](codecs)
	}
}

// Load returns the value stored under key
func (m *Map[K, V]) Load(key K) (V, bool) {
	return m.entries.Load(key)
}

// Store sets the value of key
func (m *Map[K, V]) Store(key K, value V) {
	m.entries.Store(key, value)
}

// Size returns the number of entries
func (m *Map[K, V]) Size() int {
	return m.entries.Size()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see data.Container)
// --------------------------------------------------------------------------

func (m *Map[K, V]) HandleUpdate(s transport.Session, payload *codec.Reader) error {
	b, err := payload.Byte()
	if err != nil {
		return fmt.Errorf("map update: %w", err)
	}
	update, ok := common.ParseMapUpdate(b)
	if !ok {
		return fmt.Errorf("map update: unknown subtype %d", int8(b))
	}

	key, err := codec.Decode[K](m.codecs, payload)
	if err != nil {
		return fmt.Errorf("map %s key: %w", update, err)
	}

	switch update {
	case common.MapSet:
		value, err := codec.Decode[V](m.codecs, payload)
		if err != nil {
			return fmt.Errorf("map %s value: %w", update, err)
		}
		m.entries.Store(key, value)
	case common.MapRemove:
		m.entries.Delete(key)
	default:
		return fmt.Errorf("map update: unhandled subtype %s", update)
	}
	return transport.SendPacket(s, common.ServerResult.Byte(), nil)
}

func (m *Map[K, V]) HandleShow(s transport.Session, payload *codec.Reader) error {
	key, err := codec.Decode[K](m.codecs, payload)
	if err != nil {
		return fmt.Errorf("map show key: %w", err)
	}
	value, ok := m.entries.Load(key)
	if !ok {
		return transport.SendPacket(s, common.ServerNotFound.Byte(), nil)
	}
	buf := codec.NewBuffer()
	if err := m.codecs.TryEncode(buf, value); err != nil {
		// only reachable for values put through Store
		Logger.Errorf("map show: %v", err)
		return transport.SendPacket(s, common.ServerNotFound.Byte(), nil)
	}
	return transport.SendBuffer(s, common.ServerResult.Byte(), buf)
}
