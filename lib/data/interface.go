package data

import (
	"reflect"

	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("data")

// Container is a data structure hosted by the server. Both handlers run on
// the event loop of the requesting session and must send exactly one reply
// unless they return an error. A returned error means the payload was
// malformed; the session is closed and no reply is expected.
type Container interface {
	// HandleUpdate applies one UPDATE payload (subtype byte followed by
	// the subtype arguments)
	HandleUpdate(s transport.Session, payload *codec.Reader) error

	// HandleShow answers one SHOW payload
	HandleShow(s transport.Session, payload *codec.Reader) error
}

// Factory creates an empty container for CREATE
type Factory func() Container

// Repository maps keys of one type to containers. All methods are safe for
// concurrent use since sessions on different workers share repositories.
type Repository interface {
	// Identifier is the id clients send to address this repository
	Identifier() int32

	// KeyType is the Go type of the keys
	KeyType() reflect.Type

	// ReadKey decodes one key from the payload
	ReadKey(rd *codec.Reader) (any, error)

	// Container returns the container stored under key
	Container(key any) (Container, bool)

	// RegisterIfAbsent stores c under key unless the key is taken.
	// Returns true if c was stored.
	RegisterIfAbsent(key any, c Container) bool

	// Remove deletes the container under key. Returns true if it existed.
	Remove(key any) bool

	// Size returns the number of containers
	Size() int
}
