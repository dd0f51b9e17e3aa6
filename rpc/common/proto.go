package common

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Client -> Server packets
// --------------------------------------------------------------------------

// ClientPacket is the command id of a frame sent by a client.
// The values are part of the wire format and must never be renumbered.
type ClientPacket int8

const (
	ClientAuth       ClientPacket = -128
	ClientCreate     ClientPacket = -127
	ClientShow       ClientPacket = -126
	ClientUpdate     ClientPacket = -125
	ClientDelete     ClientPacket = -124
	ClientDisconnect ClientPacket = -123
)

// ParseClientPacket decodes a command id. The boolean is false for unknown ids.
func ParseClientPacket(b byte) (ClientPacket, bool) {
	p := ClientPacket(int8(b))
	if p < ClientAuth || p > ClientDisconnect {
		return 0, false
	}
	return p, true
}

// Byte returns the wire representation of the packet id.
func (p ClientPacket) Byte() byte {
	return byte(p)
}

// String returns the string representation of a ClientPacket.
func (p ClientPacket) String() string {
	switch p {
	case ClientAuth:
		return "AUTH"
	case ClientCreate:
		return "CREATE"
	case ClientShow:
		return "SHOW"
	case ClientUpdate:
		return "UPDATE"
	case ClientDelete:
		return "DELETE"
	case ClientDisconnect:
		return "DISCONNECT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int8(p))
	}
}

// --------------------------------------------------------------------------
// Server -> Client packets
// --------------------------------------------------------------------------

// ServerPacket is the command id of a frame sent by the server.
type ServerPacket int8

const (
	ServerNotAuthenticated ServerPacket = -128
	ServerAuthFailed       ServerPacket = -127
	ServerAuthSuccess      ServerPacket = -126
	ServerDisconnect       ServerPacket = -125
	ServerResult           ServerPacket = -124
	ServerNotFound         ServerPacket = -123
)

// ParseServerPacket decodes a command id. The boolean is false for unknown ids.
func ParseServerPacket(b byte) (ServerPacket, bool) {
	p := ServerPacket(int8(b))
	if p < ServerNotAuthenticated || p > ServerNotFound {
		return 0, false
	}
	return p, true
}

// Byte returns the wire representation of the packet id.
func (p ServerPacket) Byte() byte {
	return byte(p)
}

// String returns the string representation of a ServerPacket.
func (p ServerPacket) String() string {
	switch p {
	case ServerNotAuthenticated:
		return "NOT_AUTHENTICATED"
	case ServerAuthFailed:
		return "AUTH_FAILED"
	case ServerAuthSuccess:
		return "AUTH_SUCCESS"
	case ServerDisconnect:
		return "DISCONNECT"
	case ServerResult:
		return "RESULT"
	case ServerNotFound:
		return "NOT_FOUND"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int8(p))
	}
}

// --------------------------------------------------------------------------
// Update subtypes
// --------------------------------------------------------------------------

// CounterUpdate is the subtype of an UPDATE frame addressed to a counter.
type CounterUpdate int8

const (
	CounterSet             CounterUpdate = -128
	CounterReset           CounterUpdate = -127
	CounterGetAndSet       CounterUpdate = -126
	CounterIncrementAndGet CounterUpdate = -125
	CounterGetAndIncrement CounterUpdate = -124
	CounterDecrementAndGet CounterUpdate = -123
	CounterGetAndDecrement CounterUpdate = -122
)

// ParseCounterUpdate decodes a counter update subtype.
func ParseCounterUpdate(b byte) (CounterUpdate, bool) {
	u := CounterUpdate(int8(b))
	if u < CounterSet || u > CounterGetAndDecrement {
		return 0, false
	}
	return u, true
}

func (u CounterUpdate) String() string {
	switch u {
	case CounterSet:
		return "SET"
	case CounterReset:
		return "RESET"
	case CounterGetAndSet:
		return "GET_AND_SET"
	case CounterIncrementAndGet:
		return "INCREMENT_AND_GET"
	case CounterGetAndIncrement:
		return "GET_AND_INCREMENT"
	case CounterDecrementAndGet:
		return "DECREMENT_AND_GET"
	case CounterGetAndDecrement:
		return "GET_AND_DECREMENT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int8(u))
	}
}

// MapUpdate is the subtype of an UPDATE frame addressed to a map.
type MapUpdate int8

const (
	MapSet    MapUpdate = -128
	MapRemove MapUpdate = -127
)

// ParseMapUpdate decodes a map update subtype.
func ParseMapUpdate(b byte) (MapUpdate, bool) {
	u := MapUpdate(int8(b))
	if u < MapSet || u > MapRemove {
		return 0, false
	}
	return u, true
}

func (u MapUpdate) String() string {
	switch u {
	case MapSet:
		return "SET"
	case MapRemove:
		return "REMOVE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int8(u))
	}
}

// --------------------------------------------------------------------------
// Container kinds (CREATE payload)
// --------------------------------------------------------------------------

// ContainerKind selects the container factory used by a CREATE frame.
type ContainerKind int8

const (
	KindCounter ContainerKind = -128
	KindMap     ContainerKind = -127
)

// ParseContainerKind decodes a container kind.
func ParseContainerKind(b byte) (ContainerKind, bool) {
	k := ContainerKind(int8(b))
	if k < KindCounter || k > KindMap {
		return 0, false
	}
	return k, true
}

func (k ContainerKind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("unknown(%d)", int8(k))
	}
}
