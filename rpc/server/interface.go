package server

import (
	"github.com/YvanMazy/Memorized/rpc/transport"
)

// IPacketHandler is the interface of the handlers registered per client
// command. It is the transport.PacketHandler contract seen from the server:
// the payload starts after the command id, one reply is expected for every
// data command, and an error closes the session.
type IPacketHandler = transport.PacketHandler
