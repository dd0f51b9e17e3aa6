// Package transport defines the contracts shared by the Memorized event loops
// and the code they dispatch to.
//
// Key Components:
//
//   - Session: One connection. Handlers reply through Send and mark the
//     connection authenticated or closed. Only the owning event loop mutates a
//     session, Send is serialized per socket and safe from any goroutine.
//
//   - PacketHandler: Processes the payload of one frame. Errors are protocol
//     violations and close the connection.
//
//   - HandlerRegistry: Command id to handler mapping. The server keys it by
//     common.ClientPacket, the client by common.ServerPacket.
//
// The event loops themselves live in the base package. The tcp and unix
// packages provide the connectors that open sockets for them.
package transport
