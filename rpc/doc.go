// Package rpc is the communication layer of Memorized, a remote data
// structure server. Clients address containers (counters, maps) hosted by
// the server through a compact binary protocol over TCP or Unix sockets.
//
// The package is organized into several subpackages:
//
//   - common: command ids, update subtypes, container kinds, configuration
//     structures and the logger factory.
//
//   - codec: growable big-endian buffer, bounds-checked reader and the
//     type registries used to encode keys and values.
//
//   - transport: the Session contract and handler registry, with the epoll
//     event loops in base and the connectors in tcp and unix.
//
//   - server: accepts sessions, authenticates them and dispatches their
//     requests to the containers of a data.Coordinator.
//
//   - client: keeps an authenticated connection, correlates replies with
//     requests in FIFO order and reconnects after losses.
//
// Wire format of one frame:
//
//	length:u32 | commandId:i8 | payload
//
// length counts the command id and the payload, not itself. All integers
// are big-endian; strings are length:i32 followed by UTF-8 bytes.
package rpc
