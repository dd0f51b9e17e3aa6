// Package unix implements the Unix domain socket connectors of the Memorized
// transport, for clients running on the same machine as the server.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Removes a stale socket file, listens on the socket path
//     and unlinks it again when the listener closes
//
// Only the socket buffer sizes of SocketConf apply; TCPConf is ignored.
package unix
