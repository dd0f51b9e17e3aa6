// Package tcp implements the TCP connectors of the Memorized transport.
// The connectors open and tune sockets; the base package event loops take
// them over afterwards.
//
// Key Components:
//
//   - clientConnector: dials with a timeout and applies the client's socket options
//
//   - serverConnector: listens (optionally with SO_REUSEPORT through
//     go_reuseport) and applies the server's socket options to every accepted
//     connection
package tcp
