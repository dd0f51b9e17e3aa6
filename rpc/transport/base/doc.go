// Package base provides the protocol independent event loops of Memorized.
// It takes sockets out of the Go runtime netpoller and drives them with its
// own epoll instances, so that every socket is owned by exactly one loop.
//
// The package focuses on:
//   - Length prefixed framing (u32 big-endian length, then the body)
//   - Reassembly of frames from partial non-blocking reads
//   - A server made of one acceptor and a fixed pool of worker loops
//   - A client made of one loop per connection
//
// Key Components:
//
//   - FrameReader: The partial read state machine. AWAITING_LENGTH collects
//     the four prefix bytes; the declared length is then checked against the
//     limit of the session (authenticated or not) before any body buffer is
//     allocated. AWAITING_BODY fills a buffer of exactly that length, which is
//     handed to the dispatcher once complete.
//
//   - Poller: An epoll instance plus an eventfd used to interrupt a blocked
//     wait, for session handoff and shutdown.
//
//   - Session: Socket, authentication flag and frame reader of one connection.
//     Only the owning loop reads from the socket or mutates the session; Send
//     is serialized per socket and may be called from any goroutine.
//
//   - ServerEngine: The acceptor assigns connections round-robin to workers.
//     Start returns once every worker polls. Stop waits for the acceptor, wakes
//     and joins every worker, and only then closes the listener.
//
//   - ClientEngine: Connect blocks the caller until the socket is connected,
//     then the loop sends the handler's opening frame and polls until EOF.
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific
//     operations implemented by the tcp and unix packages.
//
// The loops are Linux only (epoll, eventfd).
package base
