// Package server implements the Memorized server: it accepts connections
// through a base.ServerEngine, gates them behind authentication and
// dispatches their frames to packet handlers.
//
// Key Components:
//
//   - Server: owns the engine, the session directory (xsync.MapOf keyed by
//     session id), the handler registry and the metric set. It implements
//     base.Handler, so every frame of every worker arrives in OnFrame.
//
//   - Authentication gate: a session starts unauthenticated. Until an AUTH
//     frame is accepted by the configured auth.Authenticator every other
//     command is answered with NOT_AUTHENTICATED and otherwise ignored, and
//     frames are limited to UnauthenticatedPacketSizeLimit bytes.
//
//   - Interact handlers: SHOW and UPDATE read repositoryId:i32 and a key,
//     resolve the container through the data.Coordinator and delegate the
//     rest of the payload to it. Any resolution miss is answered with
//     exactly one NOT_FOUND.
//
//   - CREATE and DELETE: create a container of the requested kind (RESULT |
//     created:bool) or remove one (RESULT | true, NOT_FOUND when absent).
//
// Protocol violations (unknown command id, malformed payload, oversized
// frame) close the offending session only.
//
// Usage Example:
//
//	codecs := codec.NewRegistry()
//	coordinator := data.NewDefaultCoordinator(codecs)
//	_ = coordinator.RegisterFactory(common.KindCounter, counter.Factory())
//	_ = data.Put(coordinator, "visits", counter.New(0))
//
//	s, err := server.NewServer(
//	  common.DefaultServerConfig("0.0.0.0:9800"),
//	  tcp.NewServerConnector(),
//	  auth.NewTokenAuthenticator(os.Getenv("MEMORIZED_TOKEN")),
//	  codecs,
//	  coordinator,
//	)
//	if err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//	if err := s.Start(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//	defer s.Shutdown()
//
// Thread Safety:
//
//	Handlers run on the worker owning the session. Sessions of different
//	workers run concurrently, so containers must be safe for concurrent
//	use. Shutdown sends DISCONNECT ("server stopping") to every session
//	before closing it.
package server
