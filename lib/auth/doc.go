// Package auth contains the two halves of the Memorized handshake: the
// Authenticator consulted by the server when an AUTH frame arrives and the
// Input a client uses to write its AUTH payload.
//
// Two schemes are provided:
//
//   - Token: the payload is a length-prefixed string compared in constant
//     time against the configured token. Lengths above MaxTokenLength or
//     different from the configured token are rejected without comparing.
//
//   - Unsecure: every session is accepted. Meant for tests and trusted
//     local sockets.
//
// Usage Example:
//
//	srv, err := server.NewServer(config, tcp.NewServerConnector(),
//		auth.NewTokenAuthenticator("secret"), codecs, coordinator)
//
//	cli, err := client.NewClient(clientConfig, tcp.NewClientConnector(),
//		auth.NewTokenInput("secret"), codecs, keys)
package auth
