package auth

import (
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("auth")

// Authenticator decides whether the AUTH payload of a session is accepted.
// It runs on the event loop owning the session and must not block.
type Authenticator interface {
	// Authenticate returns true if the payload is valid credentials.
	// A malformed payload is a rejection, not an error.
	Authenticate(s transport.Session, payload *codec.Reader) bool
}

// Input writes the AUTH payload on the client side
type Input interface {
	Write(buf *codec.Buffer)
}
