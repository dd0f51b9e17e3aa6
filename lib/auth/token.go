package auth

import (
	"crypto/subtle"

	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/transport"
)

// MaxTokenLength is the largest token accepted on the wire
const MaxTokenLength = 384

// --------------------------------------------------------------------------
// Server side
// --------------------------------------------------------------------------

type tokenAuthenticator struct {
	token []byte
}

// NewTokenAuthenticator accepts sessions presenting exactly the given token.
// Payload format: length:i32 | token bytes.
func NewTokenAuthenticator(token string) Authenticator {
	return &tokenAuthenticator{token: []byte(token)}
}

func (a *tokenAuthenticator) Authenticate(s transport.Session, payload *codec.Reader) bool {
	n, err := payload.Int32()
	if err != nil {
		Logger.Debugf("session %d: malformed token payload: %v", s.ID(), err)
		return false
	}
	// checked before reading, an oversized claim is never compared
	if n < 0 || n > MaxTokenLength || int(n) != len(a.token) {
		Logger.Debugf("session %d: token length %d rejected", s.ID(), n)
		return false
	}
	received, err := payload.Raw(int(n))
	if err != nil {
		Logger.Debugf("session %d: truncated token: %v", s.ID(), err)
		return false
	}
	return subtle.ConstantTimeCompare(received, a.token) == 1
}

// --------------------------------------------------------------------------
// Client side
// --------------------------------------------------------------------------

type tokenInput struct {
	token string
}

// NewTokenInput writes the token in the format NewTokenAuthenticator expects
func NewTokenInput(token string) Input {
	return &tokenInput{token: token}
}

func (i *tokenInput) Write(buf *codec.Buffer) {
	buf.PutString(i.token)
}
