package auth

import (
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/transport"
)

type unsecureAuthenticator struct{}

// NewUnsecureAuthenticator accepts every session, whatever the payload
func NewUnsecureAuthenticator() Authenticator {
	return unsecureAuthenticator{}
}

func (unsecureAuthenticator) Authenticate(transport.Session, *codec.Reader) bool {
	return true
}

type unsecureInput struct{}

// NewUnsecureInput sends an empty AUTH payload
func NewUnsecureInput() Input {
	return unsecureInput{}
}

func (unsecureInput) Write(*codec.Buffer) {}
