package server

import (
	"errors"

	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport"
)

// --------------------------------------------------------------------------
// Connection handlers
// --------------------------------------------------------------------------

func (s *Server) handleAuth(session transport.Session, payload *codec.Reader) error {
	if session.IsAuthenticated() {
		return transport.SendPacket(session, common.ServerAuthSuccess.Byte(), nil)
	}
	if !s.authenticator.Authenticate(session, payload) {
		s.metrics.authFailures.Inc()
		Logger.Infof("session %d from %s failed to authenticate", session.ID(), session.RemoteAddr())
		err := transport.SendPacket(session, common.ServerAuthFailed.Byte(), nil)
		session.Close()
		return err
	}
	session.SetAuthenticated(true)
	return transport.SendPacket(session, common.ServerAuthSuccess.Byte(), nil)
}

func (s *Server) handleDisconnect(session transport.Session, _ *codec.Reader) error {
	Logger.Debugf("session %d disconnected", session.ID())
	session.Close()
	return nil
}

// --------------------------------------------------------------------------
// Data handlers
// --------------------------------------------------------------------------

// interaction is the container operation an interactHandler delegates to
type interaction func(c data.Container, session transport.Session, payload *codec.Reader) error

func showInteraction(c data.Container, session transport.Session, payload *codec.Reader) error {
	return c.HandleShow(session, payload)
}

func updateInteraction(c data.Container, session transport.Session, payload *codec.Reader) error {
	return c.HandleUpdate(session, payload)
}

// interactHandler resolves repositoryId and key to a container and hands
// the rest of the payload to it
type interactHandler struct {
	server   *Server
	interact interaction
}

func newInteractHandler(s *Server, interact interaction) IPacketHandler {
	return &interactHandler{server: s, interact: interact}
}

func (h *interactHandler) Handle(session transport.Session, payload *codec.Reader) error {
	repo, key, err := h.server.coordinator.Resolve(payload)
	if err != nil {
		return h.server.resolveMiss(session, err)
	}
	container, ok := repo.Container(key)
	if !ok {
		return h.server.notFound(session)
	}
	return h.interact(container, session, payload)
}

func (s *Server) handleCreate(session transport.Session, payload *codec.Reader) error {
	repo, key, err := s.coordinator.Resolve(payload)
	if err != nil {
		return s.resolveMiss(session, err)
	}
	b, err := payload.Byte()
	if err != nil {
		return s.resolveMiss(session, err)
	}
	kind, ok := common.ParseContainerKind(b)
	if !ok {
		return s.notFound(session)
	}
	created, err := s.coordinator.Create(repo, key, kind)
	if err != nil {
		if errors.Is(err, data.ErrUnknownKind) {
			return s.notFound(session)
		}
		return err
	}
	if created {
		Logger.Debugf("session %d created %s %v in repository %d", session.ID(), kind, key, repo.Identifier())
	}
	buf := codec.NewBufferSize(1)
	buf.PutBool(created)
	return transport.SendBuffer(session, common.ServerResult.Byte(), buf)
}

func (s *Server) handleDelete(session transport.Session, payload *codec.Reader) error {
	repo, key, err := s.coordinator.Resolve(payload)
	if err != nil {
		return s.resolveMiss(session, err)
	}
	if !repo.Remove(key) {
		return s.notFound(session)
	}
	buf := codec.NewBufferSize(1)
	buf.PutBool(true)
	return transport.SendBuffer(session, common.ServerResult.Byte(), buf)
}

// resolveMiss answers a request whose repository, key or kind could not be
// read. Malformed addressing is a miss, the connection stays open.
func (s *Server) resolveMiss(session transport.Session, cause error) error {
	if !errors.Is(cause, data.ErrUnknownRepository) {
		Logger.Debugf("session %d sent an unreadable address: %v", session.ID(), cause)
	}
	return s.notFound(session)
}

func (s *Server) notFound(session transport.Session) error {
	s.metrics.notFound.Inc()
	return transport.SendPacket(session, common.ServerNotFound.Byte(), nil)
}
