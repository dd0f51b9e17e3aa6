package server

import (
	"errors"
	"fmt"

	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport"
	"github.com/YvanMazy/Memorized/rpc/transport/base"
)

// stopReason is sent with the DISCONNECT every session receives on shutdown
const stopReason = "server stopping"

// --------------------------------------------------------------------------
// Interface Methods (docu see base.Handler and base.StopNotifier)
// --------------------------------------------------------------------------

func (s *Server) OnOpen(session *base.Session) error {
	s.sessions.Store(session.ID(), session)
	Logger.Debugf("session %d opened from %s", session.ID(), session.RemoteAddr())
	return nil
}

func (s *Server) OnFrame(session *base.Session, body []byte) error {
	s.metrics.frameSize.Update(float64(len(body)))
	s.metrics.framesReceived.Inc()

	if len(body) == 0 {
		s.metrics.framesRejected.Inc()
		return fmt.Errorf("empty frame")
	}
	cmd, ok := common.ParseClientPacket(body[0])
	if !ok {
		s.metrics.framesRejected.Inc()
		return fmt.Errorf("unknown command %d", int8(body[0]))
	}

	// only AUTH passes the gate, anything else is answered and dropped
	if cmd != common.ClientAuth && !session.IsAuthenticated() {
		s.metrics.framesRejected.Inc()
		return transport.SendPacket(session, common.ServerNotAuthenticated.Byte(), nil)
	}

	handler, ok := s.handlers.Get(cmd)
	if !ok {
		s.metrics.framesRejected.Inc()
		return fmt.Errorf("no handler for %s", cmd)
	}
	if err := handler.Handle(session, codec.NewReader(body[1:])); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

func (s *Server) OnClose(session *base.Session, cause error) {
	s.sessions.Delete(session.ID())
	if cause != nil && !errors.Is(cause, base.ErrCloseRequested) && !errors.Is(cause, base.ErrEngineStopped) {
		Logger.Debugf("session %d from %s closed: %v", session.ID(), session.RemoteAddr(), cause)
	}
}

func (s *Server) OnStop(session *base.Session) {
	buf := codec.NewBuffer()
	buf.PutString(stopReason)
	if err := transport.SendBuffer(session, common.ServerDisconnect.Byte(), buf); err != nil {
		Logger.Debugf("failed to notify session %d: %v", session.ID(), err)
	}
}

// Broadcast sends one frame to every authenticated session. It returns the
// number of sessions reached.
func (s *Server) Broadcast(cmd common.ServerPacket, payload []byte) int {
	sent := 0
	s.sessions.Range(func(_ uint64, session transport.Session) bool {
		if session.IsAuthenticated() && transport.SendPacket(session, cmd.Byte(), payload) == nil {
			sent++
		}
		return true
	})
	return sent
}
