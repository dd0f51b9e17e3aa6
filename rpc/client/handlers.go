package client

import (
	"errors"
	"fmt"

	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport"
	"github.com/YvanMazy/Memorized/rpc/transport/base"
)

// registerHandlers binds every server command to its handler
func (c *Client) registerHandlers() {
	c.handlers.Register(common.ServerNotAuthenticated, transport.HandlerFunc(c.handleNotAuthenticated))
	c.handlers.Register(common.ServerAuthFailed, transport.HandlerFunc(c.handleAuthFailed))
	c.handlers.Register(common.ServerAuthSuccess, transport.HandlerFunc(c.handleAuthSuccess))
	c.handlers.Register(common.ServerDisconnect, transport.HandlerFunc(c.handleDisconnect))
	c.handlers.Register(common.ServerResult, transport.HandlerFunc(c.handleResult))
	c.handlers.Register(common.ServerNotFound, transport.HandlerFunc(c.handleNotFound))
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.Handler and base.StopNotifier)
// --------------------------------------------------------------------------

func (c *Client) OnOpen(s *base.Session) error {
	buf := codec.NewBuffer()
	buf.PutByte(common.ClientAuth.Byte())
	c.authInput.Write(buf)
	Logger.Debugf("connected to %s, authenticating", s.RemoteAddr())
	return s.Send(buf.Bytes())
}

func (c *Client) OnFrame(s *base.Session, body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("empty frame")
	}
	cmd, ok := common.ParseServerPacket(body[0])
	if !ok {
		return fmt.Errorf("unknown command %d", int8(body[0]))
	}
	handler, ok := c.handlers.Get(cmd)
	if !ok {
		return fmt.Errorf("no handler for %s", cmd)
	}
	if err := handler.Handle(s, codec.NewReader(body[1:])); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

func (c *Client) OnClose(s *base.Session, cause error) {
	c.setReady(false)
	if lost := c.queue.Lost(cause); lost > 0 {
		c.metrics.lost.Inc(int64(lost))
		Logger.Warningf("connection to %s closed with %d requests in flight: %v", s.RemoteAddr(), lost, cause)
	} else if !errors.Is(cause, base.ErrEngineStopped) {
		Logger.Infof("connection to %s closed: %v", s.RemoteAddr(), cause)
	}

	if c.closed.Load() || c.authFailed.Load() {
		return
	}
	c.metrics.reconnects.Inc(1)
	c.reconnect.Start()
}

func (c *Client) OnStop(s *base.Session) {
	if err := s.Send([]byte{common.ClientDisconnect.Byte()}); err != nil {
		Logger.Debugf("failed to send disconnect: %v", err)
	}
}

// --------------------------------------------------------------------------
// Packet handlers
// --------------------------------------------------------------------------

func (c *Client) handleNotAuthenticated(transport.Session, *codec.Reader) error {
	_, err := c.queue.Fail(ErrNotAuthenticated)
	return err
}

func (c *Client) handleAuthFailed(s transport.Session, _ *codec.Reader) error {
	Logger.Errorf("server %s rejected the credentials, giving up", s.RemoteAddr())
	c.authFailed.Store(true)
	c.queue.Close(ErrAuthenticationFailed)
	c.setReady(false)
	s.Close()
	return nil
}

func (c *Client) handleAuthSuccess(s transport.Session, _ *codec.Reader) error {
	if s.IsAuthenticated() {
		return nil
	}
	s.SetAuthenticated(true)
	Logger.Infof("authenticated to %s", s.RemoteAddr())
	c.queue.Ready(s)
	c.setReady(true)
	return nil
}

func (c *Client) handleDisconnect(s transport.Session, payload *codec.Reader) error {
	reason, err := payload.String()
	if err != nil {
		reason = "no reason"
	}
	Logger.Warningf("server %s disconnected: %s", s.RemoteAddr(), reason)
	s.Close()
	return nil
}

func (c *Client) handleResult(_ transport.Session, payload *codec.Reader) error {
	p, err := c.queue.Complete(payload.Rest(), true)
	if err != nil {
		return err
	}
	c.metrics.roundTrip.UpdateSince(p.sentAt)
	return nil
}

func (c *Client) handleNotFound(transport.Session, *codec.Reader) error {
	p, err := c.queue.Complete(nil, false)
	if err != nil {
		return err
	}
	c.metrics.roundTrip.UpdateSince(p.sentAt)
	return nil
}
