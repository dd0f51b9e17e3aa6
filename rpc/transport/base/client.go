//go:build linux

package base

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/YvanMazy/Memorized/rpc/common"
)

var (
	ErrAlreadyConnected = errors.New("already connected")
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Client engine
// -----------------------------------------------------------

type connectResult struct {
	session *Session
	err     error
}

// ClientEngine drives one connection on a dedicated loop goroutine:
// connect, signal connected, OnOpen, then poll until the connection ends.
type ClientEngine struct {
	connector IClientConnector
	config    common.ClientConfig
	handler   Handler

	mu      sync.Mutex
	loop    *eventLoop
	session *Session
	done    chan struct{}
}

// NewClientEngine creates an engine. The config must already be validated.
func NewClientEngine(connector IClientConnector, config common.ClientConfig, handler Handler) *ClientEngine {
	return &ClientEngine{
		connector: connector,
		config:    config,
		handler:   handler,
	}
}

// Connect starts a loop goroutine and blocks until its connection is
// established or failed. OnOpen runs on the loop after Connect returned.
func (e *ClientEngine) Connect() (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil && !e.session.closed.Load() {
		return nil, ErrAlreadyConnected
	}

	loop, err := newEventLoop("client", e.handler, ClientLimits(e.config))
	if err != nil {
		return nil, err
	}
	loop.exitWhenEmpty = true

	connected := make(chan connectResult, 1)
	done := make(chan struct{})
	go e.run(loop, connected, done)

	res := <-connected
	if res.err != nil {
		<-done
		return nil, res.err
	}

	e.loop = loop
	e.session = res.session
	e.done = done
	return res.session, nil
}

// run is the body of the loop goroutine
func (e *ClientEngine) run(loop *eventLoop, connected chan<- connectResult, done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	fail := func(err error) {
		_ = loop.poller.Close()
		connected <- connectResult{err: err}
	}

	conn, err := e.connector.Connect(e.config.Endpoint, e.config.DialTimeout())
	if err != nil {
		fail(fmt.Errorf("failed to connect to %s: %w", e.config.Endpoint, err))
		return
	}
	if err := e.connector.UpgradeConnection(conn, e.config); err != nil {
		_ = conn.Close()
		fail(fmt.Errorf("failed to upgrade connection to %s: %w", e.config.Endpoint, err))
		return
	}
	rc, err := newRawConn(conn, e.config.WriteTimeout())
	if err != nil {
		fail(err)
		return
	}

	s := newSession(rc)
	loop.add(s)
	if s.closed.Load() {
		fail(fmt.Errorf("failed to register connection to %s", e.config.Endpoint))
		return
	}

	// connected signal: the caller may enqueue from here on
	connected <- connectResult{session: s}

	if err := e.handler.OnOpen(s); err != nil {
		Logger.Warningf("Connection to %s rejected: %v", e.config.Endpoint, err)
		loop.closeSession(s, err)
	}

	loop.run()
}

// Close stops the loop and waits until its connection is closed
func (e *ClientEngine) Close() error {
	e.mu.Lock()
	loop, done := e.loop, e.done
	e.loop, e.done = nil, nil
	e.mu.Unlock()

	if loop == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	default:
	}
	loop.stop()
	<-done
	return nil
}

// Session returns the current session, nil before the first connect
func (e *ClientEngine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}
