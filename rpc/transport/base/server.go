//go:build linux

package base

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YvanMazy/Memorized/rpc/common"
	"go.uber.org/multierr"
)

const (
	// acceptPollInterval bounds how long the acceptor blocks before it checks
	// the stop flag again
	acceptPollInterval = 100 * time.Millisecond
	acceptErrorBackoff = 10 * time.Millisecond
)

var (
	ErrAlreadyRunning = errors.New("engine already running")
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

type deadlineListener interface {
	SetDeadline(t time.Time) error
}

// -----------------------------------------------------------
// Server engine
// -----------------------------------------------------------

// ServerEngine runs one acceptor and a fixed pool of worker event loops.
// Accepted connections are assigned to workers round-robin; a connection
// never moves between workers.
type ServerEngine struct {
	connector IServerConnector
	config    common.ServerConfig
	handler   Handler

	mu           sync.Mutex
	running      atomic.Bool
	listener     net.Listener
	workers      []*eventLoop
	next         int
	acceptorDone chan struct{}
	workersDone  sync.WaitGroup
}

// NewServerEngine creates an engine. The config must already be validated.
func NewServerEngine(connector IServerConnector, config common.ServerConfig, handler Handler) *ServerEngine {
	return &ServerEngine{
		connector: connector,
		config:    config,
		handler:   handler,
	}
}

// Start binds the listener and starts the workers and the acceptor. It
// returns once every worker is polling.
func (e *ServerEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return ErrAlreadyRunning
	}

	listener, err := e.connector.Listen(e.config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	workerCount := e.config.WorkerThreads
	if workerCount < 1 {
		workerCount = 1
	}

	limits := ServerLimits(e.config)
	workers := make([]*eventLoop, 0, workerCount)
	for i := 0; i < workerCount; i++ {
		w, err := newEventLoop(fmt.Sprintf("worker-%d", i), e.handler, limits)
		if err != nil {
			for _, created := range workers {
				_ = created.poller.Close()
			}
			_ = listener.Close()
			return fmt.Errorf("failed to create worker %d: %w", i, err)
		}
		workers = append(workers, w)
	}

	e.listener = listener
	e.workers = workers
	e.next = 0
	e.running.Store(true)

	// startup barrier: every worker is in its loop before the first accept
	var ready sync.WaitGroup
	ready.Add(len(workers))
	for _, w := range workers {
		e.workersDone.Add(1)
		go func(w *eventLoop) {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			defer e.workersDone.Done()

			ready.Done()
			w.run()
		}(w)
	}
	ready.Wait()

	e.acceptorDone = make(chan struct{})
	go e.accept()

	Logger.Infof("Started %s server on %s with %d workers", e.connector.GetName(), listener.Addr(), len(workers))
	return nil
}

// Stop stops the acceptor, then every worker, then closes the listener.
// Sessions still open are offered to the handler's OnStop and closed.
func (e *ServerEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running.CompareAndSwap(true, false) {
		return nil
	}

	// shutdown barrier: acceptor first, so no session reaches a stopped worker
	<-e.acceptorDone
	for _, w := range e.workers {
		w.stop()
	}
	e.workersDone.Wait()

	var err error
	err = multierr.Append(err, e.listener.Close())
	e.workers = nil

	Logger.Infof("Stopped %s server", e.connector.GetName())
	return err
}

// Running reports whether the engine accepts connections
func (e *ServerEngine) Running() bool {
	return e.running.Load()
}

// Addr returns the bound address, nil before Start
func (e *ServerEngine) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

// accept runs on the acceptor goroutine until Stop
func (e *ServerEngine) accept() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(e.acceptorDone)

	dl, canDeadline := e.listener.(deadlineListener)

	for e.running.Load() {
		if canDeadline {
			_ = dl.SetDeadline(time.Now().Add(acceptPollInterval))
		}

		conn, err := e.listener.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if !e.running.Load() {
				return
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(acceptErrorBackoff)
			continue
		}

		e.handoff(conn)
	}
}

// handoff prepares an accepted connection and assigns it to a worker
func (e *ServerEngine) handoff(conn net.Conn) {
	if err := e.connector.UpgradeConnection(conn, e.config); err != nil {
		Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		_ = conn.Close()
		return
	}

	rc, err := newRawConn(conn, e.config.WriteTimeout())
	if err != nil {
		Logger.Errorf("Failed to take over connection: %v", err)
		return
	}

	s := newSession(rc)
	if err := e.handler.OnOpen(s); err != nil {
		Logger.Warningf("Rejected connection from %s: %v", s.RemoteAddr(), err)
		discard(s)
		return
	}

	w := e.workers[e.next]
	e.next = (e.next + 1) % len(e.workers)
	w.enqueue(s)
}
