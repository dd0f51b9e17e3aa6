//go:build linux

package base

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sys/unix"
)

var Logger = logger.GetLogger("transport")

const (
	// readBufferSize is the size of the scratch buffer each loop reads into
	readBufferSize = 64 * 1024
)

var (
	// ErrEngineStopped is the close cause of sessions still open at shutdown
	ErrEngineStopped = errors.New("event loop stopped")
	// ErrCloseRequested is the close cause of sessions closed through Session.Close
	ErrCloseRequested = errors.New("close requested")
)

// --------------------------------------------------------------------------
// Handler
// --------------------------------------------------------------------------

// Handler receives the events of the event loops.
type Handler interface {
	// OnOpen runs once per session before it is polled. An error closes it.
	OnOpen(s *Session) error
	// OnFrame runs on the owning loop for every complete frame body. An error
	// is a protocol violation and closes the session.
	OnFrame(s *Session, body []byte) error
	// OnClose runs on the owning loop after the socket is closed.
	OnClose(s *Session, cause error)
}

// StopNotifier is implemented by handlers that address sessions right before
// the loop owning them stops and closes them.
type StopNotifier interface {
	OnStop(s *Session)
}

// Limits are the frame size limits applied by the partial read state machine
type Limits struct {
	Authenticated   int
	Unauthenticated int
}

// For returns the limit active for s
func (l Limits) For(s *Session) int {
	if s.IsAuthenticated() {
		return l.Authenticated
	}
	return l.Unauthenticated
}

// ServerLimits returns the limits of a server config
func ServerLimits(c common.ServerConfig) Limits {
	return Limits{Authenticated: c.PacketSizeLimit, Unauthenticated: c.UnauthenticatedPacketSizeLimit}
}

// ClientLimits returns the limits of a client config
func ClientLimits(c common.ClientConfig) Limits {
	return Limits{Authenticated: c.PacketSizeLimit, Unauthenticated: c.UnauthenticatedPacketSizeLimit}
}

// --------------------------------------------------------------------------
// Event loop
// --------------------------------------------------------------------------

// eventLoop owns one poller and a disjoint set of sessions. Everything but
// enqueue, requestClose and stop runs on the loop goroutine.
type eventLoop struct {
	name     string
	poller   *Poller
	handler  Handler
	limits   Limits
	sessions map[int]*Session
	scratch  []byte

	// exitWhenEmpty stops the loop once its last session is closed
	exitWhenEmpty bool

	mu        sync.Mutex
	inbox     []*Session
	closeReqs []*Session

	stopped atomic.Bool
}

func newEventLoop(name string, handler Handler, limits Limits) (*eventLoop, error) {
	poller, err := NewPoller()
	if err != nil {
		return nil, err
	}
	return &eventLoop{
		name:     name,
		poller:   poller,
		handler:  handler,
		limits:   limits,
		sessions: make(map[int]*Session),
		scratch:  make([]byte, readBufferSize),
	}, nil
}

// enqueue hands a session over to the loop. Safe from any goroutine.
func (l *eventLoop) enqueue(s *Session) {
	s.wake = func() { l.requestClose(s) }
	l.mu.Lock()
	l.inbox = append(l.inbox, s)
	l.mu.Unlock()
	l.wakeup()
}

// requestClose schedules s for closing. Safe from any goroutine.
func (l *eventLoop) requestClose(s *Session) {
	l.mu.Lock()
	l.closeReqs = append(l.closeReqs, s)
	l.mu.Unlock()
	l.wakeup()
}

// stop makes the loop close its sessions and exit. Safe from any goroutine.
func (l *eventLoop) stop() {
	l.stopped.Store(true)
	l.wakeup()
}

func (l *eventLoop) wakeup() {
	if err := l.poller.Wake(); err != nil {
		Logger.Warningf("[%s] failed to wake poller: %v", l.name, err)
	}
}

// run polls until stop is called. It closes every remaining session and the
// poller before returning.
func (l *eventLoop) run() {
	for !l.stopped.Load() {
		if _, err := l.poller.Wait(l.onEvent); err != nil {
			Logger.Errorf("[%s] poller failed: %v", l.name, err)
			break
		}
		l.drain()
		if l.exitWhenEmpty && len(l.sessions) == 0 && !l.hasPending() {
			break
		}
	}

	l.drain()
	notifier, _ := l.handler.(StopNotifier)
	for _, s := range l.sessions {
		if notifier != nil {
			notifier.OnStop(s)
		}
		l.closeSession(s, ErrEngineStopped)
	}
	if err := l.poller.Close(); err != nil {
		Logger.Warningf("[%s] failed to close poller: %v", l.name, err)
	}
}

func (l *eventLoop) hasPending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inbox) > 0
}

// drain registers new sessions and closes the ones requested
func (l *eventLoop) drain() {
	l.mu.Lock()
	inbox, closeReqs := l.inbox, l.closeReqs
	l.inbox, l.closeReqs = nil, nil
	l.mu.Unlock()

	for _, s := range inbox {
		l.add(s)
	}
	for _, s := range closeReqs {
		l.closeSession(s, ErrCloseRequested)
	}
}

// add registers s with the poller
func (l *eventLoop) add(s *Session) {
	if s.wake == nil {
		s.wake = func() { l.requestClose(s) }
	}
	l.sessions[s.conn.fd] = s
	if err := l.poller.Add(s.conn.fd); err != nil {
		Logger.Errorf("[%s] failed to register %s: %v", l.name, s.RemoteAddr(), err)
		l.closeSession(s, err)
		return
	}
	// Close may have been requested before the session was registered
	if s.closing.Load() {
		l.closeSession(s, ErrCloseRequested)
	}
}

func (l *eventLoop) onEvent(fd int, events uint32) {
	s, ok := l.sessions[fd]
	if !ok {
		return
	}
	if events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		l.read(s)
	}
}

// read drains the socket into the session's frame reader
func (l *eventLoop) read(s *Session) {
	limit := func() int { return l.limits.For(s) }
	deliver := func(body []byte) error {
		if err := l.handler.OnFrame(s, body); err != nil {
			return err
		}
		if s.closing.Load() {
			return ErrCloseRequested
		}
		return nil
	}

	for {
		n, err := s.conn.read(l.scratch)
		if err != nil {
			l.closeSession(s, err)
			return
		}
		if n == 0 {
			return
		}
		if err := s.reader.Feed(l.scratch[:n], limit, deliver); err != nil {
			l.closeSession(s, err)
			return
		}
		if n < len(l.scratch) {
			return
		}
	}
}

// closeSession unregisters and closes s, then reports it to the handler
func (l *eventLoop) closeSession(s *Session, cause error) {
	fd := s.conn.fd
	if current, ok := l.sessions[fd]; !ok || current != s {
		return
	}
	delete(l.sessions, fd)
	_ = l.poller.Remove(fd)

	s.closing.Store(true)
	s.closed.Store(true)
	s.reader.Reset()
	if err := s.conn.close(); err != nil {
		Logger.Debugf("[%s] failed to close %s: %v", l.name, s.RemoteAddr(), err)
	}
	l.handler.OnClose(s, cause)
}

// discard closes a session that never reached a loop
func discard(s *Session) {
	s.closing.Store(true)
	s.closed.Store(true)
	_ = s.conn.close()
}
