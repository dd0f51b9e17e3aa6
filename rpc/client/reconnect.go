package client

import (
	"sync"
	"time"
)

// ReconnectManager retries a connect function at a fixed delay until one
// attempt succeeds.
type ReconnectManager struct {
	delay   time.Duration
	connect func() error

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
	// rearm is set by Start while an attempt runs; the loop keeps going
	// instead of exiting after that attempt succeeds
	rearm bool
}

// NewReconnectManager creates a stopped manager
func NewReconnectManager(delay time.Duration, connect func() error) *ReconnectManager {
	return &ReconnectManager{delay: delay, connect: connect}
}

// Start arms the retry loop. Calling Start while it runs makes the loop
// retry once more even if its current attempt succeeds.
func (m *ReconnectManager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stop != nil {
		m.rearm = true
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	m.stop, m.done = stop, done
	go m.run(stop, done)
}

func (m *ReconnectManager) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.delay)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		m.rearm = false
		m.mu.Unlock()

		err := m.connect()
		if err == nil {
			m.mu.Lock()
			if m.stop == stop && m.rearm {
				// the new connection was lost before the loop could disarm
				m.mu.Unlock()
				Logger.Warningf("connection lost right after reconnecting, retrying in %s", m.delay)
				continue
			}
			if m.stop == stop {
				m.stop, m.done = nil, nil
			}
			m.mu.Unlock()
			Logger.Infof("reconnected after %d attempts", attempt)
			return
		}
		Logger.Warningf("reconnect attempt %d failed, retrying in %s: %v", attempt, m.delay, err)
	}
}

// Stop ends the retry loop and waits for a running attempt to finish
func (m *ReconnectManager) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.rearm = false
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the retry loop is armed
func (m *ReconnectManager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop != nil
}
