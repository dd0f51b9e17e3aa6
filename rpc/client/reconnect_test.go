package client

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestReconnectUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	m := NewReconnectManager(10*time.Millisecond, func() error {
		if attempts.Add(1) < 3 {
			return errors.New("refused")
		}
		return nil
	})

	m.Start()
	m.Start()

	deadline := time.Now().Add(2 * time.Second)
	for m.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.Running() {
		t.Fatal("Expected manager to stop after a successful attempt")
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("Expected 3 attempts, got %d", n)
	}
}

func TestReconnectStop(t *testing.T) {
	var attempts atomic.Int32
	m := NewReconnectManager(5*time.Millisecond, func() error {
		attempts.Add(1)
		return errors.New("refused")
	})

	m.Start()
	time.Sleep(30 * time.Millisecond)
	m.Stop()
	after := attempts.Load()

	time.Sleep(30 * time.Millisecond)
	if attempts.Load() != after {
		t.Errorf("Expected no attempts after Stop, got %d more", attempts.Load()-after)
	}
	if m.Running() {
		t.Error("Expected manager to be stopped")
	}
	m.Stop()
}

func TestReconnectRearmedDuringAttempt(t *testing.T) {
	var attempts atomic.Int32
	var m *ReconnectManager
	m = NewReconnectManager(5*time.Millisecond, func() error {
		// the first connection drops before the loop disarms
		if attempts.Add(1) == 1 {
			m.Start()
		}
		return nil
	})

	m.Start()

	deadline := time.Now().Add(2 * time.Second)
	for (m.Running() || attempts.Load() < 2) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("Expected 2 attempts, got %d", n)
	}
	if m.Running() {
		t.Error("Expected manager to stop after the second attempt")
	}
}

func TestReconnectStartAfterDisarm(t *testing.T) {
	var attempts atomic.Int32
	m := NewReconnectManager(5*time.Millisecond, func() error {
		attempts.Add(1)
		return nil
	})

	for i := 1; i <= 3; i++ {
		m.Start()
		deadline := time.Now().Add(2 * time.Second)
		for attempts.Load() < int32(i) && time.Now().Before(deadline) {
			time.Sleep(2 * time.Millisecond)
		}
		for m.Running() && time.Now().Before(deadline) {
			time.Sleep(2 * time.Millisecond)
		}
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("Expected one attempt per Start, got %d", n)
	}
}
