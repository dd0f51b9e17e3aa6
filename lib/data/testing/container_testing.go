package testing

import (
	"sync"
	"testing"

	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
)

// ContainerSuite describes a container implementation for RunContainerTests
type ContainerSuite struct {
	// Factory creates an empty container
	Factory data.Factory

	// Update writes a valid UPDATE payload that always produces a RESULT
	Update func(buf *codec.Buffer)

	// Show writes a valid SHOW payload for an empty container
	Show func(buf *codec.Buffer)
}

// RunContainerTests checks the reply contract every container must honor:
// exactly one reply per valid request, and an error without any reply for
// malformed payloads.
func RunContainerTests(t *testing.T, name string, suite ContainerSuite) {
	t.Run(name, func(t *testing.T) {
		t.Run("UpdateRepliesOnce", func(t *testing.T) {
			testUpdateRepliesOnce(t, suite)
		})

		t.Run("ShowRepliesOnce", func(t *testing.T) {
			testShowRepliesOnce(t, suite)
		})

		t.Run("UnknownSubtype", func(t *testing.T) {
			testUnknownSubtype(t, suite)
		})

		t.Run("EmptyUpdate", func(t *testing.T) {
			testEmptyUpdate(t, suite)
		})

		t.Run("TruncatedUpdate", func(t *testing.T) {
			testTruncatedUpdate(t, suite)
		})

		t.Run("ConcurrentUpdates", func(t *testing.T) {
			testConcurrentUpdates(t, suite)
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func payload(write func(buf *codec.Buffer)) *codec.Reader {
	buf := codec.NewBuffer()
	write(buf)
	return codec.NewReader(buf.Bytes())
}

func testUpdateRepliesOnce(t *testing.T, suite ContainerSuite) {
	c := suite.Factory()
	s := NewSession()

	if err := c.HandleUpdate(s, payload(suite.Update)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	frames := s.Frames()
	if len(frames) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(frames))
	}
	if frames[0].Command != common.ServerResult {
		t.Errorf("expected RESULT, got %s", frames[0].Command)
	}
}

func testShowRepliesOnce(t *testing.T, suite ContainerSuite) {
	c := suite.Factory()
	s := NewSession()

	if err := c.HandleShow(s, payload(suite.Show)); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	frames := s.Frames()
	if len(frames) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(frames))
	}
	if frames[0].Command != common.ServerResult && frames[0].Command != common.ServerNotFound {
		t.Errorf("expected RESULT or NOT_FOUND, got %s", frames[0].Command)
	}
}

func testUnknownSubtype(t *testing.T, suite ContainerSuite) {
	c := suite.Factory()
	s := NewSession()

	rd := codec.NewReader([]byte{127, 0, 0, 0, 1})
	if err := c.HandleUpdate(s, rd); err == nil {
		t.Fatal("expected error for unknown subtype")
	}
	if n := s.Count(); n != 0 {
		t.Errorf("expected no reply, got %d", n)
	}
}

func testEmptyUpdate(t *testing.T, suite ContainerSuite) {
	c := suite.Factory()
	s := NewSession()

	if err := c.HandleUpdate(s, codec.NewReader(nil)); err == nil {
		t.Fatal("expected error for empty update")
	}
	if n := s.Count(); n != 0 {
		t.Errorf("expected no reply, got %d", n)
	}
}

func testTruncatedUpdate(t *testing.T, suite ContainerSuite) {
	c := suite.Factory()
	s := NewSession()

	buf := codec.NewBuffer()
	suite.Update(buf)
	if buf.Len() < 2 {
		t.Skip("update payload has no arguments to truncate")
	}
	rd := codec.NewReader(buf.Bytes()[:buf.Len()-1])
	if err := c.HandleUpdate(s, rd); err == nil {
		t.Fatal("expected error for truncated update")
	}
	if n := s.Count(); n != 0 {
		t.Errorf("expected no reply, got %d", n)
	}
}

func testConcurrentUpdates(t *testing.T, suite ContainerSuite) {
	const goroutines = 8
	const perGoroutine = 250

	c := suite.Factory()
	s := NewSession()

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				if err := c.HandleUpdate(s, payload(suite.Update)); err != nil {
					t.Errorf("update failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if n := s.Count(); n != goroutines*perGoroutine {
		t.Errorf("expected %d replies, got %d", goroutines*perGoroutine, n)
	}
}
