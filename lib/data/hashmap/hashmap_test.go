package hashmap

import (
	"testing"

	datatesting "github.com/YvanMazy/Memorized/lib/data/testing"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
)

var codecs = codec.NewRegistry()

func TestMapContract(t *testing.T) {
	datatesting.RunContainerTests(t, "Map", datatesting.ContainerSuite{
		Factory: Factory[string, string](codecs),
		Update: func(buf *codec.Buffer) {
			buf.PutInt8(int8(common.MapSet)).PutString("key").PutString("value")
		},
		Show: func(buf *codec.Buffer) {
			buf.PutString("key")
		},
	})
}

func BenchmarkMap(b *testing.B) {
	datatesting.RunContainerBenchmarks(b, "Map", datatesting.ContainerSuite{
		Factory: Factory[string, string](codecs),
		Update: func(buf *codec.Buffer) {
			buf.PutInt8(int8(common.MapSet)).PutString("key").PutString("value")
		},
		Show: func(buf *codec.Buffer) {
			buf.PutString("key")
		},
	})
}

func set(t *testing.T, m *Map[string, int64], s *datatesting.Session, key string, value int64) {
	t.Helper()
	buf := codec.NewBuffer()
	buf.PutInt8(int8(common.MapSet)).PutString(key).PutInt64(value)
	if err := m.HandleUpdate(s, codec.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("set failed: %v", err)
	}
}

func remove(t *testing.T, m *Map[string, int64], s *datatesting.Session, key string) {
	t.Helper()
	buf := codec.NewBuffer()
	buf.PutInt8(int8(common.MapRemove)).PutString(key)
	if err := m.HandleUpdate(s, codec.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
}

func show(t *testing.T, m *Map[string, int64], s *datatesting.Session, key string) datatesting.Frame {
	t.Helper()
	buf := codec.NewBuffer()
	buf.PutString(key)
	if err := m.HandleShow(s, codec.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	f, ok := s.Last()
	if !ok {
		t.Fatal("show sent no reply")
	}
	return f
}

func TestMapSetAndShow(t *testing.T) {
	m := New[string, int64](codecs)
	s := datatesting.NewSession()

	set(t, m, s, "a", 42)
	f := show(t, m, s, "a")
	if f.Command != common.ServerResult {
		t.Fatalf("expected RESULT, got %s", f.Command)
	}
	v, err := f.Reader().Int64()
	if err != nil || v != 42 {
		t.Errorf("expected 42, got %d (%v)", v, err)
	}
}

func TestMapShowMissing(t *testing.T) {
	m := New[string, int64](codecs)
	s := datatesting.NewSession()

	f := show(t, m, s, "missing")
	if f.Command != common.ServerNotFound {
		t.Errorf("expected NOT_FOUND, got %s", f.Command)
	}
}

func TestMapSetIdempotent(t *testing.T) {
	m := New[string, int64](codecs)
	s := datatesting.NewSession()

	set(t, m, s, "a", 1)
	set(t, m, s, "a", 1)
	if m.Size() != 1 {
		t.Errorf("expected 1 entry, got %d", m.Size())
	}
	if v, _ := m.Load("a"); v != 1 {
		t.Errorf("expected 1, got %d", v)
	}
}

func TestMapRemoveIdempotent(t *testing.T) {
	m := New[string, int64](codecs)
	s := datatesting.NewSession()

	set(t, m, s, "a", 1)
	remove(t, m, s, "a")
	remove(t, m, s, "a")

	if m.Size() != 0 {
		t.Errorf("expected empty map, got %d entries", m.Size())
	}
	for i, f := range s.Frames() {
		if f.Command != common.ServerResult || len(f.Payload) != 0 {
			t.Errorf("reply %d: expected empty RESULT, got %s with %d bytes", i, f.Command, len(f.Payload))
		}
	}
	if f := show(t, m, s, "a"); f.Command != common.ServerNotFound {
		t.Errorf("expected NOT_FOUND after remove, got %s", f.Command)
	}
}

func TestMapWrongValueType(t *testing.T) {
	m := New[string, int64](codecs)
	s := datatesting.NewSession()

	// an i32 value where an i64 is expected
	buf := codec.NewBuffer()
	buf.PutInt8(int8(common.MapSet)).PutString("a").PutInt32(1)
	if err := m.HandleUpdate(s, codec.NewReader(buf.Bytes())); err == nil {
		t.Fatal("expected decode error")
	}
	if s.Count() != 0 {
		t.Errorf("expected no reply, got %d", s.Count())
	}
}
