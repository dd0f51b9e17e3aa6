package server

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/YvanMazy/Memorized/lib/auth"
	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/lib/data/counter"
	"github.com/YvanMazy/Memorized/lib/data/hashmap"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport/base"
	"github.com/YvanMazy/Memorized/rpc/transport/tcp"
)

const testToken = "s3cr3t"

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func startServer(t *testing.T) *Server {
	t.Helper()
	config := common.DefaultServerConfig("127.0.0.1:0")
	config.WorkerThreads = 2
	config.LogLevel = "error"

	codecs := codec.NewRegistry()
	coordinator := data.NewDefaultCoordinator(codecs)
	if err := coordinator.RegisterFactory(common.KindCounter, counter.Factory()); err != nil {
		t.Fatalf("Failed to register counter factory: %v", err)
	}
	if err := coordinator.RegisterFactory(common.KindMap, hashmap.Factory[string, string](codecs)); err != nil {
		t.Fatalf("Failed to register map factory: %v", err)
	}
	if err := data.Put(coordinator, "hits", counter.New(10)); err != nil {
		t.Fatalf("Failed to preload counter: %v", err)
	}

	s, err := NewServer(config, tcp.NewServerConnector(), auth.NewTokenAuthenticator(testToken), codecs, coordinator)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func dial(t *testing.T, s *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func frame(cmd common.ClientPacket, payload *codec.Buffer) []byte {
	body := []byte{cmd.Byte()}
	if payload != nil {
		body = append(body, payload.Bytes()...)
	}
	return base.AppendFrame(nil, body)
}

func send(t *testing.T, conn net.Conn, frames ...[]byte) {
	t.Helper()
	if _, err := conn.Write(bytes.Join(frames, nil)); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
}

func receive(t *testing.T, conn net.Conn) (common.ServerPacket, *codec.Reader) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var header [4]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}
	body := make([]byte, binary.BigEndian.Uint32(header[:]))
	if _, err := io.ReadFull(conn, body); err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("Received empty frame")
	}
	return common.ServerPacket(int8(body[0])), codec.NewReader(body[1:])
}

func expect(t *testing.T, conn net.Conn, want common.ServerPacket) *codec.Reader {
	t.Helper()
	got, rd := receive(t, conn)
	if got != want {
		t.Fatalf("Expected %s, got %s", want, got)
	}
	return rd
}

func expectClosed(t *testing.T, conn net.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("Expected EOF, got %v", err)
	}
}

func authFrame(token string) []byte {
	return frame(common.ClientAuth, codec.NewBuffer().PutString(token))
}

func authenticate(t *testing.T, conn net.Conn) {
	t.Helper()
	send(t, conn, authFrame(testToken))
	expect(t, conn, common.ServerAuthSuccess)
}

func counterUpdate(key string, u common.CounterUpdate, arg int32) []byte {
	buf := codec.NewBuffer().PutInt32(codec.StringKeyID).PutString(key).PutInt8(int8(u))
	if u != common.CounterReset {
		buf.PutInt32(arg)
	}
	return frame(common.ClientUpdate, buf)
}

func show(repo int32, key string) []byte {
	return frame(common.ClientShow, codec.NewBuffer().PutInt32(repo).PutString(key))
}

func readInt32(t *testing.T, rd *codec.Reader) int32 {
	t.Helper()
	v, err := rd.Int32()
	if err != nil {
		t.Fatalf("Failed to decode i32: %v", err)
	}
	return v
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestAuthSuccess(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)

	authenticate(t, conn)

	// a second AUTH is answered without a check
	send(t, conn, authFrame("ignored"))
	expect(t, conn, common.ServerAuthSuccess)
}

func TestAuthFailure(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)

	send(t, conn, authFrame("wrong!"))
	expect(t, conn, common.ServerAuthFailed)
	expectClosed(t, conn)
}

func TestUnauthenticatedGate(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)

	send(t, conn, show(codec.StringKeyID, "hits"))
	expect(t, conn, common.ServerNotAuthenticated)

	// the connection survives and can still authenticate
	authenticate(t, conn)
	rd := expectShow(t, conn, "hits")
	if v := readInt32(t, rd); v != 10 {
		t.Errorf("Expected 10, got %d", v)
	}
}

func expectShow(t *testing.T, conn net.Conn, key string) *codec.Reader {
	t.Helper()
	send(t, conn, show(codec.StringKeyID, key))
	return expect(t, conn, common.ServerResult)
}

func TestUnauthenticatedOversizedFrame(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)

	big := codec.NewBuffer().PutString(strings.Repeat("x", common.DefaultUnauthenticatedPacketSizeLimit))
	send(t, conn, frame(common.ClientAuth, big))
	expectClosed(t, conn)
}

func TestUnknownCommandCloses(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	authenticate(t, conn)

	send(t, conn, base.AppendFrame(nil, []byte{0x7f}))
	expectClosed(t, conn)
}

func TestDispatchMiss(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	authenticate(t, conn)

	send(t, conn,
		show(99, "hits"),
		show(codec.StringKeyID, "absent"),
		counterUpdate("absent", common.CounterIncrementAndGet, 1),
	)
	for i := 0; i < 3; i++ {
		expect(t, conn, common.ServerNotFound)
	}

	// the session is still usable
	if v := readInt32(t, expectShow(t, conn, "hits")); v != 10 {
		t.Errorf("Expected 10, got %d", v)
	}
}

func TestMalformedAddressIsMiss(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	authenticate(t, conn)

	keyID := codec.StringKeyID
	send(t, conn,
		// string prefix claims 50 bytes, only 3 follow
		frame(common.ClientShow, codec.NewBuffer().PutInt32(keyID).PutInt32(50).PutRaw([]byte("hit"))),
		// negative string length
		frame(common.ClientShow, codec.NewBuffer().PutInt32(keyID).PutInt32(-1)),
		// truncated repository id
		frame(common.ClientShow, codec.NewBuffer().PutInt16(0)),
		frame(common.ClientUpdate, codec.NewBuffer().PutInt32(keyID).PutInt32(8).PutRaw([]byte("h"))),
		// key present, kind missing
		frame(common.ClientCreate, codec.NewBuffer().PutInt32(keyID).PutString("fresh")),
		frame(common.ClientDelete, codec.NewBuffer().PutInt32(keyID)),
	)
	for i := 0; i < 6; i++ {
		expect(t, conn, common.ServerNotFound)
	}

	// the session is still usable
	if v := readInt32(t, expectShow(t, conn, "hits")); v != 10 {
		t.Errorf("Expected 10, got %d", v)
	}
	if n := s.Sessions(); n != 1 {
		t.Errorf("Expected the session to stay open, got %d sessions", n)
	}
}

func TestCounterOverWire(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	authenticate(t, conn)

	// all frames in one write: replies come back in request order
	send(t, conn,
		counterUpdate("hits", common.CounterIncrementAndGet, 5),
		counterUpdate("hits", common.CounterGetAndDecrement, 3),
		counterUpdate("hits", common.CounterSet, 100),
		counterUpdate("hits", common.CounterGetAndSet, 7),
		counterUpdate("hits", common.CounterReset, 0),
		show(codec.StringKeyID, "hits"),
	)

	if v := readInt32(t, expect(t, conn, common.ServerResult)); v != 15 {
		t.Errorf("INCREMENT_AND_GET: expected 15, got %d", v)
	}
	if v := readInt32(t, expect(t, conn, common.ServerResult)); v != 15 {
		t.Errorf("GET_AND_DECREMENT: expected 15, got %d", v)
	}
	if rd := expect(t, conn, common.ServerResult); rd.Remaining() != 0 {
		t.Errorf("SET: expected empty result, got %d bytes", rd.Remaining())
	}
	if v := readInt32(t, expect(t, conn, common.ServerResult)); v != 100 {
		t.Errorf("GET_AND_SET: expected 100, got %d", v)
	}
	if rd := expect(t, conn, common.ServerResult); rd.Remaining() != 0 {
		t.Errorf("RESET: expected empty result, got %d bytes", rd.Remaining())
	}
	if v := readInt32(t, expect(t, conn, common.ServerResult)); v != 0 {
		t.Errorf("SHOW: expected 0, got %d", v)
	}
}

func TestCreateAndDelete(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	authenticate(t, conn)

	create := func(key string, kind common.ContainerKind) []byte {
		return frame(common.ClientCreate, codec.NewBuffer().PutInt32(codec.StringKeyID).PutString(key).PutInt8(int8(kind)))
	}
	remove := func(key string) []byte {
		return frame(common.ClientDelete, codec.NewBuffer().PutInt32(codec.StringKeyID).PutString(key))
	}

	send(t, conn, create("colors", common.KindMap))
	if ok, _ := expect(t, conn, common.ServerResult).Bool(); !ok {
		t.Error("Expected map to be created")
	}
	send(t, conn, create("colors", common.KindCounter))
	if ok, _ := expect(t, conn, common.ServerResult).Bool(); ok {
		t.Error("Expected existing container to be kept")
	}

	set := codec.NewBuffer().PutInt32(codec.StringKeyID).PutString("colors").
		PutInt8(int8(common.MapSet)).PutString("sky").PutString("blue")
	send(t, conn, frame(common.ClientUpdate, set))
	expect(t, conn, common.ServerResult)

	get := codec.NewBuffer().PutInt32(codec.StringKeyID).PutString("colors").PutString("sky")
	send(t, conn, frame(common.ClientShow, get))
	if v, _ := expect(t, conn, common.ServerResult).String(); v != "blue" {
		t.Errorf("Expected blue, got %q", v)
	}

	send(t, conn, remove("colors"))
	if ok, _ := expect(t, conn, common.ServerResult).Bool(); !ok {
		t.Error("Expected delete to succeed")
	}
	send(t, conn, remove("colors"))
	expect(t, conn, common.ServerNotFound)
}

func TestBroadcastReachesAuthenticatedSessions(t *testing.T) {
	s := startServer(t)
	member := dial(t, s)
	authenticate(t, member)
	stranger := dial(t, s)

	deadline := time.Now().Add(2 * time.Second)
	for s.Sessions() != 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	notice := codec.NewBuffer().PutString("maintenance")
	if n := s.Broadcast(common.ServerDisconnect, notice.Bytes()); n != 1 {
		t.Fatalf("Expected 1 session reached, got %d", n)
	}

	if reason, _ := expect(t, member, common.ServerDisconnect).String(); reason != "maintenance" {
		t.Errorf("Expected reason maintenance, got %q", reason)
	}

	_ = stranger.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var one [1]byte
	_, err := stranger.Read(one[:])
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Errorf("Expected nothing for an unauthenticated session, got %v", err)
	}
}

func TestShutdownNotifiesSessions(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	authenticate(t, conn)

	deadline := time.Now().Add(2 * time.Second)
	for s.Sessions() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Sessions() != 1 {
		t.Fatalf("Expected 1 session, got %d", s.Sessions())
	}

	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	reason, err := expect(t, conn, common.ServerDisconnect).String()
	if err != nil || reason != stopReason {
		t.Errorf("Expected reason %q, got %q (%v)", stopReason, reason, err)
	}
	expectClosed(t, conn)
	if s.Sessions() != 0 {
		t.Errorf("Expected no sessions after shutdown, got %d", s.Sessions())
	}
}

func TestClientDisconnect(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	authenticate(t, conn)

	send(t, conn, frame(common.ClientDisconnect, nil))
	expectClosed(t, conn)
}

func TestWritePrometheus(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	send(t, conn, authFrame("wrong!"))
	expect(t, conn, common.ServerAuthFailed)

	var out bytes.Buffer
	s.WritePrometheus(&out)
	for _, name := range []string{
		"memorized_server_sessions",
		"memorized_server_frames_received_total 1",
		"memorized_server_auth_failures_total 1",
	} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("Expected %q in metrics output:\n%s", name, out.String())
		}
	}
}

func TestNewServerValidation(t *testing.T) {
	codecs := codec.NewRegistry()
	coordinator := data.NewDefaultCoordinator(codecs)

	if _, err := NewServer(common.ServerConfig{}, tcp.NewServerConnector(), auth.NewUnsecureAuthenticator(), codecs, coordinator); err == nil {
		t.Error("Expected error for missing endpoint")
	}
	if _, err := NewServer(common.DefaultServerConfig("127.0.0.1:0"), tcp.NewServerConnector(), nil, codecs, coordinator); err != ErrMissingAuthenticator {
		t.Errorf("Expected ErrMissingAuthenticator, got %v", err)
	}

	if _, err := NewServer(common.DefaultServerConfig("127.0.0.1:0"), tcp.NewServerConnector(), auth.NewUnsecureAuthenticator(), codecs, coordinator); err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if !codecs.Sealed() || !coordinator.Sealed() {
		t.Error("Expected registries to be sealed")
	}
}
