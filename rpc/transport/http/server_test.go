package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/lib/data/counter"
	"github.com/YvanMazy/Memorized/rpc/codec"
)

type fakeSource struct {
	running     bool
	coordinator *data.Coordinator
}

func (f *fakeSource) Running() bool                  { return f.running }
func (f *fakeSource) Sessions() int                  { return 2 }
func (f *fakeSource) Coordinator() *data.Coordinator { return f.coordinator }

func (f *fakeSource) WritePrometheus(w io.Writer) {
	_, _ = io.WriteString(w, "memorized_server_sessions 2\n")
}

func newTestSource(t *testing.T, running bool) *fakeSource {
	coordinator := data.NewDefaultCoordinator(codec.NewRegistry())
	if err := data.Put(coordinator, "hits", counter.New(0)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	return &fakeSource{running: running, coordinator: coordinator}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPing(t *testing.T) {
	admin := NewAdminServer("127.0.0.1:0", newTestSource(t, true), false)
	rec := get(t, admin.Handler(), "/ping")
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Errorf("Expected 200 pong, got %d %q", rec.Code, rec.Body.String())
	}

	stopped := NewAdminServer("127.0.0.1:0", newTestSource(t, false), false)
	if rec := get(t, stopped.Handler(), "/ping"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 for a stopped server, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	admin := NewAdminServer("127.0.0.1:0", newTestSource(t, true), false)
	rec := get(t, admin.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "memorized_server_sessions 2") {
		t.Errorf("Expected server metrics in body, got %q", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Errorf("Expected process metrics in body")
	}
}

func TestRepositories(t *testing.T) {
	admin := NewAdminServer("127.0.0.1:0", newTestSource(t, true), false)
	rec := get(t, admin.Handler(), "/repositories")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Sessions     int                `json:"sessions"`
		Repositories []repositoryStatus `json:"repositories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Sessions != 2 {
		t.Errorf("Expected 2 sessions, got %d", resp.Sessions)
	}
	if len(resp.Repositories) != 3 {
		t.Fatalf("Expected 3 repositories, got %d", len(resp.Repositories))
	}
	first := resp.Repositories[0]
	if first.ID != 0 || first.KeyType != "string" || first.Size != 1 {
		t.Errorf("Unexpected string repository status: %+v", first)
	}
}

func TestStartShutdown(t *testing.T) {
	admin := NewAdminServer("127.0.0.1:0", newTestSource(t, true), false)
	if err := admin.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	resp, err := http.Get("http://" + admin.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if err := admin.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
