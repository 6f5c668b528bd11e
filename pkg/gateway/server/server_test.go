package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/gateway/config"
	"github.com/vango-go/pj-assistant/pkg/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return New(config.Config{
		APIKey:             "k",
		StoreDriver:        "memory",
		CORSAllowedOrigins: map[string]struct{}{},
		WSMaxClients:       1,
		WSMaxMessageBytes:  1024,
		WSPingInterval:     time.Second,
		WSWriteTimeout:     time.Second,
		WSHandshakeTimeout: time.Second,
	}, logger, Dependencies{
		Inbox: booking.NewInbox(logger),
		Store: memory.New(),
	})
}

func TestServer_UnknownRoute_ReturnsJSON404(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(rr.Body.String(), `"type":"not_found_error"`) {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestServer_RoutesReachable(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz", "/v1/catalog", "/v1/bookings", "/v1/notifications"} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status=%d body=%q", path, rr.Code, rr.Body.String())
		}
	}
}

func TestServer_AssistantRouteAbsentWithoutAssistant(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/assistant", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestServer_DrainingFailsReadiness(t *testing.T) {
	s := newTestServer(t)
	s.Lifecycle().BeginDrain(time.Now())

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestServer_HubStopsWithContext(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	hub := s.Hub()
	hub.Assistant = stubAssistant{}
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
}

type stubAssistant struct{}

func (stubAssistant) Open(context.Context) error { return nil }
func (stubAssistant) Close() {}
func (stubAssistant) SendTextMessage(string) {}
func (stubAssistant) AnswerFeedback(context.Context, bool) {}
func (stubAssistant) DismissFeedback() {}
func (stubAssistant) Snapshot() live.Snapshot { return live.Snapshot{} }
func (stubAssistant) Updates() <-chan struct{} { return nil }
