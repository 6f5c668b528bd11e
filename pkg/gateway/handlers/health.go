package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vango-go/pj-assistant/pkg/gateway/config"
	"github.com/vango-go/pj-assistant/pkg/gateway/lifecycle"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ReadyHandler struct {
	Config    config.Config
	Lifecycle *lifecycle.Lifecycle
	Store     Pinger
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK          bool     `json:"ok"`
		Draining    bool     `json:"draining"`
		StoreDriver string   `json:"store_driver"`
		Model       string   `json:"model,omitempty"`
		Issues      []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)
	if h.Config.APIKey == "" {
		issues = append(issues, "api key is not configured")
	}
	if h.Config.WSMaxClients <= 0 {
		issues = append(issues, "ws max clients must be > 0")
	}
	if h.Config.WSMaxMessageBytes <= 0 {
		issues = append(issues, "ws max message bytes must be > 0")
	}
	if h.Config.WSPingInterval <= 0 || h.Config.WSWriteTimeout <= 0 || h.Config.WSHandshakeTimeout <= 0 {
		issues = append(issues, "ws timeouts must be > 0")
	}
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := h.Store.Ping(ctx); err != nil {
			issues = append(issues, "store unreachable")
		}
		cancel()
	}

	draining := h.Lifecycle.IsDraining()
	ok := len(issues) == 0 && !draining
	status := http.StatusOK
	switch {
	case draining:
		status = http.StatusServiceUnavailable
	case !ok:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, readyResp{
		OK:          ok,
		Draining:    draining,
		StoreDriver: h.Config.StoreDriver,
		Model:       h.Config.Model,
		Issues:      issues,
	})
}
