// Package server assembles the HTTP surface: the host bridge WebSocket, the
// booking and notification endpoints and health probes.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/gateway/bridge"
	"github.com/vango-go/pj-assistant/pkg/gateway/config"
	"github.com/vango-go/pj-assistant/pkg/gateway/handlers"
	"github.com/vango-go/pj-assistant/pkg/gateway/lifecycle"
	"github.com/vango-go/pj-assistant/pkg/gateway/mw"
	"github.com/vango-go/pj-assistant/pkg/gateway/sessions"
)

// Dependencies are the long-lived collaborators shared by all requests.
type Dependencies struct {
	Assistant   bridge.Assistant
	Inbox       *booking.Inbox
	Store       booking.Store
	Catalog     booking.Catalog
	Clients     *sessions.Tracker
	Lifecycle   *lifecycle.Lifecycle
	BaseContext context.Context
}

type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	deps    Dependencies
	mux     *http.ServeMux
	known   []string
	metrics *mw.Metrics
}

func New(cfg config.Config, logger *slog.Logger, deps Dependencies) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = booking.DefaultCatalog()
	}
	if deps.Clients == nil {
		deps.Clients = sessions.NewTracker()
	}
	if deps.Lifecycle == nil {
		deps.Lifecycle = &lifecycle.Lifecycle{}
	}
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		mux:    http.NewServeMux(),
	}
	s.routes()

	metrics, err := mw.NewMetrics(nil, s.known...)
	if err != nil {
		logger.Warn("request metrics disabled", "error", err)
	} else {
		s.metrics = metrics
		if err := metrics.ObserveClients(deps.Clients.Count); err != nil {
			logger.Warn("host gauge disabled", "error", err)
		}
	}
	return s
}

func (s *Server) handle(pattern string, h http.Handler) {
	s.known = append(s.known, pattern)
	s.mux.Handle(pattern, h)
}

func (s *Server) routes() {
	s.handle("/healthz", handlers.HealthHandler{})
	var pinger handlers.Pinger
	if s.deps.Store != nil {
		pinger = s.deps.Store
	}
	s.handle("/readyz", handlers.ReadyHandler{Config: s.cfg, Lifecycle: s.deps.Lifecycle, Store: pinger})

	s.handle("/v1/catalog", handlers.CatalogHandler{Catalog: s.deps.Catalog})
	if s.deps.Store != nil {
		s.handle("/v1/bookings", handlers.BookingsHandler{Store: s.deps.Store, Catalog: s.deps.Catalog, Logger: s.logger})
	}
	if s.deps.Inbox != nil {
		notifications := handlers.NotificationsHandler{Inbox: s.deps.Inbox}
		s.handle("/v1/notifications", notifications)
		s.handle("/v1/notifications/read", notifications)
	}
	if s.deps.Assistant != nil {
		var inbox bridge.Inbox
		if s.deps.Inbox != nil {
			inbox = s.deps.Inbox
		}
		s.handle("/v1/assistant", handlers.AssistantHandler{
			Config:      s.cfg,
			Assistant:   s.deps.Assistant,
			Inbox:       inbox,
			Logger:      s.logger,
			Lifecycle:   s.deps.Lifecycle,
			Clients:     s.deps.Clients,
			BaseContext: s.deps.BaseContext,
		})
	}
	s.mux.Handle("/", handlers.NotFoundHandler{})
}

// Hub returns the change fan-out for the attached hosts. Run it for the
// lifetime of the server.
func (s *Server) Hub() *bridge.Hub {
	var inbox bridge.Inbox
	if s.deps.Inbox != nil {
		inbox = s.deps.Inbox
	}
	return &bridge.Hub{Assistant: s.deps.Assistant, Inbox: inbox, Clients: s.deps.Clients, Logger: s.logger}
}

// Clients is the registry of attached hosts.
func (s *Server) Clients() *sessions.Tracker { return s.deps.Clients }

// Lifecycle is the drain state shared with the handlers.
func (s *Server) Lifecycle() *lifecycle.Lifecycle { return s.deps.Lifecycle }

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = s.metrics.Wrap(h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
