package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/vango-go/pj-assistant/internal/device"
	"github.com/vango-go/pj-assistant/pkg/core/audio"
	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/core/providers/gemini"
	"github.com/vango-go/pj-assistant/pkg/core/tools"
	"github.com/vango-go/pj-assistant/pkg/gateway/config"
	"github.com/vango-go/pj-assistant/pkg/store"
)

const telemetryFlushTimeout = 5 * time.Second

// microphone is a capture backend that holds process-wide driver state.
type microphone interface {
	audio.Microphone
	Close() error
}

type appDeps struct {
	loadConfig    func() (config.Config, error)
	openStore     func(ctx context.Context, driver, dsn string, logger *slog.Logger) (booking.Store, error)
	newDialer     func(cfg config.Config, logger *slog.Logger) live.Dialer
	newMicrophone func(logger *slog.Logger) microphone
	newSpeaker    func(cfg config.Config, logger *slog.Logger) audio.Speaker
	signalNotify  func(chan<- os.Signal, ...os.Signal)
	signalStop    func(chan<- os.Signal)
}

func defaultAppDeps() appDeps {
	return appDeps{
		loadConfig: config.LoadFromEnv,
		openStore:  store.Open,
		newDialer: func(cfg config.Config, logger *slog.Logger) live.Dialer {
			return gemini.New(cfg.APIKey, gemini.WithLogger(logger))
		},
		newMicrophone: func(logger *slog.Logger) microphone {
			return device.NewMicrophone(logger)
		},
		newSpeaker: func(cfg config.Config, logger *slog.Logger) audio.Speaker {
			return device.NewSpeaker(cfg.SpeakerBuffer, logger)
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

func (d appDeps) validate() error {
	if d.loadConfig == nil {
		return errors.New("missing loadConfig dependency")
	}
	if d.openStore == nil {
		return errors.New("missing openStore dependency")
	}
	if d.newDialer == nil || d.newMicrophone == nil || d.newSpeaker == nil {
		return errors.New("missing device dependency")
	}
	if d.signalNotify == nil || d.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	return nil
}

// stack is every collaborator the assistant needs, built once per process.
type stack struct {
	logger    *slog.Logger
	store     booking.Store
	catalog   booking.Catalog
	inbox     *booking.Inbox
	pipeline  *audio.Pipeline
	mic       microphone
	assistant *live.Assistant
}

func loadCatalog(path string) (booking.Catalog, error) {
	if path == "" {
		return booking.DefaultCatalog(), nil
	}
	c, err := booking.LoadCatalogFile(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func buildStack(ctx context.Context, cfg config.Config, logger *slog.Logger, deps appDeps) (*stack, error) {
	catalog, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	st, err := deps.openStore(ctx, cfg.StoreDriver, cfg.StoreDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &stack{
		logger:   logger,
		store:    st,
		catalog:  catalog,
		inbox:    booking.NewInbox(logger),
		pipeline: audio.NewPipeline(deps.newSpeaker(cfg, logger), logger),
		mic:      deps.newMicrophone(logger),
	}

	bookingTool := tools.NewBookingTool(tools.BookingToolConfig{
		Catalog:    catalog,
		Booker:     st,
		Notifier:   s.inbox,
		Cue:        func() { s.pipeline.Play(audio.Ding()) },
		ClientName: cfg.BookingClientName,
		Logger:     logger,
	})

	assistant, err := live.New(live.Dependencies{
		Dialer:     deps.newDialer(cfg, logger),
		Microphone: s.mic,
		Pipeline:   s.pipeline,
		Tools:      tools.NewRegistry(logger, bookingTool),
		Notifier:   s.inbox,
		Config: live.Config{
			Model:             cfg.Model,
			Voice:             cfg.Voice,
			Language:          cfg.Language,
			SystemInstruction: cfg.SystemInstruction,
			MaxDecodeFailures: cfg.MaxDecodeFailures,
		},
		Logger: logger,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("build assistant: %w", err)
	}
	s.assistant = assistant
	return s, nil
}

// Close ends any session and releases devices and the store.
func (s *stack) Close() {
	if s.assistant != nil {
		s.assistant.Shutdown()
	}
	if err := s.pipeline.Close(); err != nil {
		s.logger.Warn("audio pipeline close", "error", err)
	}
	if err := s.mic.Close(); err != nil {
		s.logger.Warn("microphone close", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("store close", "error", err)
	}
}
