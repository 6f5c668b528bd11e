// Package gemini connects voice sessions to the Gemini Live API.
// It translates between the assistant's channel contract and the genai SDK's
// live session messages.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/vango-go/pj-assistant/pkg/core/live"
)

const (
	// DefaultAPIVersion is the Live API version used unless overridden.
	DefaultAPIVersion = "v1beta"

	eventBufferSize = 64
)

// liveSession is the part of *genai.Session the channel uses.
type liveSession interface {
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	SendToolResponse(input genai.LiveToolResponseInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

type connectFunc func(ctx context.Context, model string, cfg *genai.LiveConnectConfig) (liveSession, error)

// Provider dials Gemini Live sessions. It implements live.Dialer.
type Provider struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	client  *genai.Client
	connect connectFunc
}

// New creates a new Gemini Live provider.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     apiKey,
		apiVersion: DefaultAPIVersion,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "gemini"
}

// Dial opens a live session configured from cfg.
func (p *Provider) Dial(ctx context.Context, cfg live.ChannelConfig) (live.Channel, error) {
	connect, err := p.connector(ctx)
	if err != nil {
		return nil, err
	}
	session, err := connect(ctx, stripProviderPrefix(cfg.Model), buildConnectConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("gemini: connect live session: %w", err)
	}
	p.logger.Debug("gemini live session opened", "model", cfg.Model)
	return newChannel(session, p.logger), nil
}

func (p *Provider) connector(ctx context.Context) (connectFunc, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connect != nil {
		return p.connect, nil
	}
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     p.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    p.baseURL,
			APIVersion: p.apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	p.client = client
	p.connect = func(ctx context.Context, model string, cfg *genai.LiveConnectConfig) (liveSession, error) {
		return client.Live.Connect(ctx, model, cfg)
	}
	return p.connect, nil
}

func stripProviderPrefix(model string) string {
	if idx := strings.Index(model, "/"); idx != -1 && !strings.HasPrefix(model, "models/") {
		return model[idx+1:]
	}
	return model
}
