package gemini

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"google.golang.org/genai"

	"github.com/vango-go/pj-assistant/pkg/core/audio"
	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/core/types"
)

// channel adapts a genai live session to live.Channel.
type channel struct {
	session liveSession
	logger  *slog.Logger
	events  chan live.Event
	done    chan struct{}

	// The underlying websocket allows one writer at a time.
	writeMu sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newChannel(session liveSession, logger *slog.Logger) *channel {
	if logger == nil {
		logger = slog.Default()
	}
	c := &channel{
		session: session,
		logger:  logger,
		events:  make(chan live.Event, eventBufferSize),
		done:    make(chan struct{}),
	}
	go c.receiveLoop()
	return c
}

func (c *channel) Events() <-chan live.Event {
	return c.events
}

func (c *channel) receiveLoop() {
	defer close(c.events)
	for {
		msg, err := c.session.Receive()
		if err != nil {
			if c.closed.Load() {
				return
			}
			ev := classifyReceiveError(err)
			c.logger.Debug("gemini live receive ended", "event", ev.EventType(), "error", err)
			c.emit(ev)
			return
		}
		for _, ev := range translateMessage(msg) {
			if !c.emit(ev) {
				return
			}
		}
	}
}

func (c *channel) emit(ev live.Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *channel) SendAudio(blob audio.Blob) error {
	return c.send(func() error {
		return c.session.SendRealtimeInput(genai.LiveRealtimeInput{
			Audio: &genai.Blob{Data: blob.Data, MIMEType: blob.MIMEType},
		})
	})
}

func (c *channel) SendText(text string) error {
	return c.send(func() error {
		return c.session.SendRealtimeInput(genai.LiveRealtimeInput{Text: text})
	})
}

func (c *channel) SendToolResponses(responses []types.ToolResponse) error {
	if len(responses) == 0 {
		return nil
	}
	out := make([]*genai.FunctionResponse, 0, len(responses))
	for _, r := range responses {
		out = append(out, &genai.FunctionResponse{
			ID:       r.ID,
			Name:     r.Name,
			Response: functionResponsePayload(r.Result),
		})
	}
	return c.send(func() error {
		return c.session.SendToolResponse(genai.LiveToolResponseInput{FunctionResponses: out})
	})
}

// functionResponsePayload wraps a result under "result", or passes an
// error result through as "error".
func functionResponsePayload(result map[string]any) map[string]any {
	if msg, ok := result["error"]; ok && len(result) == 1 {
		return map[string]any{"error": msg}
	}
	return map[string]any{"result": result}
}

func (c *channel) send(fn func() error) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return ErrChannelClosed
	}
	return fn()
}

func (c *channel) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		c.closeErr = c.session.Close()
	})
	return c.closeErr
}
