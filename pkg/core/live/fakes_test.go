package live

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vango-go/pj-assistant/pkg/core/audio"
	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/core/tools"
	"github.com/vango-go/pj-assistant/pkg/core/types"
)

type fakeChannel struct {
	events chan Event

	mu        sync.Mutex
	audio     []audio.Blob
	texts     []string
	responses []types.ToolResponse
	closed    int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{events: make(chan Event, 64)}
}

func (c *fakeChannel) Events() <-chan Event { return c.events }

func (c *fakeChannel) SendAudio(blob audio.Blob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audio = append(c.audio, blob)
	return nil
}

func (c *fakeChannel) SendText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func (c *fakeChannel) SendToolResponses(responses []types.ToolResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, responses...)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeChannel) snapshot() (audioN int, texts []string, responses []types.ToolResponse, closed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.audio), append([]string(nil), c.texts...), append([]types.ToolResponse(nil), c.responses...), c.closed
}

type fakeDialer struct {
	mu    sync.Mutex
	next  *fakeChannel
	err   error
	block bool
	cfgs  []ChannelConfig

	onDial func()
}

func (d *fakeDialer) Dial(ctx context.Context, cfg ChannelConfig) (Channel, error) {
	d.mu.Lock()
	d.cfgs = append(d.cfgs, cfg)
	block, err, ch, onDial := d.block, d.err, d.next, d.onDial
	d.mu.Unlock()

	if onDial != nil {
		onDial()
	}
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cfgs)
}

type fakeStream struct {
	frames chan []float32
	once   sync.Once
	mu     sync.Mutex
	closed int
}

func (s *fakeStream) Frames() <-chan []float32 { return s.frames }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	s.once.Do(func() { close(s.frames) })
	return nil
}

func (s *fakeStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeMic struct {
	mu      sync.Mutex
	err     error
	streams []*fakeStream
}

func (m *fakeMic) Open(context.Context) (audio.CaptureStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s := &fakeStream{frames: make(chan []float32, 16)}
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *fakeMic) last() *fakeStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streams) == 0 {
		return nil
	}
	return m.streams[len(m.streams)-1]
}

type fakeNotifier struct {
	mu    sync.Mutex
	items []booking.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, note booking.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, note)
	return nil
}

func (n *fakeNotifier) list() []booking.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]booking.Notification(nil), n.items...)
}

type fakeBooker struct {
	mu   sync.Mutex
	reqs []booking.Request
}

func (b *fakeBooker) CreateBooking(_ context.Context, req booking.Request) (booking.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reqs = append(b.reqs, req)
	return booking.Booking{ID: "b", Service: req.Service, Stylist: req.Stylist, Date: req.Date, Status: booking.StatusConfirmed}, nil
}

func (b *fakeBooker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.reqs)
}

type harness struct {
	a        *Assistant
	dialer   *fakeDialer
	ch       *fakeChannel
	mic      *fakeMic
	notifier *fakeNotifier
	booker   *fakeBooker
	pipeline *audio.Pipeline
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		ch:       newFakeChannel(),
		mic:      &fakeMic{},
		notifier: &fakeNotifier{},
		booker:   &fakeBooker{},
		pipeline: audio.NewPipeline(nil, logger),
	}
	h.dialer = &fakeDialer{next: h.ch}

	cfg := DefaultConfig()
	cfg.TypingInterval = time.Millisecond
	cfg.IdleReplyDelay = 10 * time.Millisecond
	cfg.SpeakingHold = 20 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	registry := tools.NewRegistry(logger, tools.NewBookingTool(tools.BookingToolConfig{
		Booker:   h.booker,
		Notifier: h.notifier,
		Logger:   logger,
	}))
	a, err := New(Dependencies{
		Dialer:     h.dialer,
		Microphone: h.mic,
		Pipeline:   h.pipeline,
		Tools:      registry,
		Notifier:   h.notifier,
		Config:     cfg,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.a = a
	t.Cleanup(func() {
		a.Shutdown()
		_ = h.pipeline.Close()
	})
	return h
}

func (h *harness) open(t *testing.T) {
	t.Helper()
	if err := h.a.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := h.a.Snapshot().Phase; got != PhaseActive {
		t.Fatalf("phase=%v, want active (status=%q)", got, h.a.Snapshot().Status)
	}
}

func (h *harness) push(events ...Event) {
	for _, ev := range events {
		h.ch.events <- ev
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func pcm(frames int) []byte {
	return audio.EncodeFrame(make([]float32, frames)).Data
}
