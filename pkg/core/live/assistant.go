package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/vango-go/pj-assistant/pkg/core/audio"
	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/core/tools"
	"github.com/vango-go/pj-assistant/pkg/core/types"
	"github.com/vango-go/pj-assistant/pkg/core/typing"
)

// Dependencies wires an Assistant.
type Dependencies struct {
	Dialer     Dialer
	Microphone audio.Microphone
	Pipeline   *audio.Pipeline
	Tools      *tools.Registry
	Notifier   booking.Notifier
	Config     Config
	Logger     *slog.Logger
	NewID      func() string
}

// Snapshot is the observable state of an Assistant.
type Snapshot struct {
	Phase          Phase           `json:"phase"`
	Connecting     bool            `json:"connecting"`
	Active         bool            `json:"active"`
	Speaking       bool            `json:"speaking"`
	Error          bool            `json:"error"`
	Status         string          `json:"status"`
	TypedStatus    string          `json:"typed_status"`
	Messages       []types.Message `json:"messages"`
	FeedbackPrompt bool            `json:"feedback_prompt"`
	QueuedAudio    int             `json:"queued_audio"`
	PlaybackCursor float64         `json:"playback_cursor"`
	LastError      error           `json:"-"`
}

// Assistant is the host-facing session manager. It holds the conversation
// transcript across sessions and owns at most one session at a time.
type Assistant struct {
	dialer   Dialer
	mic      audio.Microphone
	pipeline *audio.Pipeline
	tools    *tools.Registry
	notifier booking.Notifier
	cfg      Config
	logger   *slog.Logger
	newID    func() string
	metrics  instruments

	typewriter *typing.Typewriter
	updates    chan struct{}
	wg         sync.WaitGroup

	mu       sync.Mutex
	phase    Phase
	isError  bool
	status   string
	lastErr  error
	messages []types.Message
	feedback bool
	speaking bool
	current  *session
	timers   map[*time.Timer]struct{}
	shutdown bool
}

// New validates deps and creates an idle Assistant.
func New(deps Dependencies) (*Assistant, error) {
	if deps.Dialer == nil {
		return nil, fmt.Errorf("dialer is required")
	}
	if deps.Microphone == nil {
		return nil, fmt.Errorf("microphone is required")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("audio pipeline is required")
	}
	cfg := deps.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	a := &Assistant{
		dialer:   deps.Dialer,
		mic:      deps.Microphone,
		pipeline: deps.Pipeline,
		tools:    deps.Tools,
		notifier: deps.Notifier,
		cfg:      cfg,
		logger:   deps.Logger,
		newID:    deps.NewID,
		metrics:  newInstruments(),
		updates:  make(chan struct{}, 1),
		status:   StatusIdle,
		timers:   make(map[*time.Timer]struct{}),
	}
	a.typewriter = typing.New(cfg.TypingInterval, func(string) { a.notify() })
	a.typewriter.Start(StatusIdle)
	return a, nil
}

// Updates fires after every observable change. Notifications coalesce;
// read Snapshot for the current state.
func (a *Assistant) Updates() <-chan struct{} { return a.updates }

func (a *Assistant) notify() {
	select {
	case a.updates <- struct{}{}:
	default:
	}
}

// Snapshot returns the current observable state.
func (a *Assistant) Snapshot() Snapshot {
	a.mu.Lock()
	snap := Snapshot{
		Phase:          a.phase,
		Connecting:     a.phase == PhaseConnecting,
		Active:         a.phase == PhaseActive,
		Speaking:       a.speaking,
		Error:          a.isError,
		Status:         a.status,
		Messages:       append([]types.Message(nil), a.messages...),
		FeedbackPrompt: a.feedback,
		LastError:      a.lastErr,
	}
	if s := a.current; s != nil {
		if sched := s.scheduler(); sched != nil {
			snap.QueuedAudio = sched.Active()
			snap.PlaybackCursor = sched.Cursor()
		}
	}
	a.mu.Unlock()
	snap.TypedStatus = a.typewriter.Text()
	return snap
}

// Open connects a new voice session. It returns ErrSessionBusy when a session
// is already connecting or active. Every other failure is resolved into the
// ERROR phase with a customer-facing status, and Open returns nil.
func (a *Assistant) Open(ctx context.Context) error {
	a.mu.Lock()
	if a.shutdown {
		a.mu.Unlock()
		return fmt.Errorf("live: assistant is shut down")
	}
	if a.current != nil {
		a.mu.Unlock()
		return ErrSessionBusy
	}
	s := newSession(a)
	a.current = s
	a.phase = PhaseConnecting
	a.isError = false
	a.lastErr = nil
	a.feedback = false
	a.status = StatusConnecting
	a.mu.Unlock()
	a.showStatus(StatusConnecting)

	ctx, s.span = a.metrics.tracer.Start(ctx, "live.session")
	s.span.SetAttributes(attribute.String("session.id", s.id), attribute.String("model", a.cfg.Model))
	a.logger.Info("live session connecting", "session_id", s.id, "model", a.cfg.Model)

	if err := s.setup(ctx); err != nil {
		a.disconnect(s, err)
		return nil
	}
	a.activate(s)
	return nil
}

func (a *Assistant) activate(s *session) {
	a.mu.Lock()
	if a.current != s {
		a.mu.Unlock()
		return
	}
	a.phase = PhaseActive
	s.reachedActive = true
	a.status = StatusListening
	a.mu.Unlock()

	a.pipeline.Play(audio.ConnectChime())
	a.showStatus(StatusListening)
	a.logger.Info("live session active", "session_id", s.id)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		s.run()
	}()
}

// Close ends the current session as a user stop. It is a no-op when no
// session is open and safe to call repeatedly.
func (a *Assistant) Close() {
	a.mu.Lock()
	s := a.current
	a.mu.Unlock()
	if s != nil {
		a.disconnect(s, nil)
	}
}

// disconnect tears s down. A nil reason is a normal end; otherwise the
// session ends in ERROR with the reason's customer-facing status.
func (a *Assistant) disconnect(s *session, reason error) {
	a.mu.Lock()
	if a.current != s {
		a.mu.Unlock()
		return
	}
	a.current = nil
	wasActive := s.reachedActive
	var status string
	if reason != nil {
		a.phase = PhaseError
		a.isError = true
		a.lastErr = reason
		status = UserMessage(reason)
		a.status = status
	} else {
		a.phase = PhaseClosed
		if !a.isError {
			status = StatusEnded
			a.status = status
		}
	}
	if wasActive && reason == nil {
		a.feedback = true
	}
	a.speaking = false
	a.mu.Unlock()

	s.release()

	outcome := "closed"
	if reason != nil {
		outcome = "error"
		s.span.RecordError(reason)
		s.span.SetStatus(codes.Error, reason.Error())
		a.logger.Warn("live session ended", "session_id", s.id, "error", reason)
	} else {
		a.logger.Info("live session ended", "session_id", s.id)
	}
	a.metrics.sessions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	s.span.End()

	if status != "" {
		a.showStatus(status)
	} else {
		a.notify()
	}
}

// SendTextMessage appends a typed user message. While a call is active the
// text is forwarded to the model; otherwise a canned reply follows shortly.
func (a *Assistant) SendTextMessage(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	a.mu.Lock()
	a.messages = append(a.messages, types.Message{ID: a.newID(), Role: types.RoleUser, Text: text})
	s := a.current
	active := a.phase == PhaseActive && s != nil
	if active {
		a.status = StatusProcessing
	}
	a.mu.Unlock()

	if active {
		a.showStatus(StatusProcessing)
		s.post(command{text: text})
		return
	}
	a.notify()
	a.after(a.cfg.IdleReplyDelay, func() {
		a.appendMessages(types.Message{ID: a.newID(), Role: types.RoleAssistant, Text: IdleTextReply})
	})
}

// Shutdown ends any session, cancels pending replies and waits for the
// session goroutine to exit.
func (a *Assistant) Shutdown() {
	a.mu.Lock()
	a.shutdown = true
	for t := range a.timers {
		t.Stop()
	}
	clear(a.timers)
	a.mu.Unlock()

	a.Close()
	a.wg.Wait()
	a.typewriter.Stop()
}

func (a *Assistant) appendMessages(msgs ...types.Message) {
	if len(msgs) == 0 {
		return
	}
	a.mu.Lock()
	a.messages = append(a.messages, msgs...)
	a.mu.Unlock()
	a.notify()
}

func (a *Assistant) setSpeaking(s *session, speaking bool) {
	a.mu.Lock()
	if a.current != s && speaking {
		a.mu.Unlock()
		return
	}
	changed := a.speaking != speaking
	a.speaking = speaking
	a.mu.Unlock()
	if changed {
		a.notify()
	}
}

// setStatus changes the status line unless s is no longer current.
func (a *Assistant) setStatus(s *session, status string) {
	a.mu.Lock()
	if a.current != s {
		a.mu.Unlock()
		return
	}
	a.status = status
	a.mu.Unlock()
	a.showStatus(status)
}

func (a *Assistant) showStatus(status string) {
	a.typewriter.Start(status)
	a.notify()
}

func (a *Assistant) after(d time.Duration, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.shutdown {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		a.mu.Lock()
		_, pending := a.timers[t]
		delete(a.timers, t)
		a.mu.Unlock()
		if pending {
			fn()
		}
	})
	a.timers[t] = struct{}{}
}

func classifyMicError(err error) *MicAccessError {
	var me *MicAccessError
	if errors.As(err, &me) {
		return me
	}
	if errors.Is(err, audio.ErrMicDenied) {
		return &MicAccessError{Kind: MicDenied, Err: err}
	}
	return &MicAccessError{Kind: MicUnavailable, Err: err}
}
