package live

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-go/pj-assistant/pkg/core/audio"
	"github.com/vango-go/pj-assistant/pkg/core/types"
)

var errSessionReleased = errors.New("live: session released")

type command struct {
	text string
}

// session is one connect attempt. Its resources are acquired during setup
// and released together by release, whichever way the session ends.
type session struct {
	id string
	a  *Assistant

	ctx    context.Context
	cancel context.CancelFunc
	span   trace.Span
	cmds   chan command

	// owned by the run goroutine
	turn           turnBuffers
	seenCalls      map[string]struct{}
	decodeFailures int

	// guarded by Assistant.mu
	reachedActive bool

	speaking *speakingIndicator

	mu       sync.Mutex
	released bool
	sched    *audio.Scheduler
	mic      audio.CaptureStream
	ch       Channel
}

func newSession(a *Assistant) *session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:        uuid.NewString(),
		a:         a,
		ctx:       ctx,
		cancel:    cancel,
		span:      trace.SpanFromContext(ctx),
		cmds:      make(chan command, a.cfg.CommandQueueSize),
		seenCalls: make(map[string]struct{}),
	}
	s.speaking = newSpeakingIndicator(a.cfg.SpeakingThreshold, a.cfg.SpeakingHold, func(on bool) {
		a.setSpeaking(s, on)
	})
	return s
}

// setup acquires the output scheduler, the microphone and the channel, in
// that order. Any failure is returned typed for disconnect.
func (s *session) setup(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	sched, err := s.a.pipeline.NewScheduler()
	if err != nil {
		return &ChannelOpenError{Err: fmt.Errorf("audio output: %w", err)}
	}
	s.mu.Lock()
	s.sched = sched
	s.mu.Unlock()

	mic, err := s.a.mic.Open(ctx)
	if err != nil {
		if s.ctx.Err() != nil {
			return errSessionReleased
		}
		return classifyMicError(err)
	}
	if !s.attachMic(mic) {
		return errSessionReleased
	}

	ch, err := s.a.dialer.Dial(ctx, ChannelConfig{
		Model:               s.a.cfg.Model,
		Voice:               s.a.cfg.Voice,
		Language:            s.a.cfg.Language,
		SystemInstruction:   s.a.cfg.SystemInstruction,
		ResponseModalities:  []string{ModalityAudio},
		InputTranscription:  true,
		OutputTranscription: true,
		Tools:               s.a.tools.Definitions(),
	})
	if err != nil {
		if s.ctx.Err() != nil {
			return errSessionReleased
		}
		return &ChannelOpenError{Err: err}
	}
	if !s.attachChannel(ch) {
		return errSessionReleased
	}
	if n := discardFrames(mic.Frames()); n > 0 {
		s.a.logger.Debug("discarded windows captured while connecting", "session_id", s.id, "windows", n)
	}
	return nil
}

// discardFrames drains the windows already queued on frames without
// blocking and returns how many were dropped.
func discardFrames(frames <-chan []float32) int {
	n := 0
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}

func (s *session) scheduler() *audio.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched
}

func (s *session) attachMic(mic audio.CaptureStream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		_ = mic.Close()
		return false
	}
	s.mic = mic
	return true
}

func (s *session) attachChannel(ch Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		_ = ch.Close()
		return false
	}
	s.ch = ch
	return true
}

// release closes the channel and the microphone, stops all playback and
// resets the cursor. It does not wait for in-flight sends. Idempotent.
func (s *session) release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	mic, ch, sched := s.mic, s.ch, s.sched
	s.mu.Unlock()

	s.cancel()
	s.speaking.Stop()
	if ch != nil {
		if err := ch.Close(); err != nil {
			s.a.logger.Debug("channel close", "session_id", s.id, "error", err)
		}
	}
	if mic != nil {
		if err := mic.Close(); err != nil {
			s.a.logger.Debug("microphone close", "session_id", s.id, "error", err)
		}
	}
	if sched != nil {
		sched.Flush()
	}
}

func (s *session) post(cmd command) {
	select {
	case s.cmds <- cmd:
	case <-s.ctx.Done():
	default:
		s.a.logger.Warn("command queue full, dropping", "session_id", s.id)
	}
}

// run processes channel events, capture windows and host commands in
// arrival order until the session is released.
func (s *session) run() {
	s.mu.Lock()
	mic, ch := s.mic, s.ch
	s.mu.Unlock()
	if mic == nil || ch == nil {
		return
	}
	frames := mic.Frames()
	events := ch.Events()

	for {
		select {
		case <-s.ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				s.a.disconnect(s, &UncleanCloseError{Reason: "event stream ended"})
				return
			}
			if s.ctx.Err() != nil {
				return
			}
			if s.handle(ev) {
				return
			}

		case frame, ok := <-frames:
			if !ok {
				s.a.logger.Warn("microphone stream ended", "session_id", s.id)
				frames = nil
				continue
			}
			s.sendFrame(frame)

		case cmd := <-s.cmds:
			if err := ch.SendText(cmd.text); err != nil {
				s.a.logger.Warn("send text failed", "session_id", s.id, "error", err)
			}
		}
	}
}

func (s *session) sendFrame(frame []float32) {
	s.speaking.Observe(audio.RMS(frame))
	if err := s.ch.SendAudio(audio.EncodeFrame(frame)); err != nil {
		s.a.logger.Debug("send audio failed", "session_id", s.id, "error", err)
		return
	}
	s.a.metrics.framesSent.Add(s.ctx, 1)
}

// handle routes one event. It reports whether the session ended.
func (s *session) handle(ev Event) bool {
	switch e := ev.(type) {
	case *TranscriptDeltaEvent:
		switch e.Role {
		case types.RoleUser:
			s.turn.appendUser(e.Text)
		case types.RoleAssistant:
			s.a.setStatus(s, s.turn.appendAssistant(e.Text))
		}

	case *ToolCallEvent:
		s.handleToolCalls(e.Calls)

	case *ToolCancelEvent:
		for _, id := range e.IDs {
			s.seenCalls[id] = struct{}{}
		}

	case *TurnCompleteEvent:
		s.a.pipeline.Play(audio.Ding())
		s.a.appendMessages(s.turn.flush(s.a.newID)...)

	case *AudioChunkEvent:
		return s.handleAudio(e.Data)

	case *InterruptedEvent:
		s.sched.Flush()
		s.turn.reset()
		s.a.metrics.interruptions.Add(s.ctx, 1)
		s.a.notify()

	case *GoAwayEvent:
		s.a.logger.Info("remote will close soon", "session_id", s.id, "time_left", e.TimeLeft)

	case *ChannelErrorEvent:
		s.a.disconnect(s, &ChannelRuntimeError{Err: e.Err})
		return true

	case *ChannelClosedEvent:
		if !e.Clean {
			s.a.disconnect(s, &UncleanCloseError{Code: e.Code, Reason: e.Reason})
		} else {
			s.a.disconnect(s, nil)
		}
		return true

	default:
		s.a.logger.Debug("ignoring event", "session_id", s.id, "type", ev.EventType())
	}
	return false
}

func (s *session) handleToolCalls(calls []types.ToolCall) {
	responses := make([]types.ToolResponse, 0, len(calls))
	for _, call := range calls {
		if _, dup := s.seenCalls[call.ID]; dup {
			continue
		}
		s.seenCalls[call.ID] = struct{}{}
		resp := s.a.tools.Dispatch(s.ctx, call)
		s.a.metrics.toolCalls.Add(s.ctx, 1, metric.WithAttributes(attribute.String("tool", call.Name)))
		responses = append(responses, resp)
	}
	if len(responses) == 0 {
		return
	}
	if err := s.ch.SendToolResponses(responses); err != nil {
		s.a.logger.Warn("send tool responses failed", "session_id", s.id, "error", err)
	}
}

func (s *session) handleAudio(data []byte) bool {
	buf, err := audio.DecodeAudioBuffer(data, audio.OutputSampleRate, 1)
	if err != nil {
		s.decodeFailures++
		s.a.metrics.chunksDropped.Add(s.ctx, 1)
		s.a.logger.Debug("dropping audio chunk", "session_id", s.id, "error", err, "consecutive", s.decodeFailures)
		if s.decodeFailures >= s.a.cfg.MaxDecodeFailures {
			s.a.disconnect(s, &ChannelRuntimeError{Err: fmt.Errorf("%d consecutive undecodable audio chunks: %w", s.decodeFailures, err)})
			return true
		}
		return false
	}
	s.decodeFailures = 0
	u, err := s.sched.Schedule(buf)
	if err != nil {
		s.a.logger.Warn("schedule audio failed", "session_id", s.id, "error", err)
	} else {
		s.a.logger.Debug("audio chunk scheduled", "session_id", s.id, "start", u.StartTime(), "end", u.EndTime())
	}
	s.a.notify()
	return false
}
