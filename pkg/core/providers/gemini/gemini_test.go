package gemini

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"

	"github.com/vango-go/pj-assistant/pkg/core/audio"
	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/core/types"
)

type receiveResult struct {
	msg *genai.LiveServerMessage
	err error
}

type fakeSession struct {
	mu        sync.Mutex
	inbox     chan receiveResult
	closed    chan struct{}
	closeOnce sync.Once
	realtime  []genai.LiveRealtimeInput
	responses []genai.LiveToolResponseInput
}

func newFakeSession() *fakeSession {
	return &fakeSession{inbox: make(chan receiveResult, 16), closed: make(chan struct{})}
}

func (f *fakeSession) SendRealtimeInput(input genai.LiveRealtimeInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.realtime = append(f.realtime, input)
	return nil
}

func (f *fakeSession) SendToolResponse(input genai.LiveToolResponseInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, input)
	return nil
}

func (f *fakeSession) Receive() (*genai.LiveServerMessage, error) {
	select {
	case r := <-f.inbox:
		return r.msg, r.err
	case <-f.closed:
		return nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (f *fakeSession) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func collect(t *testing.T, ch <-chan live.Event) []live.Event {
	t.Helper()
	var out []live.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("events channel not closed; got %d events", len(out))
		}
	}
}

func TestTranslateMessage_Order(t *testing.T) {
	t.Parallel()

	msg := &genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{
			InputTranscription:  &genai.Transcription{Text: "quero cortar"},
			OutputTranscription: &genai.Transcription{Text: "claro"},
			TurnComplete:        true,
			Interrupted:         true,
			ModelTurn: &genai.Content{Parts: []*genai.Part{
				{InlineData: &genai.Blob{Data: []byte{1, 0}, MIMEType: "audio/pcm;rate=24000"}},
				{Text: "ignored"},
				{InlineData: &genai.Blob{Data: []byte{1, 2, 3}, MIMEType: "image/png"}},
			}},
		},
		ToolCall: &genai.LiveServerToolCall{FunctionCalls: []*genai.FunctionCall{
			{ID: "c1", Name: "agendarServico", Args: map[string]any{"servico": "Corte"}},
		}},
	}

	events := translateMessage(msg)
	want := []string{"transcript.delta", "transcript.delta", "tool.call", "turn.complete", "audio.chunk", "turn.interrupted"}
	if len(events) != len(want) {
		t.Fatalf("events = %d, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.EventType() != want[i] {
			t.Fatalf("event[%d] = %s, want %s", i, ev.EventType(), want[i])
		}
	}
	if d := events[0].(*live.TranscriptDeltaEvent); d.Role != types.RoleUser || d.Text != "quero cortar" {
		t.Fatalf("input delta = %+v", d)
	}
	if d := events[1].(*live.TranscriptDeltaEvent); d.Role != types.RoleAssistant {
		t.Fatalf("output delta role = %s", d.Role)
	}
	call := events[2].(*live.ToolCallEvent).Calls[0]
	if call.ID != "c1" || call.Args["servico"] != "Corte" {
		t.Fatalf("call = %+v", call)
	}
}

func TestTranslateMessage_EmptyAndGoAway(t *testing.T) {
	t.Parallel()

	if events := translateMessage(nil); len(events) != 0 {
		t.Fatalf("nil message produced %d events", len(events))
	}
	if events := translateMessage(&genai.LiveServerMessage{SetupComplete: &genai.LiveServerSetupComplete{}}); len(events) != 0 {
		t.Fatalf("setup message produced %d events", len(events))
	}
	events := translateMessage(&genai.LiveServerMessage{
		ToolCallCancellation: &genai.LiveServerToolCallCancellation{IDs: []string{"a"}},
		GoAway:               &genai.LiveServerGoAway{TimeLeft: 5 * time.Second},
	})
	if len(events) != 2 || events[0].EventType() != "tool.cancel" || events[1].EventType() != "channel.go_away" {
		t.Fatalf("events = %v", events)
	}
}

func TestClassifyReceiveError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		typ   string
		clean bool
	}{
		{"normal", &websocket.CloseError{Code: websocket.CloseNormalClosure}, "channel.closed", true},
		{"going away", &websocket.CloseError{Code: websocket.CloseGoingAway}, "channel.closed", true},
		{"internal", &websocket.CloseError{Code: websocket.CloseInternalServerErr, Text: "boom"}, "channel.closed", false},
		{"eof", io.ErrUnexpectedEOF, "channel.closed", false},
		{"other", errors.New("received error in response"), "channel.error", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := classifyReceiveError(tt.err)
			if ev.EventType() != tt.typ {
				t.Fatalf("type = %s, want %s", ev.EventType(), tt.typ)
			}
			if closed, ok := ev.(*live.ChannelClosedEvent); ok && closed.Clean != tt.clean {
				t.Fatalf("clean = %v, want %v", closed.Clean, tt.clean)
			}
		})
	}
}

func TestBuildConnectConfig(t *testing.T) {
	t.Parallel()

	cfg := buildConnectConfig(live.ChannelConfig{
		Model:               "gemini/gemini-live",
		Voice:               "Charon",
		Language:            "pt-BR",
		SystemInstruction:   "Você é o PJ.",
		ResponseModalities:  []string{"audio"},
		InputTranscription:  true,
		OutputTranscription: true,
		Tools: []types.Tool{{
			Name: "agendarServico",
			InputSchema: &types.JSONSchema{
				Type: "object",
				Properties: map[string]types.JSONSchema{
					"servico":     {Type: "string"},
					"diasAFrente": {Type: "integer"},
				},
				Required: []string{"servico"},
			},
		}},
	})

	if len(cfg.ResponseModalities) != 1 || cfg.ResponseModalities[0] != genai.ModalityAudio {
		t.Fatalf("modalities = %v", cfg.ResponseModalities)
	}
	if cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Charon" {
		t.Fatal("voice not set")
	}
	if cfg.SpeechConfig.LanguageCode != "pt-BR" {
		t.Fatal("language not set")
	}

	voiceOnly := buildConnectConfig(live.ChannelConfig{Voice: "Charon"})
	if voiceOnly.SpeechConfig == nil || voiceOnly.SpeechConfig.LanguageCode != "" {
		t.Fatalf("language code = %+v, want empty when unset", voiceOnly.SpeechConfig)
	}
	if bare := buildConnectConfig(live.ChannelConfig{}); bare.SpeechConfig != nil {
		t.Fatalf("speech config = %+v, want nil without voice or language", bare.SpeechConfig)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "Você é o PJ." {
		t.Fatal("system instruction not set")
	}
	if cfg.InputAudioTranscription == nil || cfg.OutputAudioTranscription == nil {
		t.Fatal("transcription not enabled")
	}
	decl := cfg.Tools[0].FunctionDeclarations[0]
	if decl.Parameters.Type != genai.TypeObject {
		t.Fatalf("schema type = %s", decl.Parameters.Type)
	}
	if decl.Parameters.Properties["diasAFrente"].Type != genai.TypeInteger {
		t.Fatal("property type not translated")
	}
	if got := decl.Parameters.PropertyOrdering; len(got) != 2 || got[0] != "diasAFrente" {
		t.Fatalf("ordering = %v", got)
	}
	if stripProviderPrefix("gemini/gemini-live") != "gemini-live" {
		t.Fatal("prefix not stripped")
	}
	if stripProviderPrefix("models/gemini-live") != "models/gemini-live" {
		t.Fatal("models/ prefix must be kept")
	}
}

func TestChannel_ForwardsEventsAndCloseEvent(t *testing.T) {
	t.Parallel()

	sess := newFakeSession()
	ch := newChannel(sess, nil)
	sess.inbox <- receiveResult{msg: &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{TurnComplete: true}}}
	sess.inbox <- receiveResult{err: &websocket.CloseError{Code: websocket.CloseGoingAway}}

	events := collect(t, ch.Events())
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if closed, ok := events[1].(*live.ChannelClosedEvent); !ok || !closed.Clean {
		t.Fatalf("last event = %#v", events[1])
	}
}

func TestChannel_LocalCloseEmitsNothing(t *testing.T) {
	t.Parallel()

	sess := newFakeSession()
	ch := newChannel(sess, nil)
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if events := collect(t, ch.Events()); len(events) != 0 {
		t.Fatalf("events after local close = %v", events)
	}
	if err := ch.SendText("oi"); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("SendText after close = %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestChannel_Sends(t *testing.T) {
	t.Parallel()

	sess := newFakeSession()
	ch := newChannel(sess, nil)
	defer ch.Close()

	if err := ch.SendAudio(audio.Blob{Data: []byte{1, 2}, MIMEType: audio.InputMIMEType}); err != nil {
		t.Fatal(err)
	}
	if err := ch.SendText("oi"); err != nil {
		t.Fatal(err)
	}
	err := ch.SendToolResponses([]types.ToolResponse{
		{ID: "a", Name: "agendarServico", Result: map[string]any{"status": "confirmed"}},
		{ID: "b", Name: "nope", Result: map[string]any{"error": "unknown tool"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if len(sess.realtime) != 2 || sess.realtime[0].Audio.MIMEType != audio.InputMIMEType || sess.realtime[1].Text != "oi" {
		t.Fatalf("realtime = %+v", sess.realtime)
	}
	if len(sess.responses) != 1 {
		t.Fatalf("tool responses sent = %d, want one batch", len(sess.responses))
	}
	fr := sess.responses[0].FunctionResponses
	if fr[0].ID != "a" || fr[0].Response["result"].(map[string]any)["status"] != "confirmed" {
		t.Fatalf("response[0] = %+v", fr[0])
	}
	if fr[1].Response["error"] != "unknown tool" {
		t.Fatalf("response[1] = %+v", fr[1])
	}
}

func TestProvider_DialUsesConnector(t *testing.T) {
	t.Parallel()

	sess := newFakeSession()
	var gotModel string
	p := New("key")
	p.connect = func(ctx context.Context, model string, cfg *genai.LiveConnectConfig) (liveSession, error) {
		gotModel = model
		return sess, nil
	}
	ch, err := p.Dial(context.Background(), live.ChannelConfig{Model: "gemini/gemini-live"})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ch.Close()
	if gotModel != "gemini-live" {
		t.Fatalf("model = %q", gotModel)
	}
}

func TestProvider_DialRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := New("  ").Dial(context.Background(), live.ChannelConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
