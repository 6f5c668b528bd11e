package gemini

import (
	"strings"

	"google.golang.org/genai"

	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/core/types"
)

// translateMessage expands one server message into channel events. The order
// is fixed: input transcript, output transcript, tool calls, cancellations,
// turn completion, audio, interruption, go-away.
func translateMessage(msg *genai.LiveServerMessage) []live.Event {
	if msg == nil {
		return nil
	}
	var events []live.Event
	content := msg.ServerContent

	if content != nil && content.InputTranscription != nil && content.InputTranscription.Text != "" {
		events = append(events, &live.TranscriptDeltaEvent{Role: types.RoleUser, Text: content.InputTranscription.Text})
	}
	if content != nil && content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
		events = append(events, &live.TranscriptDeltaEvent{Role: types.RoleAssistant, Text: content.OutputTranscription.Text})
	}
	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		calls := make([]types.ToolCall, 0, len(msg.ToolCall.FunctionCalls))
		for _, fc := range msg.ToolCall.FunctionCalls {
			if fc == nil {
				continue
			}
			calls = append(calls, types.ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
		if len(calls) > 0 {
			events = append(events, &live.ToolCallEvent{Calls: calls})
		}
	}
	if msg.ToolCallCancellation != nil && len(msg.ToolCallCancellation.IDs) > 0 {
		events = append(events, &live.ToolCancelEvent{IDs: append([]string(nil), msg.ToolCallCancellation.IDs...)})
	}
	if content != nil && content.TurnComplete {
		events = append(events, &live.TurnCompleteEvent{})
	}
	if content != nil && content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if !isAudioMIME(part.InlineData.MIMEType) {
				continue
			}
			events = append(events, &live.AudioChunkEvent{Data: part.InlineData.Data})
		}
	}
	if content != nil && content.Interrupted {
		events = append(events, &live.InterruptedEvent{})
	}
	if msg.GoAway != nil {
		events = append(events, &live.GoAwayEvent{TimeLeft: msg.GoAway.TimeLeft})
	}
	return events
}

func isAudioMIME(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	return mime == "" || strings.HasPrefix(mime, "audio/")
}
