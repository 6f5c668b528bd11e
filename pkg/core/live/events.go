package live

import (
	"time"

	"github.com/vango-go/pj-assistant/pkg/core/types"
)

// Event is an inbound notification from the remote channel.
type Event interface {
	// EventType returns the event type string for logging.
	EventType() string
}

// TranscriptDeltaEvent carries a partial transcript for one role.
type TranscriptDeltaEvent struct {
	Role types.Role `json:"role"`
	Text string     `json:"text"`
}

func (e *TranscriptDeltaEvent) EventType() string { return "transcript.delta" }

// ToolCallEvent asks for one or more function calls.
type ToolCallEvent struct {
	Calls []types.ToolCall `json:"calls"`
}

func (e *ToolCallEvent) EventType() string { return "tool.call" }

// ToolCancelEvent withdraws earlier calls that have not been answered.
type ToolCancelEvent struct {
	IDs []string `json:"ids"`
}

func (e *ToolCancelEvent) EventType() string { return "tool.cancel" }

// AudioChunkEvent carries raw 16-bit PCM at the output rate.
type AudioChunkEvent struct {
	Data []byte `json:"-"`
}

func (e *AudioChunkEvent) EventType() string { return "audio.chunk" }

// TurnCompleteEvent marks the end of the model's turn.
type TurnCompleteEvent struct{}

func (e *TurnCompleteEvent) EventType() string { return "turn.complete" }

// InterruptedEvent reports that the user barged in over the model.
type InterruptedEvent struct{}

func (e *InterruptedEvent) EventType() string { return "turn.interrupted" }

// GoAwayEvent warns that the remote end will close soon.
type GoAwayEvent struct {
	TimeLeft time.Duration `json:"time_left"`
}

func (e *GoAwayEvent) EventType() string { return "channel.go_away" }

// ChannelErrorEvent reports a runtime failure of the channel.
type ChannelErrorEvent struct {
	Err error `json:"-"`
}

func (e *ChannelErrorEvent) EventType() string { return "channel.error" }

// ChannelClosedEvent reports that the remote side closed the channel.
type ChannelClosedEvent struct {
	Clean  bool   `json:"clean"`
	Code   int    `json:"code"`
	Reason string `json:"reason,omitempty"`
}

func (e *ChannelClosedEvent) EventType() string { return "channel.closed" }
