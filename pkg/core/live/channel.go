package live

import (
	"context"

	"github.com/vango-go/pj-assistant/pkg/core/audio"
	"github.com/vango-go/pj-assistant/pkg/core/types"
)

// ModalityAudio requests spoken responses.
const ModalityAudio = "AUDIO"

// ChannelConfig describes the session requested from the remote model.
type ChannelConfig struct {
	Model               string
	Voice               string
	Language            string
	SystemInstruction   string
	ResponseModalities  []string
	InputTranscription  bool
	OutputTranscription bool
	Tools               []types.Tool
}

// Dialer opens channels to the remote conversational model.
type Dialer interface {
	Dial(ctx context.Context, cfg ChannelConfig) (Channel, error)
}

// Channel is an open duplex session with the remote model. Events is closed
// once the channel stops delivering; the last event before that is usually a
// ChannelClosedEvent or ChannelErrorEvent.
type Channel interface {
	Events() <-chan Event
	SendAudio(blob audio.Blob) error
	SendText(text string) error
	SendToolResponses(responses []types.ToolResponse) error
	Close() error
}
