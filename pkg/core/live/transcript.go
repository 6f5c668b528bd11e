package live

import (
	"strings"

	"github.com/vango-go/pj-assistant/pkg/core/types"
)

// turnBuffers accumulates transcript deltas for the current turn.
type turnBuffers struct {
	user      strings.Builder
	assistant strings.Builder
}

func (t *turnBuffers) appendUser(text string) {
	t.user.WriteString(text)
}

// appendAssistant returns the assistant text so far.
func (t *turnBuffers) appendAssistant(text string) string {
	t.assistant.WriteString(text)
	return t.assistant.String()
}

// flush returns the non-empty buffers as messages, user first, and resets.
func (t *turnBuffers) flush(newID func() string) []types.Message {
	out := make([]types.Message, 0, 2)
	if t.user.Len() > 0 {
		out = append(out, types.Message{ID: newID(), Role: types.RoleUser, Text: t.user.String()})
	}
	if t.assistant.Len() > 0 {
		out = append(out, types.Message{ID: newID(), Role: types.RoleAssistant, Text: t.assistant.String()})
	}
	t.reset()
	return out
}

func (t *turnBuffers) reset() {
	t.user.Reset()
	t.assistant.Reset()
}
