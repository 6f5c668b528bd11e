package bridge

import (
	"time"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/gateway/protocol"
)

func assistantState(snap live.Snapshot) protocol.AssistantState {
	msgs := make([]protocol.Message, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		msgs = append(msgs, protocol.Message{ID: m.ID, Role: string(m.Role), Text: m.Text})
	}
	return protocol.AssistantState{
		Phase:          snap.Phase.String(),
		Connecting:     snap.Connecting,
		Active:         snap.Active,
		Speaking:       snap.Speaking,
		Error:          snap.Error,
		Status:         snap.Status,
		TypedStatus:    snap.TypedStatus,
		Messages:       msgs,
		FeedbackPrompt: snap.FeedbackPrompt,
	}
}

func notifications(items []booking.Notification) ([]protocol.Notification, int) {
	out := make([]protocol.Notification, 0, len(items))
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
		out = append(out, protocol.Notification{
			ID:       n.ID,
			Title:    n.Title,
			Message:  n.Message,
			Category: string(n.Category),
			Date:     n.Date.UTC().Format(time.RFC3339),
			Read:     n.Read,
		})
	}
	return out, unread
}

func stateFrame(seq int64, snap live.Snapshot, inbox Inbox) protocol.ServerState {
	frame := protocol.ServerState{Type: "state", Seq: seq, State: assistantState(snap)}
	if inbox != nil {
		frame.Notifications, frame.Unread = notifications(inbox.List())
	}
	return frame
}
