package bridge

import (
	"testing"
	"time"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/core/types"
)

type staticInbox []booking.Notification

func (s staticInbox) List() []booking.Notification { return s }
func (staticInbox) MarkRead(string) bool { return false }
func (staticInbox) MarkAllRead() {}
func (staticInbox) Changes() <-chan struct{} { return nil }

func TestStateFrame(t *testing.T) {
	snap := live.Snapshot{
		Phase:          live.PhaseClosed,
		Status:         live.StatusEnded,
		TypedStatus:    "Atendimento",
		FeedbackPrompt: true,
		Messages: []types.Message{
			{ID: "1", Role: types.RoleUser, Text: "oi"},
			{ID: "2", Role: types.RoleAssistant, Text: "Olá!"},
		},
	}
	inbox := staticInbox{
		{ID: "n2", Title: "Feedback Enviado", Category: booking.CategoryReminder, Date: time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)},
		{ID: "n1", Title: "Agendamento Confirmado", Category: booking.CategoryConfirmation, Read: true},
	}

	frame := stateFrame(7, snap, inbox)
	if frame.Type != "state" || frame.Seq != 7 {
		t.Fatalf("frame=%+v", frame)
	}
	if frame.State.Phase != "closed" || !frame.State.FeedbackPrompt || frame.State.TypedStatus != "Atendimento" {
		t.Fatalf("state=%+v", frame.State)
	}
	if len(frame.State.Messages) != 2 || frame.State.Messages[1].Role != "assistant" {
		t.Fatalf("messages=%+v", frame.State.Messages)
	}
	if frame.Unread != 1 || len(frame.Notifications) != 2 {
		t.Fatalf("unread=%d notifications=%d", frame.Unread, len(frame.Notifications))
	}
	if frame.Notifications[0].Date != "2025-05-02T10:00:00Z" || frame.Notifications[0].Category != "reminder" {
		t.Fatalf("notification=%+v", frame.Notifications[0])
	}
}

func TestStateFrame_NilInbox(t *testing.T) {
	frame := stateFrame(1, live.Snapshot{}, nil)
	if frame.Notifications != nil || frame.Unread != 0 {
		t.Fatalf("frame=%+v", frame)
	}
}
