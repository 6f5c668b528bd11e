// Package bridge connects browser hosts to the shared assistant over a
// WebSocket. Each connection gets state frames whenever the assistant or
// the notification inbox changes, and may send host commands back.
package bridge

import (
	"context"
	"log/slog"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/gateway/sessions"
)

// Assistant is the part of *live.Assistant a host drives.
type Assistant interface {
	Open(ctx context.Context) error
	Close()
	SendTextMessage(text string)
	AnswerFeedback(ctx context.Context, liked bool)
	DismissFeedback()
	Snapshot() live.Snapshot
	Updates() <-chan struct{}
}

// Inbox is the notification list shown next to the assistant.
type Inbox interface {
	List() []booking.Notification
	MarkRead(id string) bool
	MarkAllRead()
	Changes() <-chan struct{}
}

var (
	_ Assistant = (*live.Assistant)(nil)
	_ Inbox     = (*booking.Inbox)(nil)
)

// Hub fans change signals out to every connected client.
type Hub struct {
	Assistant Assistant
	Inbox     Inbox
	Clients   *sessions.Tracker
	Logger    *slog.Logger
}

// Run forwards changes until ctx is done. It must be the only reader of the
// assistant's update channel.
func (h *Hub) Run(ctx context.Context) {
	var inboxChanges <-chan struct{}
	if h.Inbox != nil {
		inboxChanges = h.Inbox.Changes()
	}
	updates := h.Assistant.Updates()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
		case <-inboxChanges:
		}
		n := h.Clients.Broadcast()
		if h.Logger != nil {
			h.Logger.Debug("state broadcast", "clients", n)
		}
	}
}
