package booking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Inbox is an in-memory Notifier that keeps notifications newest first.
type Inbox struct {
	mu     sync.Mutex
	items  []Notification
	now     func() time.Time
	logger  *slog.Logger
	changes chan struct{}
}

// NewInbox creates an empty inbox.
func NewInbox(logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{now: time.Now, logger: logger, changes: make(chan struct{}, 1)}
}

// Notify records n as unread.
func (b *Inbox) Notify(_ context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Date.IsZero() {
		n.Date = b.now()
	}
	n.Read = false

	b.mu.Lock()
	b.items = append([]Notification{n}, b.items...)
	b.mu.Unlock()

	b.logger.Info("notification", "id", n.ID, "category", string(n.Category), "title", n.Title)
	b.changed()
	return nil
}

// Changes fires after the inbox is modified. Signals coalesce.
func (b *Inbox) Changes() <-chan struct{} { return b.changes }

func (b *Inbox) changed() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// List returns a snapshot of all notifications, newest first.
func (b *Inbox) List() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notification(nil), b.items...)
}

// Unread returns the number of unread notifications.
func (b *Inbox) Unread() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, it := range b.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// MarkRead flags one notification as read. It reports whether id was found.
func (b *Inbox) MarkRead(id string) bool {
	b.mu.Lock()
	found := false
	for i := range b.items {
		if b.items[i].ID == id {
			b.items[i].Read = true
			found = true
			break
		}
	}
	b.mu.Unlock()
	if found {
		b.changed()
	}
	return found
}

// MarkAllRead flags every notification as read.
func (b *Inbox) MarkAllRead() {
	b.mu.Lock()
	for i := range b.items {
		b.items[i].Read = true
	}
	b.mu.Unlock()
	b.changed()
}
