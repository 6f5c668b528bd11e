// Package sessions tracks the host connections attached to the assistant so
// state can be fanned out to each of them and they can be drained on
// shutdown.
package sessions

import (
	"context"
	"sort"
	"sync"
)

// Handle is how the tracker reaches one connected host. Push schedules a
// fresh state frame; it must not block.
type Handle struct {
	Cancel func()
	Push   func()
	Warn   func(code, message string) error
}

type Tracker struct {
	mu      sync.Mutex
	clients map[string]*trackedClient
	wg      sync.WaitGroup
}

type trackedClient struct {
	handle Handle
	once   sync.Once
}

func NewTracker() *Tracker {
	return &Tracker{clients: make(map[string]*trackedClient)}
}

// Register adds a client, replacing any previous one with the same ID.
func (t *Tracker) Register(clientID string, h Handle) (unregister func()) {
	if t == nil {
		return func() {}
	}

	entry := &trackedClient{handle: h}

	t.mu.Lock()
	if t.clients == nil {
		t.clients = make(map[string]*trackedClient)
	}
	old := t.clients[clientID]
	t.clients[clientID] = entry
	t.wg.Add(1)
	t.mu.Unlock()

	if old != nil {
		t.unregister(clientID, old)
	}
	return func() { t.unregister(clientID, entry) }
}

func (t *Tracker) unregister(clientID string, entry *trackedClient) {
	entry.once.Do(func() {
		t.mu.Lock()
		if t.clients[clientID] == entry {
			delete(t.clients, clientID)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

// IDs returns the registered client IDs in sorted order.
func (t *Tracker) IDs() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	ids := make([]string, 0, len(t.clients))
	for id := range t.clients {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	sort.Strings(ids)
	return ids
}

func (t *Tracker) handles() []Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Handle, 0, len(t.clients))
	for _, entry := range t.clients {
		out = append(out, entry.handle)
	}
	return out
}

// Broadcast asks every client to push its state.
func (t *Tracker) Broadcast() (pushed int) {
	if t == nil {
		return 0
	}
	for _, h := range t.handles() {
		if h.Push == nil {
			continue
		}
		h.Push()
		pushed++
	}
	return pushed
}

// WarnAll is best effort; a failing client still counts as sent.
func (t *Tracker) WarnAll(code, message string) (sent int) {
	if t == nil {
		return 0
	}
	for _, h := range t.handles() {
		if h.Warn == nil {
			continue
		}
		_ = h.Warn(code, message)
		sent++
	}
	return sent
}

func (t *Tracker) CancelAll() (canceled int) {
	if t == nil {
		return 0
	}
	for _, h := range t.handles() {
		if h.Cancel == nil {
			continue
		}
		h.Cancel()
		canceled++
	}
	return canceled
}

// Wait blocks until every registered client has unregistered or ctx ends.
// It reports whether all clients left.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
