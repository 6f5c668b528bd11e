// Package typing reveals status text one character at a time.
package typing

import (
	"sync"
	"time"
)

// DefaultInterval is the delay between revealed characters.
const DefaultInterval = 30 * time.Millisecond

// Typewriter progressively reveals a target string. Starting a new reveal
// cancels the one in flight and restarts from the empty string.
type Typewriter struct {
	interval time.Duration
	onUpdate func(string)

	mu     sync.Mutex
	emitMu sync.Mutex
	target []rune
	shown  int
	gen    uint64
	cancel chan struct{}
}

// New creates a typewriter. onUpdate, if set, receives every revealed prefix
// from the reveal goroutine; it must not block for long.
func New(interval time.Duration, onUpdate func(string)) *Typewriter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Typewriter{interval: interval, onUpdate: onUpdate}
}

// Start begins revealing text.
func (w *Typewriter) Start(text string) {
	w.mu.Lock()
	if w.cancel != nil {
		close(w.cancel)
	}
	w.gen++
	gen := w.gen
	w.target = []rune(text)
	w.shown = 0
	cancel := make(chan struct{})
	w.cancel = cancel
	w.mu.Unlock()

	w.emit(gen, "")
	if len(text) == 0 {
		return
	}
	go w.run(gen, cancel)
}

func (w *Typewriter) run(gen uint64, cancel chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}

		w.mu.Lock()
		if w.gen != gen {
			w.mu.Unlock()
			return
		}
		w.shown++
		text := string(w.target[:w.shown])
		finished := w.shown >= len(w.target)
		w.mu.Unlock()

		w.emit(gen, text)
		if finished {
			return
		}
	}
}

func (w *Typewriter) emit(gen uint64, text string) {
	if w.onUpdate == nil {
		return
	}
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	w.mu.Lock()
	current := w.gen == gen
	w.mu.Unlock()
	if current {
		w.onUpdate(text)
	}
}

// Stop halts the reveal, leaving the current prefix displayed.
func (w *Typewriter) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		close(w.cancel)
		w.cancel = nil
	}
	w.gen++
}

// Text returns the currently displayed prefix.
func (w *Typewriter) Text() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.target[:w.shown])
}
