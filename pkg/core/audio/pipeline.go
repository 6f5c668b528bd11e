package audio

import (
	"fmt"
	"log/slog"
	"sync"
)

// Pipeline lazily owns the output context and the speaker that renders it.
// The context outlives individual sessions; each session schedules through
// its own Scheduler.
type Pipeline struct {
	mu      sync.Mutex
	speaker Speaker
	out     *OutputContext
	started bool
	logger  *slog.Logger
}

// NewPipeline creates a pipeline. A nil speaker leaves the clock to be driven
// by whoever reads the output context.
func NewPipeline(speaker Speaker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{speaker: speaker, logger: logger}
}

// Ensure constructs the output context and starts the speaker on first use.
func (p *Pipeline) Ensure() (*OutputContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		p.out = NewOutputContext(OutputSampleRate)
	}
	if p.speaker != nil && !p.started {
		if err := p.speaker.Start(p.out); err != nil {
			return nil, fmt.Errorf("start speaker: %w", err)
		}
		p.started = true
	}
	return p.out, nil
}

// Output returns the output context, or nil before Ensure.
func (p *Pipeline) Output() *OutputContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out
}

// NewScheduler returns a scheduler bound to the output context.
func (p *Pipeline) NewScheduler() (*Scheduler, error) {
	out, err := p.Ensure()
	if err != nil {
		return nil, err
	}
	return NewScheduler(out), nil
}

// Play fires buf at the current clock outside any session's cursor.
func (p *Pipeline) Play(buf *Buffer) {
	out := p.Output()
	if out == nil {
		return
	}
	if _, err := out.Start(buf, out.CurrentTime()); err != nil {
		p.logger.Debug("cue playback skipped", "error", err)
	}
}

// Close stops the speaker and the output context.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	if p.speaker != nil && p.started {
		if err := p.speaker.Close(); err != nil {
			firstErr = fmt.Errorf("close speaker: %w", err)
		}
		p.started = false
	}
	if p.out != nil {
		if n := p.out.Pending(); n > 0 {
			p.logger.Debug("dropping scheduled audio", "units", n)
		}
		if err := p.out.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.out = nil
	}
	return firstErr
}
