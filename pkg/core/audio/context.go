package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
)

// ErrContextClosed is returned when scheduling on a closed OutputContext.
var ErrContextClosed = errors.New("audio: output context closed")

// OutputContext is a mono playback clock domain. Its clock is the number of
// frames rendered so far divided by the sample rate, so time only moves while
// a device (or a test) pulls audio through Read or Render. Scheduled units are
// mixed at their start frame.
type OutputContext struct {
	mu        sync.Mutex
	rate      int
	pos       int64
	units   []*Unit
	closed  bool
	scratch []float32
}

// NewOutputContext creates a running context at sampleRate.
func NewOutputContext(sampleRate int) *OutputContext {
	if sampleRate <= 0 {
		sampleRate = OutputSampleRate
	}
	return &OutputContext{rate: sampleRate}
}

// SampleRate returns the context's sample rate.
func (c *OutputContext) SampleRate() int { return c.rate }

// CurrentTime returns the context clock in seconds.
func (c *OutputContext) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.pos) / float64(c.rate)
}

// Start schedules buf to begin at the given clock time. A start time in the
// past begins at the next rendered frame.
func (c *OutputContext) Start(buf *Buffer, at float64) (*Unit, error) {
	if buf == nil || buf.Frames() == 0 {
		return nil, fmt.Errorf("audio: empty buffer")
	}
	if buf.SampleRate != c.rate {
		return nil, fmt.Errorf("audio: buffer rate %d does not match context rate %d", buf.SampleRate, c.rate)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrContextClosed
	}
	start := int64(math.Round(at * float64(c.rate)))
	if start < c.pos {
		start = c.pos
	}
	u := &Unit{
		ctx:    c,
		data:   mixdown(buf),
		start:  start,
		rate:   c.rate,
		frames: buf.Frames(),
	}
	c.units = append(c.units, u)
	return u, nil
}

// Render mixes the next len(out) frames into out and advances the clock.
// Units that finish fire their ended hooks after the mix.
func (c *OutputContext) Render(out []float32) {
	for i := range out {
		out[i] = 0
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	n := int64(len(out))
	var finished []*Unit
	kept := c.units[:0]
	for _, u := range c.units {
		u.mix(out, c.pos)
		if u.start+int64(len(u.data)) <= c.pos+n {
			u.ended = true
			finished = append(finished, u)
			continue
		}
		kept = append(kept, u)
	}
	clear(c.units[len(kept):])
	c.units = kept
	c.pos += n
	c.mu.Unlock()

	for _, u := range finished {
		u.finish()
	}
}

// Read renders signed 16-bit little-endian mono PCM into p. It implements
// io.Reader for pull-based output devices.
func (c *OutputContext) Read(p []byte) (int, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return 0, io.EOF
	}

	frames := len(p) / 2
	if frames == 0 {
		return 0, nil
	}
	if cap(c.scratch) < frames {
		c.scratch = make([]float32, frames)
	}
	buf := c.scratch[:frames]
	c.Render(buf)
	for i, s := range buf {
		v := uint16(floatToInt16(s))
		p[i*2] = byte(v)
		p[i*2+1] = byte(v >> 8)
	}
	return frames * 2, nil
}

// Pending returns the number of units not yet finished.
func (c *OutputContext) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.units)
}

// Close stops every unit and rejects further scheduling.
func (c *OutputContext) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	units := c.units
	c.units = nil
	for _, u := range units {
		u.ended = true
	}
	c.mu.Unlock()

	for _, u := range units {
		u.finish()
	}
	return nil
}

func (c *OutputContext) remove(target *Unit) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if target.ended {
		return false
	}
	target.ended = true
	for i, u := range c.units {
		if u == target {
			c.units = append(c.units[:i], c.units[i+1:]...)
			break
		}
	}
	return true
}

func mixdown(buf *Buffer) []float32 {
	if buf.Channels() == 1 {
		out := make([]float32, buf.Frames())
		copy(out, buf.Data[0])
		return out
	}
	out := make([]float32, buf.Frames())
	scale := 1 / float32(buf.Channels())
	for _, ch := range buf.Data {
		for i, s := range ch {
			out[i] += s * scale
		}
	}
	return out
}

// Unit is one scheduled buffer on an OutputContext.
type Unit struct {
	ctx    *OutputContext
	data   []float32
	start  int64
	rate   int
	frames int

	// guarded by ctx.mu
	ended bool

	hookMu  sync.Mutex
	onEnded []func()
	fired   bool
}

// StartTime returns the scheduled start on the context clock in seconds.
func (u *Unit) StartTime() float64 { return float64(u.start) / float64(u.rate) }

// EndTime returns the scheduled end on the context clock in seconds.
func (u *Unit) EndTime() float64 { return float64(u.start+int64(u.frames)) / float64(u.rate) }

// OnEnded registers fn to run when the unit ends. If it already ended, fn
// runs immediately.
func (u *Unit) OnEnded(fn func()) {
	u.hookMu.Lock()
	if u.fired {
		u.hookMu.Unlock()
		fn()
		return
	}
	u.onEnded = append(u.onEnded, fn)
	u.hookMu.Unlock()
}

// Stop silences the unit immediately. Stopping an ended unit is a no-op.
func (u *Unit) Stop() {
	if u.ctx.remove(u) {
		u.finish()
	}
}

func (u *Unit) mix(out []float32, pos int64) {
	for i := range out {
		idx := pos + int64(i) - u.start
		if idx < 0 {
			continue
		}
		if idx >= int64(len(u.data)) {
			return
		}
		out[i] += u.data[idx]
	}
}

func (u *Unit) finish() {
	u.hookMu.Lock()
	if u.fired {
		u.hookMu.Unlock()
		return
	}
	u.fired = true
	hooks := u.onEnded
	u.onEnded = nil
	u.hookMu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
