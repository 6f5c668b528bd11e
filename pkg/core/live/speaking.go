package live

import (
	"sync"
	"time"
)

// speakingIndicator raises a flag when a capture window is louder than the
// threshold and lowers it once hold has passed without another loud window.
type speakingIndicator struct {
	threshold float64
	hold      time.Duration
	onChange  func(bool)

	mu       sync.Mutex
	speaking bool
	timer    *time.Timer
	stopped  bool
}

func newSpeakingIndicator(threshold float64, hold time.Duration, onChange func(bool)) *speakingIndicator {
	return &speakingIndicator{threshold: threshold, hold: hold, onChange: onChange}
}

// Observe feeds the RMS level of one capture window.
func (d *speakingIndicator) Observe(level float64) {
	if level <= d.threshold {
		return
	}
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	changed := !d.speaking
	d.speaking = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.hold, d.expire)
	} else {
		d.timer.Reset(d.hold)
	}
	d.mu.Unlock()

	if changed && d.onChange != nil {
		d.onChange(true)
	}
}

func (d *speakingIndicator) expire() {
	d.mu.Lock()
	changed := d.speaking && !d.stopped
	d.speaking = false
	d.mu.Unlock()

	if changed && d.onChange != nil {
		d.onChange(false)
	}
}

// Stop lowers the flag and disables further changes.
func (d *speakingIndicator) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	changed := d.speaking
	d.speaking = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	if changed && d.onChange != nil {
		d.onChange(false)
	}
}
