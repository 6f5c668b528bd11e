// Package lifecycle holds process state shared across handlers during
// graceful shutdown.
package lifecycle

import (
	"sync/atomic"
	"time"
)

// Lifecycle tracks whether the server is draining. A nil *Lifecycle is
// never draining.
type Lifecycle struct {
	draining atomic.Bool
	since    atomic.Int64
}

// BeginDrain marks the server as draining. It reports whether this call
// started the drain.
func (l *Lifecycle) BeginDrain(now time.Time) bool {
	if l == nil {
		return false
	}
	if !l.draining.CompareAndSwap(false, true) {
		return false
	}
	l.since.Store(now.UnixNano())
	return true
}

func (l *Lifecycle) IsDraining() bool {
	if l == nil {
		return false
	}
	return l.draining.Load()
}

// DrainingFor returns how long the server has been draining, or zero.
func (l *Lifecycle) DrainingFor(now time.Time) time.Duration {
	if !l.IsDraining() {
		return 0
	}
	since := l.since.Load()
	if since == 0 {
		return 0
	}
	return now.Sub(time.Unix(0, since))
}
