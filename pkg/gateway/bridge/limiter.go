package bridge

import "time"

// commandLimiter is a token bucket over client commands. A nil limiter
// allows everything.
type commandLimiter struct {
	now          func() time.Time
	rate         int64
	tokens       int64
	burstSeconds int64
	lastRefill   time.Time
}

func newCommandLimiter(now func() time.Time, perSecond, burstSeconds int) *commandLimiter {
	if perSecond <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	if burstSeconds <= 0 {
		burstSeconds = 1
	}
	l := &commandLimiter{
		now:          now,
		rate:         int64(perSecond),
		burstSeconds: int64(burstSeconds),
		lastRefill:   now(),
	}
	l.tokens = l.rate * l.burstSeconds
	return l
}

func (l *commandLimiter) Allow() bool {
	if l == nil {
		return true
	}
	l.refill()
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

func (l *commandLimiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill)
	if elapsed <= 0 {
		return
	}
	add := (elapsed.Nanoseconds() * l.rate) / int64(time.Second)
	if add <= 0 {
		// Keep lastRefill so fractional tokens accumulate.
		return
	}
	l.tokens += add
	if max := l.rate * l.burstSeconds; l.tokens > max {
		l.tokens = max
	}
	l.lastRefill = now
}
