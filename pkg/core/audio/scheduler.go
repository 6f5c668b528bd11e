package audio

import "sync"

// Scheduler queues decoded chunks back to back on an OutputContext. It owns
// the playback cursor and the set of units that have not ended yet. Units end
// on the render goroutine, so the set is mutex guarded.
type Scheduler struct {
	ctx *OutputContext

	mu     sync.Mutex
	cursor float64
	active map[*Unit]struct{}
}

// NewScheduler creates a scheduler with its cursor at zero.
func NewScheduler(ctx *OutputContext) *Scheduler {
	return &Scheduler{ctx: ctx, active: make(map[*Unit]struct{})}
}

// Schedule starts buf at max(cursor, now) and advances the cursor past it.
func (s *Scheduler) Schedule(buf *Buffer) (*Unit, error) {
	s.mu.Lock()
	start := s.cursor
	if now := s.ctx.CurrentTime(); now > start {
		start = now
	}
	u, err := s.ctx.Start(buf, start)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.cursor = u.EndTime()
	s.active[u] = struct{}{}
	s.mu.Unlock()

	u.OnEnded(func() {
		s.mu.Lock()
		delete(s.active, u)
		s.mu.Unlock()
	})
	return u, nil
}

// Flush stops every active unit, clears the set and resets the cursor.
// Safe to call repeatedly.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	units := make([]*Unit, 0, len(s.active))
	for u := range s.active {
		units = append(units, u)
	}
	clear(s.active)
	s.cursor = 0
	s.mu.Unlock()

	for _, u := range units {
		u.Stop()
	}
}

// Cursor returns the clock time at which the next chunk would start if the
// clock has not passed it.
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Active returns the number of scheduled units that have not ended.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
