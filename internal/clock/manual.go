package clock

import (
	"sync"
	"time"
)

// Manual is a Clock that only moves when Advance is called. Due callbacks run
// synchronously on the goroutine calling Advance, in due-time order, with
// ties broken by scheduling order. Callbacks may schedule further timers;
// those fire within the same Advance if they fall inside the window.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	nextID  uint64
	pending map[uint64]*manualTimer
}

type manualTimer struct {
	clock  *Manual
	id     uint64
	at     time.Time
	period time.Duration
	fn     func()
}

// NewManual returns a Manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:     start,
		pending: make(map[uint64]*manualTimer),
	}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	return m.schedule(d, 0, f)
}

func (m *Manual) Every(d time.Duration, f func()) Timer {
	if d <= 0 {
		panic("clock: non-positive interval")
	}
	return m.schedule(d, d, f)
}

func (m *Manual) schedule(d, period time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := &manualTimer{clock: m, id: m.nextID, at: m.now.Add(d), period: period, fn: f}
	m.pending[t.id] = t
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if _, ok := t.clock.pending[t.id]; !ok {
		return false
	}
	delete(t.clock.pending, t.id)
	return true
}

// Advance moves the clock forward by d, firing everything that falls due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.earliest(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		if next.period > 0 {
			next.at = next.at.Add(next.period)
		} else {
			delete(m.pending, next.id)
		}
		fn := next.fn
		m.mu.Unlock()

		fn()
	}
}

// earliest returns the first timer due at or before target. Caller holds mu.
func (m *Manual) earliest(target time.Time) *manualTimer {
	var best *manualTimer
	for _, t := range m.pending {
		if t.at.After(target) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.id < best.id) {
			best = t
		}
	}
	return best
}

// Pending returns the number of scheduled timers, recurring ones included.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
