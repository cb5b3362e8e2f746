package timex

import (
	"sync"
	"time"
)

// Clock is the loop's notion of time: a wrapping millisecond counter plus
// bounded blocking delays. Arithmetic on NowMs values must go through Since.
type Clock interface {
	NowMs() uint32
	Delay(d time.Duration)
}

// Since returns now-then in milliseconds, correct across counter wrap.
func Since(now, then uint32) uint32 { return now - then }

// Elapsed reports whether at least d ms have passed between then and now.
func Elapsed(now, then, d uint32) bool { return Since(now, then) >= d }

// ---- System clock ----

// System counts milliseconds since it was created.
type System struct {
	start time.Time
}

func NewSystem() *System { return &System{start: time.Now()} }

func (s *System) NowMs() uint32 { return uint32(time.Since(s.start) / time.Millisecond) }

// Delay sleeps for d. Sub-millisecond delays busy-wait so trigger pulses
// keep their width; the scheduler is not trusted below 1 ms.
func (s *System) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	if d < time.Millisecond {
		t0 := time.Now()
		for time.Since(t0) < d {
		}
		return
	}
	time.Sleep(d)
}

// ---- Manual clock (tests, simulation) ----

// Manual is advanced explicitly. Delay advances it by d, so blocking code
// under test consumes simulated time instead of wall time.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

func NewManual(startMs uint32) *Manual {
	return &Manual{now: time.Duration(startMs) * time.Millisecond}
}

func (m *Manual) NowMs() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint32(m.now / time.Millisecond)
}

func (m *Manual) Delay(d time.Duration) { m.Advance(d) }

func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}

// Set jumps to an absolute millisecond value (never backwards).
func (m *Manual) Set(ms uint32) {
	m.mu.Lock()
	if t := time.Duration(ms) * time.Millisecond; t > m.now {
		m.now = t
	}
	m.mu.Unlock()
}
