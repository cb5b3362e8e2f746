package detector

import "sync/atomic"

// MotionFlag is the only state shared with interrupt context. The ISR
// calls Set; the loop is the sole reader and clearer.
type MotionFlag struct {
	pending atomic.Bool
	edges   atomic.Uint32
	wake    chan struct{}
}

func NewMotionFlag() *MotionFlag {
	return &MotionFlag{wake: make(chan struct{}, 1)}
}

// Set marks motion pending and nudges a sleeping loop. Safe in an ISR:
// one atomic store and a non-blocking send.
func (f *MotionFlag) Set() {
	f.pending.Store(true)
	f.edges.Add(1)
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

func (f *MotionFlag) Pending() bool { return f.pending.Load() }

// Take clears the flag and reports whether it was set. A stale wake
// token is discarded with it.
func (f *MotionFlag) Take() bool {
	was := f.pending.Swap(false)
	if was {
		select {
		case <-f.wake:
		default:
		}
	}
	return was
}

// Wake fires after Set; the power supervisor halts on it.
func (f *MotionFlag) Wake() <-chan struct{} { return f.wake }

// Edges counts interrupts since boot.
func (f *MotionFlag) Edges() uint32 { return f.edges.Load() }
