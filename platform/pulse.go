package platform

import "time"

// pulseWidth polls level until it reads high, then times how long it stays
// there. The wait and the pulse share one deadline of timeout from the call;
// a missed deadline yields 0.
func pulseWidth(level func() bool, now func() time.Time, high bool, timeout time.Duration) time.Duration {
	deadline := now().Add(timeout)
	for level() != high {
		if now().After(deadline) {
			return 0
		}
	}
	start := now()
	for level() == high {
		if now().After(deadline) {
			return 0
		}
	}
	return now().Sub(start)
}
