package types

// ------------------------
// Operating mode
// ------------------------

// Mode is the detector's operating mode. Exactly one is active at a time.
// The numeric values are part of the telemetry wire contract.
type Mode uint8

const (
	ModeStandby    Mode = iota // no recent detection
	ModeWarning                // repeated mid-range detections
	ModeAlert                  // near-range detection
	ModeLowBattery             // battery below cutoff; sensing suppressed
)

func (m Mode) String() string {
	switch m {
	case ModeStandby:
		return "standby"
	case ModeWarning:
		return "warning"
	case ModeAlert:
		return "alert"
	case ModeLowBattery:
		return "low_battery"
	default:
		return "unknown"
	}
}

// Alerting reports whether the mode counts as an active detection.
func (m Mode) Alerting() bool { return m == ModeWarning || m == ModeAlert }

// ModeChange is published (retained) whenever the mode changes.
type ModeChange struct {
	From   Mode   `json:"from"`
	To     Mode   `json:"to"`
	AtMs   uint32 `json:"at_ms"`
	Reason string `json:"reason"` // "detections","near","dwell","battery","recovered"
}

// Stats are lifetime counters kept alongside the mode.
type Stats struct {
	Warnings        uint32 `json:"warnings"`
	Alerts          uint32 `json:"alerts"`
	Sleeps          uint32 `json:"sleeps"`
	Wakes           uint32 `json:"wakes"`
	LastDetectionMs uint32 `json:"last_detection_ms"`
}
