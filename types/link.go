package types

// ------------------------
// Telemetry (outbound, one JSON object per line)
// ------------------------

type TelemetryRecord struct {
	DistanceM      float32  `json:"distance"`
	Motion         bool     `json:"motion"`
	BatteryPercent float32  `json:"battery"`
	State          Mode     `json:"state"`
	Active         bool     `json:"active"`
	TempC          *float32 `json:"temp_c,omitempty"` // only with an ambient sensor
}

// ------------------------
// Commands (inbound, one per line)
// ------------------------

type Command uint8

const (
	CmdNone Command = iota
	CmdStart
	CmdStop
	CmdStatus
)

func (c Command) String() string {
	switch c {
	case CmdStart:
		return "START"
	case CmdStop:
		return "STOP"
	case CmdStatus:
		return "STATUS"
	default:
		return ""
	}
}

// ------------------------
// Events
// ------------------------

// WakeSource says what ended a deep sleep.
type WakeSource uint8

const (
	WakeNone WakeSource = iota
	WakeMotion
	WakeWatchdog
)

func (w WakeSource) String() string {
	switch w {
	case WakeMotion:
		return "motion"
	case WakeWatchdog:
		return "watchdog"
	default:
		return "none"
	}
}
