package detector

import (
	"sentrycode-go/errcode"
	"sentrycode-go/types"
)

// State is the single owned aggregate the loop mutates. Only Motion is
// touched from interrupt context.
type State struct {
	Mode          types.Mode
	Count         int    // consecutive qualifying samples (Standby only)
	ChangedMs     uint32 // time of the last mode change
	LastMeasureMs uint32
	Sample        types.SensorSample
	Battery       types.BatteryStatus
	Active        bool
	Stats         types.Stats
	Motion        *MotionFlag
}

// NewState starts active in Standby with no reading yet.
func NewState(motion *MotionFlag, nowMs uint32) *State {
	return &State{
		Mode:          types.ModeStandby,
		ChangedMs:     nowMs,
		LastMeasureMs: nowMs,
		Sample:        types.SensorSample{DistanceCm: types.NoDistance, Err: errcode.NotReady, TsMs: nowMs},
		Active:        true,
		Motion:        motion,
	}
}

// SetMode changes mode, stamping the change time and clearing the
// detection counter. It reports false when to is already the mode.
func (s *State) SetMode(to types.Mode, nowMs uint32, reason string) (types.ModeChange, bool) {
	if to == s.Mode {
		return types.ModeChange{}, false
	}
	ch := types.ModeChange{From: s.Mode, To: to, AtMs: nowMs, Reason: reason}
	s.Mode = to
	s.Count = 0
	s.ChangedMs = nowMs
	switch to {
	case types.ModeWarning:
		if ch.From == types.ModeStandby {
			s.Stats.Warnings++
		}
		s.Stats.LastDetectionMs = nowMs
	case types.ModeAlert:
		s.Stats.Alerts++
		s.Stats.LastDetectionMs = nowMs
	}
	return ch, true
}

// Telemetry is the outbound view of the state.
func (s *State) Telemetry() types.TelemetryRecord {
	return types.TelemetryRecord{
		DistanceM:      s.Sample.DistanceCm / 100,
		Motion:         s.Mode.Alerting() || (s.Motion != nil && s.Motion.Pending()),
		BatteryPercent: s.Battery.Percent,
		State:          s.Mode,
		Active:         s.Active,
	}
}
