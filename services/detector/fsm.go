// Package detector is the control core: the mode state machine, the
// motion flag shared with the ISR and the loop controller that ties the
// ranger, battery monitor, actuators and link together.
package detector

import (
	"sentrycode-go/services/config"
	"sentrycode-go/types"
	"sentrycode-go/x/timex"
)

// Ranger takes one (possibly averaged) distance reading in cm.
type Ranger interface {
	Measure() (float32, error)
}

// Outcome reports what one Step did.
type Outcome struct {
	Measured bool
	Changed  bool
	Change   types.ModeChange
	Sleep    bool // idle long enough; hand off to the power supervisor
}

type Machine struct {
	th     config.Thresholds
	iv     config.Intervals
	ranger Ranger
}

func NewMachine(th config.Thresholds, iv config.Intervals, r Ranger) *Machine {
	return &Machine{th: th, iv: iv, ranger: r}
}

// Step evaluates the machine once. deepSleep permits Outcome.Sleep.
func (m *Machine) Step(st *State, nowMs uint32, deepSleep bool) Outcome {
	var out Outcome
	switch st.Mode {
	case types.ModeStandby:
		m.standby(st, nowMs, deepSleep, &out)
	case types.ModeWarning:
		m.warning(st, nowMs, &out)
	case types.ModeAlert:
		if timex.Elapsed(nowMs, st.ChangedMs, m.iv.AlertDwellMs) {
			m.change(st, types.ModeWarning, nowMs, "dwell", &out)
		}
	case types.ModeLowBattery:
		// Only the battery monitor leaves LowBattery.
	}
	return out
}

func (m *Machine) standby(st *State, now uint32, deepSleep bool, out *Outcome) {
	if st.Motion != nil && st.Motion.Take() {
		if !timex.Elapsed(now, st.LastMeasureMs, m.iv.MeasureMs) {
			return
		}
		if timex.Elapsed(now, st.LastMeasureMs, m.iv.GraceMs) {
			st.Count = 0
		}
		s := m.measure(st, now, out)
		if s.Below(m.th.WarningCm) {
			st.Count++
			if st.Count >= m.th.DetectionCount {
				m.change(st, types.ModeWarning, now, "detections", out)
			}
		}
		return
	}
	if st.Count > 0 && timex.Elapsed(now, st.LastMeasureMs, m.iv.GraceMs) {
		st.Count = 0
	}
	if deepSleep && timex.Elapsed(now, st.LastMeasureMs, m.iv.IdleSleepMs) {
		out.Sleep = true
	}
}

func (m *Machine) warning(st *State, now uint32, out *Outcome) {
	if timex.Elapsed(now, st.LastMeasureMs, m.iv.MeasureMs) {
		if s := m.measure(st, now, out); s.Below(m.th.AlertCm) {
			m.change(st, types.ModeAlert, now, "near", out)
			return
		}
	}
	if timex.Elapsed(now, st.ChangedMs, m.iv.WarningDwellMs) {
		m.change(st, types.ModeStandby, now, "dwell", out)
	}
}

func (m *Machine) measure(st *State, now uint32, out *Outcome) types.SensorSample {
	cm, err := m.ranger.Measure()
	st.Sample = types.NewSample(cm, err, now, m.th.ValidMinCm, m.th.ValidMaxCm)
	st.LastMeasureMs = now
	out.Measured = true
	return st.Sample
}

func (m *Machine) change(st *State, to types.Mode, now uint32, reason string, out *Outcome) {
	if ch, ok := st.SetMode(to, now, reason); ok {
		out.Changed, out.Change = true, ch
	}
}
