package detector

import (
	"testing"

	"sentrycode-go/errcode"
	"sentrycode-go/services/config"
	"sentrycode-go/types"
)

// scriptRanger replays readings; a negative value or an exhausted script
// means no echo.
type scriptRanger struct {
	cm    []float32
	calls int
}

func (r *scriptRanger) Measure() (float32, error) {
	i := r.calls
	r.calls++
	if i >= len(r.cm) || r.cm[i] < 0 {
		return 0, errcode.NoEcho
	}
	return r.cm[i], nil
}

func newMachine(cm ...float32) (*Machine, *State, *scriptRanger) {
	cfg := config.Default()
	r := &scriptRanger{cm: cm}
	return NewMachine(cfg.Thresholds, cfg.Intervals, r), NewState(NewMotionFlag(), 0), r
}

// motionStep raises the motion flag and steps at now.
func motionStep(m *Machine, st *State, now uint32) Outcome {
	st.Motion.Set()
	return m.Step(st, now, false)
}

func TestScenarioTwoDetectionsThenNear(t *testing.T) {
	m, st, _ := newMachine(250, 250, 150)

	motionStep(m, st, 500)
	if st.Mode != types.ModeStandby || st.Count != 1 {
		t.Fatalf("after 1st: mode=%v count=%d", st.Mode, st.Count)
	}
	out := motionStep(m, st, 1000)
	if st.Mode != types.ModeWarning || st.Count != 0 || !out.Changed || out.Change.Reason != "detections" {
		t.Fatalf("after 2nd: mode=%v count=%d out=%+v", st.Mode, st.Count, out)
	}
	if st.ChangedMs != 1000 {
		t.Fatalf("transition time = %d", st.ChangedMs)
	}
	out = m.Step(st, 1500, false)
	if st.Mode != types.ModeAlert || out.Change.From != types.ModeWarning {
		t.Fatalf("after 150cm: mode=%v out=%+v", st.Mode, out)
	}
}

func TestInvalidSamplesDoNotTouchCounter(t *testing.T) {
	m, st, _ := newMachine(20, 400, -1, 250, 20.0, 401, 400)

	now := uint32(0)
	for i, want := range []int{0, 0, 0, 1, 1, 1, 1} {
		now += 500
		motionStep(m, st, now)
		if st.Count != want {
			t.Fatalf("sample %d: count=%d want %d (sample %+v)", i, st.Count, want, st.Sample)
		}
	}
	if st.Sample.Valid || st.Sample.Err != errcode.OutOfRange {
		t.Fatalf("last sample = %+v", st.Sample)
	}
}

func TestNoEchoSampleIsMarked(t *testing.T) {
	m, st, _ := newMachine(-1)
	motionStep(m, st, 500)
	if st.Sample.Valid || st.Sample.Err != errcode.NoEcho || st.Sample.DistanceCm != types.NoDistance {
		t.Fatalf("sample = %+v", st.Sample)
	}
}

func TestMeasureIntervalGatesMotion(t *testing.T) {
	m, st, r := newMachine(250, 250)

	motionStep(m, st, 499) // too soon after boot: flag consumed, no reading
	if r.calls != 0 || st.Motion.Pending() {
		t.Fatalf("calls=%d pending=%v", r.calls, st.Motion.Pending())
	}
	motionStep(m, st, 500)
	if r.calls != 1 || st.LastMeasureMs != 500 {
		t.Fatalf("calls=%d last=%d", r.calls, st.LastMeasureMs)
	}
}

func TestCounterGracePeriod(t *testing.T) {
	m, st, _ := newMachine(250, 800)

	motionStep(m, st, 500)
	motionStep(m, st, 1000) // non-qualifying: counter untouched
	if st.Count != 1 {
		t.Fatalf("within grace count=%d, want 1", st.Count)
	}
	m.Step(st, 5999, false)
	if st.Count != 1 {
		t.Fatalf("before grace count=%d", st.Count)
	}
	m.Step(st, 6000, false)
	if st.Count != 0 {
		t.Fatalf("after grace count=%d, want 0", st.Count)
	}
}

func TestStaleCounterResetBeforeSample(t *testing.T) {
	m, st, _ := newMachine(250, 250)

	motionStep(m, st, 500)
	motionStep(m, st, 5500) // 5 s since the first reading
	if st.Mode != types.ModeStandby || st.Count != 1 {
		t.Fatalf("stale evidence escalated: mode=%v count=%d", st.Mode, st.Count)
	}
}

func TestWarningDwellBackToStandby(t *testing.T) {
	m, st, _ := newMachine(250, 250, 250, 280, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250)
	motionStep(m, st, 500)
	motionStep(m, st, 1000)

	for now := uint32(1500); now <= 10500; now += 500 {
		m.Step(st, now, false)
	}
	m.Step(st, 10999, false)
	if st.Mode != types.ModeWarning {
		t.Fatalf("left Warning early: %v", st.Mode)
	}
	out := m.Step(st, 11000, false)
	if st.Mode != types.ModeStandby || out.Change.Reason != "dwell" || st.Count != 0 {
		t.Fatalf("mode=%v out=%+v", st.Mode, out)
	}
}

func TestAlertDecayIsTimeOnly(t *testing.T) {
	m, st, r := newMachine(250, 250, 100)
	motionStep(m, st, 500)
	motionStep(m, st, 1000)
	m.Step(st, 1500, false)
	if st.Mode != types.ModeAlert {
		t.Fatalf("mode = %v", st.Mode)
	}
	calls := r.calls

	for now := uint32(1520); now < 31500; now += 20 {
		st.Motion.Set()
		if m.Step(st, now, false); st.Mode != types.ModeAlert {
			t.Fatalf("left Alert at %d", now)
		}
	}
	out := m.Step(st, 31500, false)
	if st.Mode != types.ModeWarning || st.ChangedMs != 31500 || out.Change.Reason != "dwell" {
		t.Fatalf("mode=%v changed=%d", st.Mode, st.ChangedMs)
	}
	if r.calls != calls {
		t.Fatalf("Alert re-measured distance %d times", r.calls-calls)
	}
}

func TestLowBatteryIgnoresSensing(t *testing.T) {
	m, st, r := newMachine(100, 100)
	st.SetMode(types.ModeLowBattery, 0, "battery")

	for now := uint32(500); now < 60000; now += 500 {
		if out := motionStep(m, st, now); out.Sleep || out.Measured {
			t.Fatalf("LowBattery acted: %+v", out)
		}
	}
	if r.calls != 0 || st.Mode != types.ModeLowBattery {
		t.Fatalf("calls=%d mode=%v", r.calls, st.Mode)
	}
}

func TestIdleSleepOnlyWhenPermitted(t *testing.T) {
	m, st, _ := newMachine()

	if out := m.Step(st, 29999, true); out.Sleep {
		t.Fatal("slept before the idle period")
	}
	if out := m.Step(st, 30000, false); out.Sleep {
		t.Fatal("slept with deep sleep disabled")
	}
	if out := m.Step(st, 30000, true); !out.Sleep {
		t.Fatal("expected sleep after 30 s idle")
	}
}

func TestSetModeStats(t *testing.T) {
	st := NewState(nil, 0)
	if _, ok := st.SetMode(types.ModeStandby, 10, "x"); ok {
		t.Fatal("same-mode change reported")
	}
	st.Count = 1
	st.SetMode(types.ModeWarning, 100, "detections")
	st.SetMode(types.ModeAlert, 200, "near")
	st.SetMode(types.ModeWarning, 300, "dwell")
	if st.Count != 0 || st.Stats.Warnings != 1 || st.Stats.Alerts != 1 || st.Stats.LastDetectionMs != 300 {
		t.Fatalf("stats = %+v count=%d", st.Stats, st.Count)
	}
}

func TestTelemetryMotionFollowsMode(t *testing.T) {
	st := NewState(NewMotionFlag(), 0)
	st.Sample = types.NewSample(150, nil, 0, 20, 400)
	st.Battery = types.BatteryStatus{Voltage: 4.0, Percent: 44.4}

	if st.Telemetry().Motion {
		t.Fatal("standby without motion reported motion")
	}
	st.Motion.Set()
	if !st.Telemetry().Motion {
		t.Fatal("pending motion not reported")
	}
	st.Motion.Take()
	for _, m := range []types.Mode{types.ModeWarning, types.ModeAlert} {
		st.Mode = m
		rec := st.Telemetry()
		if !rec.Motion || rec.State != m || rec.DistanceM != 1.5 {
			t.Fatalf("%v: %+v", m, rec)
		}
	}
	st.Mode = types.ModeLowBattery
	if st.Telemetry().Motion {
		t.Fatal("LowBattery is not alerting")
	}
}

func TestMotionFlag(t *testing.T) {
	f := NewMotionFlag()
	if f.Take() {
		t.Fatal("fresh flag pending")
	}
	f.Set()
	f.Set()
	select {
	case <-f.Wake():
	default:
		t.Fatal("Set must signal the wake channel")
	}
	f.Set()
	if !f.Take() || f.Pending() || f.Edges() != 3 {
		t.Fatalf("pending=%v edges=%d", f.Pending(), f.Edges())
	}
	select {
	case <-f.Wake():
		t.Fatal("Take must discard a stale wake token")
	default:
	}
}
