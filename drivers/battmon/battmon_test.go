package battmon

import (
	"testing"
	"time"

	"sentrycode-go/types"
	"sentrycode-go/x/timex"
)

type fakeADC struct {
	raw     []uint16
	i       int
	refLow  bool
	refLog  []bool
	lowHits int
}

func (f *fakeADC) Get() uint16 {
	if f.refLow {
		f.lowHits++
	}
	v := f.raw[f.i%len(f.raw)]
	f.i++
	return v
}

func (f *fakeADC) UseInternalReference(low bool) {
	f.refLow = low
	f.refLog = append(f.refLog, low)
}

func cfg() Config {
	return Config{
		RefVolts: 3.3, Divider: 3,
		CutoffV: 3.6, RecoverV: 4.0, FullV: 4.5,
		Samples: 8, SampleGap: 5 * time.Millisecond, Settle: 10 * time.Millisecond,
	}
}

// rawFor returns the 16-bit reading that a battery at v produces.
func rawFor(v float32) uint16 { return uint16(v / 3 / 3.3 * 65535) }

func near(a, b, eps float32) bool { return a-b < eps && b-a < eps }

func TestReadAveragesAndSwitchesReference(t *testing.T) {
	adc := &fakeADC{raw: []uint16{rawFor(4.0) - 100, rawFor(4.0) + 100}}
	clk := timex.NewManual(0)
	m := New(adc, clk, cfg())

	st := m.Read()
	if !near(st.Voltage, 4.0, 0.01) {
		t.Fatalf("voltage = %v, want ~4.0", st.Voltage)
	}
	if !near(st.Percent, 44.44, 0.5) {
		t.Fatalf("percent = %v, want ~44.4", st.Percent)
	}
	if adc.i != 8 || adc.lowHits != 8 {
		t.Fatalf("samples=%d onLowRef=%d", adc.i, adc.lowHits)
	}
	if len(adc.refLog) != 2 || !adc.refLog[0] || adc.refLog[1] {
		t.Fatalf("reference not restored: %v", adc.refLog)
	}
	if got := clk.NowMs(); got != 10+8*5+10 {
		t.Fatalf("blocked %d ms", got)
	}
	if m.Last() != st {
		t.Fatal("Last should return the latest reading")
	}
}

func TestPercentClamped(t *testing.T) {
	m := New(&fakeADC{raw: []uint16{0}}, timex.NewManual(0), cfg())
	if m.Percent(3.0) != 0 || m.Percent(5.0) != 100 {
		t.Fatal("percent not clamped")
	}
	if st := m.Read(); st.Voltage != 0 || st.Percent != 0 {
		t.Fatalf("zero ADC = %+v", st)
	}
}

func TestNextModeHysteresis(t *testing.T) {
	m := New(&fakeADC{raw: []uint16{0}}, timex.NewManual(0), cfg())

	mode := types.ModeStandby
	var got []types.Mode
	for _, v := range []float32{3.8, 3.5, 3.5, 4.1} {
		mode = m.NextMode(v, mode)
		got = append(got, mode)
	}
	want := []types.Mode{types.ModeStandby, types.ModeLowBattery, types.ModeLowBattery, types.ModeStandby}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: got %v, want %v (%v)", i, got[i], want[i], got)
		}
	}
}

func TestNextModeEdges(t *testing.T) {
	m := New(&fakeADC{raw: []uint16{0}}, timex.NewManual(0), cfg())

	if m.NextMode(3.6, types.ModeLowBattery) != types.ModeLowBattery {
		t.Fatal("cutoff value must not recover")
	}
	if m.NextMode(3.6, types.ModeAlert) != types.ModeAlert {
		t.Fatal("cutoff value must not trip")
	}
	if m.NextMode(3.99, types.ModeLowBattery) != types.ModeLowBattery {
		t.Fatal("inside the band must hold LowBattery")
	}
	if m.NextMode(4.0, types.ModeLowBattery) != types.ModeStandby {
		t.Fatal("recovery threshold itself recovers")
	}
	for _, from := range []types.Mode{types.ModeStandby, types.ModeWarning, types.ModeAlert} {
		if m.NextMode(3.59, from) != types.ModeLowBattery {
			t.Fatalf("below cutoff from %v must trip", from)
		}
	}
	if m.NextMode(4.2, types.ModeWarning) != types.ModeWarning {
		t.Fatal("healthy battery must not touch sensing modes")
	}
}
