package detector

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"sentrycode-go/bus"
	"sentrycode-go/drivers/battmon"
	"sentrycode-go/services/actuate"
	"sentrycode-go/services/config"
	"sentrycode-go/services/link"
	"sentrycode-go/services/power"
	"sentrycode-go/types"
	"sentrycode-go/x/logx"
	"sentrycode-go/x/timex"
)

type fakePort struct {
	rx []byte
	tx []byte
}

func (p *fakePort) Buffered() int { return len(p.rx) }
func (p *fakePort) Read(b []byte) (int, error) {
	n := copy(b, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}
func (p *fakePort) Write(b []byte) (int, error) { p.tx = append(p.tx, b...); return len(b), nil }

func (p *fakePort) lines() []string {
	var out []string
	for _, l := range strings.Split(string(p.tx), "\r\n") {
		if strings.HasPrefix(l, "{") {
			out = append(out, l)
		}
	}
	return out
}

type duty struct{ v uint8 }

func (d *duty) Set(v uint8) { d.v = v }

type level struct{ high bool }

func (l *level) High() { l.high = true }
func (l *level) Low()  { l.high = false }

// adc reports a settable battery voltage through a 3:1 divider, 3.3 V ref.
type adc struct{ volts float32 }

func (a *adc) Get() uint16 { return uint16(a.volts / 3 / 3.3 * 65535) }

type haltFunc func(wake <-chan struct{}, max time.Duration) types.WakeSource

func (f haltFunc) Halt(wake <-chan struct{}, max time.Duration) types.WakeSource { return f(wake, max) }

type nopWD struct{ updates int }

func (w *nopWD) Configure(time.Duration) error { return nil }
func (w *nopWD) Start() error                  { return nil }
func (w *nopWD) Update()                       { w.updates++ }

type rig struct {
	c       *Controller
	clock   *timex.Manual
	port    *fakePort
	ranger  *scriptRanger
	adc     *adc
	r, g, b *duty
	buzz    *level
	wd      *nopWD
	conn    *bus.Connection
	halt    haltFunc
}

func newRig(t *testing.T, mut func(*config.Config), log *logx.Logger) *rig {
	t.Helper()
	cfg := config.Default()
	cfg.Battery.RefVolts = 3.3
	if mut != nil {
		mut(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	rg := &rig{
		clock:  timex.NewManual(1000),
		port:   &fakePort{},
		ranger: &scriptRanger{},
		adc:    &adc{volts: 4.2},
		r:      &duty{}, g: &duty{}, b: &duty{},
		buzz:   &level{},
		wd:     &nopWD{},
	}
	rg.halt = func(<-chan struct{}, time.Duration) types.WakeSource { return types.WakeWatchdog }
	motion := NewMotionFlag()
	b := cfg.Battery
	batt := battmon.New(rg.adc, rg.clock, battmon.Config{
		RefVolts: b.RefVolts, Divider: b.Divider, CutoffV: b.CutoffV, RecoverV: b.RecoverV, FullV: b.FullV,
		Samples: b.Samples, SampleGap: time.Duration(b.SampleGapMs) * time.Millisecond, Settle: time.Duration(b.SettleMs) * time.Millisecond,
	})
	rg.conn = bus.NewBus(64).NewConnection("test")
	sup := power.New(haltFunc(func(w <-chan struct{}, d time.Duration) types.WakeSource { return rg.halt(w, d) }),
		rg.wd, motion.Wake(), power.Config{WatchdogTimeout: 8 * time.Second}, log)
	rg.c = NewController(Deps{
		Config:    cfg,
		Clock:     rg.clock,
		Ranger:    rg.ranger,
		Battery:   batt,
		Indicator: actuate.NewIndicator(rg.r, rg.g, rg.b),
		Buzzer:    actuate.NewBuzzer(rg.buzz, rg.clock),
		Link:      link.New(rg.port),
		Power:     sup,
		Motion:    motion,
		Bus:       rg.conn,
		Log:       log,
	})
	return rg
}

// run ticks every 20 ms for d.
func (rg *rig) run(d time.Duration) {
	end := rg.clock.NowMs() + uint32(d/time.Millisecond)
	for rg.clock.NowMs() < end {
		rg.c.Tick()
		rg.clock.Advance(20 * time.Millisecond)
	}
}

func TestBootAnnouncesAndPublishesMode(t *testing.T) {
	rg := newRig(t, nil, nil)
	rg.c.Boot()

	if !strings.HasPrefix(string(rg.port.tx), "AT+NAMESetsubunDetector") {
		t.Fatalf("tx = %q", rg.port.tx)
	}
	if p := rg.c.State().Battery.Percent; p < 66.6 || p > 66.7 {
		t.Fatalf("battery = %+v", rg.c.State().Battery)
	}
	if rg.g.v != 0 {
		t.Fatal("startup blink must end dark")
	}
	sub := rg.conn.Subscribe(TopicMode)
	select {
	case m := <-sub.Channel():
		ch := m.Payload.(types.ModeChange)
		if ch.To != types.ModeStandby || ch.Reason != "boot" {
			t.Fatalf("boot mode = %+v", ch)
		}
	default:
		t.Fatal("no retained mode after boot")
	}
}

func TestEndToEndDetectionOverTheLink(t *testing.T) {
	rg := newRig(t, nil, nil)
	rg.ranger.cm = []float32{250, 250, 150}
	rg.c.Boot()

	modes := rg.conn.Subscribe(TopicMode)
	<-modes.Channel() // retained boot

	for i := 0; i < 3; i++ {
		rg.run(500 * time.Millisecond)
		rg.c.State().Motion.Set()
		rg.c.Tick()
	}
	if got := rg.c.State().Mode; got != types.ModeAlert {
		t.Fatalf("mode = %v", got)
	}
	var seq []types.Mode
	for len(modes.Channel()) > 0 {
		seq = append(seq, (<-modes.Channel()).Payload.(types.ModeChange).To)
	}
	if len(seq) != 2 || seq[0] != types.ModeWarning || seq[1] != types.ModeAlert {
		t.Fatalf("published modes = %v", seq)
	}
	lines := rg.port.lines()
	if len(lines) == 0 || !strings.Contains(lines[len(lines)-1], `"state":1`) && !strings.Contains(lines[len(lines)-1], `"state":2`) {
		t.Fatalf("telemetry = %v", lines)
	}
	if !strings.Contains(lines[len(lines)-1], `"motion":true`) {
		t.Fatalf("alerting telemetry must report motion: %s", lines[len(lines)-1])
	}
}

func TestBatterySequence(t *testing.T) {
	rg := newRig(t, nil, nil)
	rg.adc.volts = 3.8
	rg.c.Boot()

	var got []types.Mode
	got = append(got, rg.c.State().Mode)
	for _, v := range []float32{3.5, 3.5, 4.1} {
		rg.adc.volts = v
		rg.clock.Advance(4 * time.Hour)
		rg.c.Tick()
		got = append(got, rg.c.State().Mode)
	}
	want := []types.Mode{types.ModeStandby, types.ModeLowBattery, types.ModeLowBattery, types.ModeStandby}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("modes = %v, want %v", got, want)
		}
	}
}

func TestBatteryCheckCadence(t *testing.T) {
	rg := newRig(t, nil, nil)
	rg.c.Boot()
	rg.adc.volts = 3.0
	rg.clock.Advance(4*time.Hour - time.Millisecond)
	rg.c.Tick()
	if rg.c.State().Mode == types.ModeLowBattery {
		t.Fatal("battery checked before its interval")
	}
	rg.clock.Advance(time.Millisecond)
	rg.c.Tick()
	if rg.c.State().Mode != types.ModeLowBattery {
		t.Fatal("battery not checked at its interval")
	}
}

func TestStopSilencesAndSuspendsSensing(t *testing.T) {
	rg := newRig(t, nil, nil)
	rg.ranger.cm = []float32{250, 250}
	rg.c.Boot()

	rg.run(3100 * time.Millisecond) // first standby blink
	if rg.g.v != 50 {
		t.Fatalf("standby indicator not lit: %d", rg.g.v)
	}

	rg.port.rx = []byte("STOP\r\n")
	rg.c.State().Motion.Set()
	rg.c.Tick()
	if rg.c.State().Active || rg.r.v != 0 || rg.g.v != 0 || rg.b.v != 0 || rg.buzz.high {
		t.Fatalf("STOP left outputs on: active=%v rgb=%d,%d,%d", rg.c.State().Active, rg.r.v, rg.g.v, rg.b.v)
	}
	rg.run(5 * time.Second)
	if rg.ranger.calls != 0 || rg.g.v != 0 {
		t.Fatalf("sensing while inactive: calls=%d", rg.ranger.calls)
	}
	if len(rg.port.lines()) == 0 {
		t.Fatal("telemetry must continue while inactive")
	}
	if last := rg.port.lines()[len(rg.port.lines())-1]; !strings.Contains(last, `"active":false`) {
		t.Fatalf("telemetry = %s", last)
	}

	rg.port.rx = []byte("START\n")
	rg.c.Tick()
	if !rg.c.State().Active || rg.ranger.calls != 1 {
		t.Fatalf("START: active=%v calls=%d", rg.c.State().Active, rg.ranger.calls)
	}
}

func TestStatusAndUnknownCommands(t *testing.T) {
	rg := newRig(t, nil, nil)
	rg.c.Boot()
	before := len(rg.port.lines())

	rg.port.rx = []byte("status\nSTATUS\n")
	rg.c.Tick()
	if got := len(rg.port.lines()); got != before+1 {
		t.Fatalf("STATUS lines = %d, want %d", got, before+1)
	}
	if !rg.c.State().Active {
		t.Fatal("unknown command changed activity")
	}
}

func TestTelemetryCadence(t *testing.T) {
	rg := newRig(t, nil, nil)
	rg.c.Boot()
	rg.run(2010 * time.Millisecond)
	lines := rg.port.lines()
	if len(lines) != 2 {
		t.Fatalf("telemetry lines = %d (%v)", len(lines), lines)
	}
	l := lines[0]
	if !strings.HasPrefix(l, `{"distance":-0.01,"motion":false,"battery":66.6`) || !strings.HasSuffix(l, `,"state":0,"active":true}`) {
		t.Fatalf("line = %s", l)
	}
}

func TestRunSleepsWhenIdle(t *testing.T) {
	rg := newRig(t, nil, nil)
	rg.c.Boot()
	events := rg.conn.Subscribe(TopicEvent.Append("+"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	halts := 0
	rg.halt = func(wake <-chan struct{}, max time.Duration) types.WakeSource {
		halts++
		if rg.r.v != 0 || rg.g.v != 0 || rg.b.v != 0 || rg.buzz.high {
			t.Error("outputs on during sleep")
		}
		cancel()
		return types.WakeWatchdog
	}

	if err := rg.c.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v", err)
	}
	st := rg.c.State()
	if halts != 1 || st.Stats.Sleeps != 1 || st.Stats.Wakes != 1 {
		t.Fatalf("halts=%d stats=%+v", halts, st.Stats)
	}
	if elapsed := rg.clock.NowMs() - st.LastMeasureMs; elapsed < 30000 {
		t.Fatalf("slept after %d ms idle", elapsed)
	}
	if rg.wd.updates == 0 {
		t.Fatal("watchdog never fed")
	}
	var tags []string
	for len(events.Channel()) > 0 {
		m := <-events.Channel()
		tags = append(tags, m.Topic.At(2).(string))
	}
	if len(tags) < 2 || tags[len(tags)-2] != "sleep" || tags[len(tags)-1] != "wake" {
		t.Fatalf("events = %v", tags)
	}
}

func TestDebugLogDisablesDeepSleep(t *testing.T) {
	rg := newRig(t, nil, logx.New(logx.PrintSink{W: io.Discard}, logx.LevelDebug))
	rg.c.Boot()
	rg.clock.Advance(40 * time.Second)
	if rg.c.Tick() {
		t.Fatal("debug build must not deep sleep")
	}
	rg.c.log.SetLevel(logx.LevelInfo)
	if !rg.c.Tick() {
		t.Fatal("sleep should resume once the level drops")
	}
}
