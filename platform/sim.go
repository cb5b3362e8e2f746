//go:build !(rp2040 || rp2350)

package platform

import (
	"bytes"
	"sync"
	"time"

	"sentrycode-go/errcode"
	"sentrycode-go/services/config"
	"sentrycode-go/services/power"
	"sentrycode-go/types"
	"sentrycode-go/x/timex"
)

// ----------------------------- world -----------------------------------------

// World is what the simulated sensors observe. Distance <= 0 means nothing
// returns an echo.
type World struct {
	mu       sync.Mutex
	distance float32
	volts    float32
	tempC    float32
	rh       float32
}

func (w *World) SetDistance(cm float32) { w.mu.Lock(); w.distance = cm; w.mu.Unlock() }
func (w *World) SetVolts(v float32)     { w.mu.Lock(); w.volts = v; w.mu.Unlock() }
func (w *World) SetAmbient(c, rh float32) {
	w.mu.Lock()
	w.tempC, w.rh = c, rh
	w.mu.Unlock()
}

func (w *World) Distance() float32 { w.mu.Lock(); defer w.mu.Unlock(); return w.distance }
func (w *World) Volts() float32    { w.mu.Lock(); defer w.mu.Unlock(); return w.volts }

// ----------------------------- GPIO ------------------------------------------

// FakePin records its level and fires the attached ISR on rising edges.
type FakePin struct {
	mu    sync.Mutex
	level bool
	rises uint32
	isr   func()
}

func (p *FakePin) High() { p.Set(true) }
func (p *FakePin) Low()  { p.Set(false) }

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	rising := !p.level && level
	p.level = level
	isr := p.isr
	if rising {
		p.rises++
	}
	p.mu.Unlock()
	if rising && isr != nil {
		isr()
	}
}

func (p *FakePin) Get() bool      { p.mu.Lock(); defer p.mu.Unlock(); return p.level }
func (p *FakePin) Rises() uint32  { p.mu.Lock(); defer p.mu.Unlock(); return p.rises }
func (p *FakePin) attach(f func()) { p.mu.Lock(); p.isr = f; p.mu.Unlock() }

// Pulse drives one short high pulse, as a PIR does on motion.
func (p *FakePin) Pulse() { p.Set(true); p.Set(false) }

// FakeDuty is a PWM channel that remembers its duty.
type FakeDuty struct {
	mu   sync.Mutex
	duty uint8
}

func (d *FakeDuty) Set(v uint8)  { d.mu.Lock(); d.duty = v; d.mu.Unlock() }
func (d *FakeDuty) Duty() uint8 { d.mu.Lock(); defer d.mu.Unlock(); return d.duty }

// ----------------------------- sensors ---------------------------------------

// simEcho answers trigger pulses with an echo width derived from the world
// distance, consuming simulated time for the pulse or the timeout.
type simEcho struct {
	w       *World
	clock   *timex.Manual
	cmPerUs float32
}

func (e *simEcho) PulseIn(_ bool, timeout time.Duration) time.Duration {
	cm := e.w.Distance()
	if cm <= 0 || e.cmPerUs <= 0 {
		e.clock.Advance(timeout)
		return 0
	}
	width := time.Duration(cm*2/e.cmPerUs+0.5) * time.Microsecond
	if width > timeout {
		e.clock.Advance(timeout)
		return 0
	}
	e.clock.Advance(width)
	return width
}

// simADC converts world volts back through the divider and reference.
type simADC struct {
	w       *World
	clk     *simReg
	ref     float32
	divider float32
}

// Get reads zero while the ADC clock is gated.
func (a *simADC) Get() uint16 {
	if a.clk.Get()&simADCEnable == 0 || a.ref <= 0 || a.divider <= 0 {
		return 0
	}
	v := a.w.Volts() / a.divider / a.ref * 65535
	switch {
	case v <= 0:
		return 0
	case v >= 65535:
		return 65535
	}
	return uint16(v)
}

// SimAHT20 emulates the ambient sensor's command set on a drivers.I2C.
type SimAHT20 struct {
	w       *World
	mu      sync.Mutex
	Absent  bool
	readsTx uint32
}

func (s *SimAHT20) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Absent || addr != 0x38 {
		return errcode.NoSensor
	}
	switch {
	case len(w) == 1 && w[0] == 0x71 && len(r) >= 1:
		r[0] = 0x18
	case len(w) == 0 && len(r) >= 7:
		s.readsTx++
		s.w.mu.Lock()
		c, rh := s.w.tempC, s.w.rh
		s.w.mu.Unlock()
		hraw := uint32(rh / 100 * (1 << 20))
		traw := uint32((c + 50) / 200 * (1 << 20))
		r[0] = 0x18
		r[1] = byte(hraw >> 12)
		r[2] = byte(hraw >> 4)
		r[3] = byte(hraw<<4) | byte(traw>>16)&0x0F
		r[4] = byte(traw >> 8)
		r[5] = byte(traw)
		r[6] = 0
	}
	return nil
}

func (s *SimAHT20) ReadRegister(uint8, uint8, []byte) error  { return errcode.Unsupported }
func (s *SimAHT20) WriteRegister(uint8, uint8, []byte) error { return errcode.Unsupported }

// ----------------------------- serial ----------------------------------------

// SimSerial is the far end of the radio link held in memory.
type SimSerial struct {
	mu sync.Mutex
	rx bytes.Buffer
	tx bytes.Buffer
}

// Inject queues bytes for the firmware to read.
func (s *SimSerial) Inject(b []byte) { s.mu.Lock(); s.rx.Write(b); s.mu.Unlock() }

func (s *SimSerial) Buffered() int { s.mu.Lock(); defer s.mu.Unlock(); return s.rx.Len() }

func (s *SimSerial) Read(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rx.Len() == 0 {
		return 0, nil
	}
	return s.rx.Read(b)
}

func (s *SimSerial) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx.Write(b)
}

// Drain returns and clears everything the firmware has written.
func (s *SimSerial) Drain() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]byte(nil), s.tx.Bytes()...)
	s.tx.Reset()
	return out
}

// ----------------------------- power -----------------------------------------

// SimWatchdog checks feeding against simulated time. A gap longer than the
// timeout counts as a reset the real part would have performed.
type SimWatchdog struct {
	mu      sync.Mutex
	clock   *timex.Manual
	timeout uint32
	started bool
	last    uint32
	updates uint32
	resets  uint32
}

func (d *SimWatchdog) Configure(t time.Duration) error {
	if t <= 0 {
		return errcode.InvalidParams
	}
	d.mu.Lock()
	d.timeout = uint32(t / time.Millisecond)
	d.mu.Unlock()
	return nil
}

func (d *SimWatchdog) Start() error {
	d.mu.Lock()
	d.started, d.last = true, d.clock.NowMs()
	d.mu.Unlock()
	return nil
}

func (d *SimWatchdog) Update() {
	d.mu.Lock()
	now := d.clock.NowMs()
	if d.started && timex.Since(now, d.last) > d.timeout {
		d.resets++
	}
	d.last = now
	d.updates++
	d.mu.Unlock()
}

func (d *SimWatchdog) Updates() uint32 { d.mu.Lock(); defer d.mu.Unlock(); return d.updates }
func (d *SimWatchdog) Resets() uint32  { d.mu.Lock(); defer d.mu.Unlock(); return d.resets }

// simHalter spends the sleep bound on the manual clock. Idle, when set,
// lets a scenario advance time itself and raise motion mid-sleep.
type simHalter struct{ s *Sim }

func (h simHalter) Halt(wake <-chan struct{}, max time.Duration) types.WakeSource {
	select {
	case <-wake:
		return types.WakeMotion
	default:
	}
	if h.s.Idle != nil {
		h.s.Idle(uint32(max / time.Millisecond))
	} else {
		h.s.Clock.Advance(max)
	}
	select {
	case <-wake:
		return types.WakeMotion
	default:
		return types.WakeWatchdog
	}
}

// simReg stands in for a clock control register.
type simReg struct {
	mu sync.Mutex
	v  uint32
}

func (r *simReg) Get() uint32 { r.mu.Lock(); defer r.mu.Unlock(); return r.v }

func (r *simReg) SetBits(b uint32)   { r.mu.Lock(); r.v |= b; r.mu.Unlock() }
func (r *simReg) ClearBits(b uint32) { r.mu.Lock(); r.v &^= b; r.mu.Unlock() }

// Same position as the RP2040 CLK_ADC_CTRL enable bit.
const simADCEnable = 1 << 11

// ----------------------------- board -----------------------------------------

// Sim is a simulated board plus handles to drive and inspect it.
type Sim struct {
	Board    *Board
	Clock    *timex.Manual
	World    *World
	Motion   *FakePin
	Trigger  *FakePin
	Buzzer   *FakePin
	Red      *FakeDuty
	Green    *FakeDuty
	Blue     *FakeDuty
	Serial   *SimSerial
	Ambient  *SimAHT20
	Watchdog *SimWatchdog

	// Idle, if set, is called during deep sleep with the bound in ms. It
	// must advance Clock by at most that much.
	Idle func(maxMs uint32)

	adcClk *simReg
	gate   *clockGate
}

// BoardName on the host selects no overlay.
const BoardName = "sim"

// OpenSim builds a simulated board from cfg starting at startMs. The ambient
// sensor is present only when cfg names I2C pins.
func OpenSim(cfg config.Config, startMs uint32) *Sim {
	clock := timex.NewManual(startMs)
	w := &World{volts: cfg.Battery.FullV, tempC: 20, rh: 40}
	s := &Sim{
		Clock:    clock,
		World:    w,
		Motion:   &FakePin{},
		Trigger:  &FakePin{},
		Buzzer:   &FakePin{},
		Red:      &FakeDuty{},
		Green:    &FakeDuty{},
		Blue:     &FakeDuty{},
		Serial:   &SimSerial{},
		Ambient:  &SimAHT20{w: w},
		Watchdog: &SimWatchdog{clock: clock},
		adcClk:   &simReg{v: simADCEnable},
	}
	s.gate = newClockGate("sim").add(s.adcClk, simADCEnable)
	b := &Board{
		Name:        BoardName,
		Clock:       clock,
		Trigger:     s.Trigger,
		Echo:        &simEcho{w: w, clock: clock, cmPerUs: cfg.Ranging.CmPerUs},
		Red:         s.Red,
		Green:       s.Green,
		Blue:        s.Blue,
		Buzzer:      s.Buzzer,
		BatteryADC:  &simADC{w: w, clk: s.adcClk, ref: cfg.Battery.RefVolts, divider: cfg.Battery.Divider},
		Serial:      s.Serial,
		Halter:      simHalter{s: s},
		Watchdog:    s.Watchdog,
		Peripherals: []power.Peripheral{s.gate},
		AttachMotion: func(isr func()) error {
			s.Motion.attach(isr)
			return nil
		},
	}
	if cfg.Pins.I2CSDA >= 0 && cfg.Pins.I2CSCL >= 0 {
		b.I2C = s.Ambient
	}
	s.Board = b
	return s
}

// Suspends reports how many times deep sleep gated peripherals.
func (s *Sim) Suspends() uint32 { return s.gate.count }

// ADCClocked reports whether the battery ADC clock is running.
func (s *Sim) ADCClocked() bool { return s.adcClk.Get()&simADCEnable != 0 }
