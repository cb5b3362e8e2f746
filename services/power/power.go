// Package power owns deep sleep and the hardware watchdog.
//
// Sleep silences every registered output, suspends non-essential
// peripherals and halts until the motion wake channel fires or the
// periodic wake elapses. The watchdog is a liveness net only: feeding it
// never changes detector state, and a hung loop resets the MCU.
package power

import (
	"time"

	"sentrycode-go/errcode"
	"sentrycode-go/types"
	"sentrycode-go/x/logx"
)

// Output is anything that must be dark and silent during sleep.
type Output interface {
	Off()
}

// Peripheral can be clock-gated while halted.
type Peripheral interface {
	Suspend()
	Resume()
}

// Halter blocks in the platform's low-power state until wake delivers or
// max elapses. It reports which one ended the halt.
type Halter interface {
	Halt(wake <-chan struct{}, max time.Duration) types.WakeSource
}

// Watchdog mirrors the TinyGo machine.Watchdog surface.
type Watchdog interface {
	Configure(timeout time.Duration) error
	Start() error
	Update()
}

type Config struct {
	WatchdogTimeout time.Duration // default 8 s
	// WakeAfter bounds a halt; it must undercut the watchdog timeout.
	// Default: timeout minus 1/16.
	WakeAfter time.Duration
}

type Supervisor struct {
	cfg     Config
	halter  Halter
	wd      Watchdog
	wake    <-chan struct{}
	outputs []Output
	periph  []Peripheral
	log     *logx.Logger

	armed  bool
	sleeps uint32
	wakes  [3]uint32 // by WakeSource
}

func New(h Halter, wd Watchdog, wake <-chan struct{}, cfg Config, log *logx.Logger) *Supervisor {
	if cfg.WatchdogTimeout <= 0 {
		cfg.WatchdogTimeout = 8 * time.Second
	}
	if cfg.WakeAfter <= 0 || cfg.WakeAfter >= cfg.WatchdogTimeout {
		cfg.WakeAfter = cfg.WatchdogTimeout - cfg.WatchdogTimeout/16
	}
	if log == nil {
		log = logx.Nop()
	}
	return &Supervisor{cfg: cfg, halter: h, wd: wd, wake: wake, log: log}
}

// Register adds outputs forced off before each sleep.
func (s *Supervisor) Register(outs ...Output) { s.outputs = append(s.outputs, outs...) }

// RegisterPeripheral adds peripherals gated during sleep.
func (s *Supervisor) RegisterPeripheral(ps ...Peripheral) { s.periph = append(s.periph, ps...) }

// ArmWatchdog configures and starts the watchdog. Idempotent.
func (s *Supervisor) ArmWatchdog() error {
	if s.armed || s.wd == nil {
		return nil
	}
	if err := s.wd.Configure(s.cfg.WatchdogTimeout); err != nil {
		return errcode.Wrap(errcode.Watchdog, "power", err)
	}
	if err := s.wd.Start(); err != nil {
		return errcode.Wrap(errcode.Watchdog, "power", err)
	}
	s.armed = true
	s.log.Info("watchdog armed", "timeout_ms", uint32(s.cfg.WatchdogTimeout/time.Millisecond))
	return nil
}

// Service feeds the watchdog; call once per loop iteration.
func (s *Supervisor) Service() {
	if s.armed {
		s.wd.Update()
	}
}

// AllOff forces every registered output off.
func (s *Supervisor) AllOff() {
	for _, o := range s.outputs {
		o.Off()
	}
}

// Sleep enters deep sleep and returns what woke the MCU.
func (s *Supervisor) Sleep() types.WakeSource {
	s.AllOff()
	for _, p := range s.periph {
		p.Suspend()
	}
	s.sleeps++
	s.log.Debug("sleep", "max_ms", uint32(s.cfg.WakeAfter/time.Millisecond))
	s.Service()

	src := s.halter.Halt(s.wake, s.cfg.WakeAfter)

	for i := len(s.periph) - 1; i >= 0; i-- {
		s.periph[i].Resume()
	}
	s.Service()
	if int(src) < len(s.wakes) {
		s.wakes[src]++
	}
	s.log.Debug("wake", "source", src)
	return src
}

func (s *Supervisor) Sleeps() uint32 { return s.sleeps }

// Wakes counts wakes by source.
func (s *Supervisor) Wakes(src types.WakeSource) uint32 {
	if int(src) >= len(s.wakes) {
		return 0
	}
	return s.wakes[src]
}
