// Package hcsr04 drives an HC-SR04 style ultrasonic ranger.
//
// A measurement is a short trigger pulse followed by a bounded wait for the
// echo pulse. Readings are averaged over a small burst to suppress noise.
// All waits are synchronous: pulse timing needs microsecond precision and
// the caller tolerates up to Samples x EchoTimeout of blocking.
package hcsr04

import (
	"time"

	"sentrycode-go/errcode"
	"sentrycode-go/x/timex"
)

// Output is the trigger line.
type Output interface {
	High()
	Low()
}

// Echo measures the length of the next pulse at the given level, or 0 if
// none completes within timeout.
type Echo interface {
	PulseIn(high bool, timeout time.Duration) time.Duration
}

type Config struct {
	Samples     int           // burst length, default 3
	EchoTimeout time.Duration // per pulse, default 30 ms
	SampleGap   time.Duration // pause after each burst pulse, default 10 ms
	CmPerUs     float32       // round-trip speed of sound, default 0.034
	Probe       bool          // fire one pulse first and give up on silence
}

type Device struct {
	trig  Output
	echo  Echo
	clock timex.Clock
	cfg   Config
}

func New(trig Output, echo Echo, clock timex.Clock, cfg Config) *Device {
	if cfg.Samples <= 0 {
		cfg.Samples = 3
	}
	if cfg.EchoTimeout <= 0 {
		cfg.EchoTimeout = 30 * time.Millisecond
	}
	if cfg.SampleGap < 0 {
		cfg.SampleGap = 0
	}
	if cfg.CmPerUs <= 0 {
		cfg.CmPerUs = 0.034
	}
	trig.Low()
	return &Device{trig: trig, echo: echo, clock: clock, cfg: cfg}
}

// Configure drives the trigger low so the first pulse has a clean edge.
func (d *Device) Configure() { d.trig.Low() }

// ping fires one trigger pulse (2 us low, 10 us high) and returns the echo
// width, 0 meaning no echo.
func (d *Device) ping() time.Duration {
	d.trig.Low()
	d.clock.Delay(2 * time.Microsecond)
	d.trig.High()
	d.clock.Delay(10 * time.Microsecond)
	d.trig.Low()
	return d.echo.PulseIn(true, d.cfg.EchoTimeout)
}

// Centimetres converts an echo width to a one-way distance.
func (d *Device) Centimetres(echo time.Duration) float32 {
	us := float32(echo) / float32(time.Microsecond)
	return us * d.cfg.CmPerUs / 2
}

// Measure returns the mean distance in cm of the valid echoes in one burst,
// or errcode.NoEcho when none came back.
func (d *Device) Measure() (float32, error) {
	if d.cfg.Probe && d.ping() == 0 {
		return 0, errcode.NoEcho
	}
	var total float32
	valid := 0
	for i := 0; i < d.cfg.Samples; i++ {
		if w := d.ping(); w > 0 {
			total += d.Centimetres(w)
			valid++
		}
		d.clock.Delay(d.cfg.SampleGap)
	}
	if valid == 0 {
		return 0, errcode.NoEcho
	}
	return total / float32(valid), nil
}
