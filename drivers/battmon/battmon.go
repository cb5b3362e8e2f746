// Package battmon samples the battery through a resistor divider on an ADC
// pin and classifies it against a cutoff/recovery hysteresis band.
package battmon

import (
	"time"

	"sentrycode-go/types"
	"sentrycode-go/x/mathx"
	"sentrycode-go/x/timex"
)

// ADC returns a left-justified 16-bit sample.
type ADC interface {
	Get() uint16
}

// ReferenceSelector is implemented by ADCs with a switchable low internal
// reference. Boards without one measure against the fixed reference.
type ReferenceSelector interface {
	UseInternalReference(low bool)
}

type Config struct {
	RefVolts  float32 // full-scale voltage of the selected reference
	Divider   float32 // battery volts per pin volt
	CutoffV   float32 // below: LowBattery
	RecoverV  float32 // at or above, while LowBattery: Standby
	FullV     float32 // 100 %
	Samples   int
	SampleGap time.Duration
	Settle    time.Duration
}

type Monitor struct {
	adc   ADC
	clock timex.Clock
	cfg   Config
	buf   []uint16
	last  types.BatteryStatus
}

func New(adc ADC, clock timex.Clock, cfg Config) *Monitor {
	if cfg.Samples <= 0 {
		cfg.Samples = 8
	}
	return &Monitor{adc: adc, clock: clock, cfg: cfg, buf: make([]uint16, cfg.Samples)}
}

// Read takes an averaged sample and converts it. Blocks for roughly
// 2*Settle + Samples*SampleGap.
func (m *Monitor) Read() types.BatteryStatus {
	sel, hasRef := m.adc.(ReferenceSelector)
	if hasRef {
		sel.UseInternalReference(true)
	}
	m.clock.Delay(m.cfg.Settle)
	for i := range m.buf {
		m.buf[i] = m.adc.Get()
		m.clock.Delay(m.cfg.SampleGap)
	}
	if hasRef {
		sel.UseInternalReference(false)
		m.clock.Delay(m.cfg.Settle)
	}

	v := m.Voltage(float32(mathx.Mean(m.buf)))
	m.last = types.BatteryStatus{Voltage: v, Percent: m.Percent(v)}
	return m.last
}

// Last is the most recent Read result.
func (m *Monitor) Last() types.BatteryStatus { return m.last }

// Voltage converts an averaged raw sample to battery volts.
func (m *Monitor) Voltage(raw float32) float32 {
	return raw / 65535 * m.cfg.RefVolts * m.cfg.Divider
}

// Percent maps CutoffV..FullV onto 0..100, clamped.
func (m *Monitor) Percent(v float32) float32 {
	return mathx.MapClamped(v, m.cfg.CutoffV, m.cfg.FullV, 0, 100)
}

// NextMode applies the battery side effect to the current mode. A voltage
// exactly at the cutoff neither trips nor recovers.
func (m *Monitor) NextMode(v float32, mode types.Mode) types.Mode {
	switch {
	case v < m.cfg.CutoffV:
		return types.ModeLowBattery
	case mode == types.ModeLowBattery && v >= m.cfg.RecoverV:
		return types.ModeStandby
	default:
		return mode
	}
}
