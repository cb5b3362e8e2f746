package types

import (
	"sentrycode-go/errcode"
	"sentrycode-go/x/mathx"
)

// ------------------------
// Distance
// ------------------------

// NoDistance is the raw distance stored when no echo was received.
const NoDistance float32 = -1

// SensorSample is the latest distance measurement (one slot, overwritten).
type SensorSample struct {
	DistanceCm float32      `json:"distance_cm"`
	Valid      bool         `json:"valid"`
	Err        errcode.Code `json:"err,omitempty"` // "no_echo" | "out_of_range"
	TsMs       uint32       `json:"ts_ms"`
}

// NewSample classifies a raw ranging result. Distances are valid only inside
// the open interval (minCm, maxCm); the raw value is kept either way.
func NewSample(cm float32, err error, tsMs uint32, minCm, maxCm float32) SensorSample {
	if err != nil {
		return SensorSample{DistanceCm: NoDistance, Err: errcode.Of(err), TsMs: tsMs}
	}
	if !mathx.Inside(cm, minCm, maxCm) {
		return SensorSample{DistanceCm: cm, Err: errcode.OutOfRange, TsMs: tsMs}
	}
	return SensorSample{DistanceCm: cm, Valid: true, TsMs: tsMs}
}

// Below reports a valid sample strictly closer than thresholdCm.
func (s SensorSample) Below(thresholdCm float32) bool {
	return s.Valid && s.DistanceCm < thresholdCm
}

// ------------------------
// Battery
// ------------------------

type BatteryStatus struct {
	Voltage float32 `json:"voltage"`
	Percent float32 `json:"percent"` // 0..100
}

// ------------------------
// Ambient temperature (optional sensor)
// ------------------------

type AmbientValue struct {
	// Tenths of °C (e.g. 231 => 23.1°C).
	DeciC  int16  `json:"deci_c"`
	DeciRH uint16 `json:"deci_rh"`
}

// Celsius returns the temperature as a float for telemetry.
func (a AmbientValue) Celsius() float32 { return float32(a.DeciC) / 10 }
