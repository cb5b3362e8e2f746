// Package config holds every tunable of the detector: thresholds,
// intervals, battery and ranging constants and the board pin plan.
// Boards override the defaults through embedded JSON; host tools also
// accept YAML files (see LoadFile).
package config

import (
	"encoding/json"

	"sentrycode-go/errcode"
)

const Version = "1.3"

type Thresholds struct {
	WarningCm      float32 `json:"warning_cm" yaml:"warning_cm"`
	AlertCm        float32 `json:"alert_cm" yaml:"alert_cm"`
	ValidMinCm     float32 `json:"valid_min_cm" yaml:"valid_min_cm"`
	ValidMaxCm     float32 `json:"valid_max_cm" yaml:"valid_max_cm"`
	DetectionCount int     `json:"detection_count" yaml:"detection_count"`
}

// Intervals are all in milliseconds.
type Intervals struct {
	MeasureMs      uint32 `json:"measure_ms" yaml:"measure_ms"`
	GraceMs        uint32 `json:"grace_ms" yaml:"grace_ms"`
	IdleSleepMs    uint32 `json:"idle_sleep_ms" yaml:"idle_sleep_ms"`
	WarningDwellMs uint32 `json:"warning_dwell_ms" yaml:"warning_dwell_ms"`
	AlertDwellMs   uint32 `json:"alert_dwell_ms" yaml:"alert_dwell_ms"`
	BatteryCheckMs uint32 `json:"battery_check_ms" yaml:"battery_check_ms"`
	TelemetryMs    uint32 `json:"telemetry_ms" yaml:"telemetry_ms"`
	LoopDelayMs    uint32 `json:"loop_delay_ms" yaml:"loop_delay_ms"`
	WatchdogMs     uint32 `json:"watchdog_ms" yaml:"watchdog_ms"`
	AmbientMs      uint32 `json:"ambient_ms" yaml:"ambient_ms"` // 0: no ambient reads
}

type Battery struct {
	RefVolts    float32 `json:"ref_volts" yaml:"ref_volts"`
	Divider     float32 `json:"divider" yaml:"divider"`
	CutoffV     float32 `json:"cutoff_v" yaml:"cutoff_v"`
	RecoverV    float32 `json:"recover_v" yaml:"recover_v"`
	FullV       float32 `json:"full_v" yaml:"full_v"`
	Samples     int     `json:"samples" yaml:"samples"`
	SampleGapMs uint32  `json:"sample_gap_ms" yaml:"sample_gap_ms"`
	SettleMs    uint32  `json:"settle_ms" yaml:"settle_ms"`
}

type Ranging struct {
	Samples       int     `json:"samples" yaml:"samples"`
	EchoTimeoutMs uint32  `json:"echo_timeout_ms" yaml:"echo_timeout_ms"`
	SampleGapMs   uint32  `json:"sample_gap_ms" yaml:"sample_gap_ms"`
	CmPerUs       float32 `json:"cm_per_us" yaml:"cm_per_us"` // round trip; halved per reading
	Probe         bool    `json:"probe" yaml:"probe"`         // single pulse first, skip the burst on silence
}

// Pins use the MCU's GPIO numbering; -1 means not fitted.
type Pins struct {
	Trigger  int    `json:"trigger" yaml:"trigger"`
	Echo     int    `json:"echo" yaml:"echo"`
	Motion   int    `json:"motion" yaml:"motion"`
	Red      int    `json:"red" yaml:"red"`
	Green    int    `json:"green" yaml:"green"`
	Blue     int    `json:"blue" yaml:"blue"`
	Buzzer   int    `json:"buzzer" yaml:"buzzer"`
	Battery  int    `json:"battery" yaml:"battery"`
	UARTTx   int    `json:"uart_tx" yaml:"uart_tx"`
	UARTRx   int    `json:"uart_rx" yaml:"uart_rx"`
	UARTBaud uint32 `json:"uart_baud" yaml:"uart_baud"`
	I2CSDA   int    `json:"i2c_sda" yaml:"i2c_sda"`
	I2CSCL   int    `json:"i2c_scl" yaml:"i2c_scl"`
}

type Config struct {
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
	Intervals  Intervals  `json:"intervals" yaml:"intervals"`
	Battery    Battery    `json:"battery" yaml:"battery"`
	Ranging    Ranging    `json:"ranging" yaml:"ranging"`
	Pins       Pins       `json:"pins" yaml:"pins"`

	DeepSleep bool   `json:"deep_sleep" yaml:"deep_sleep"`
	LinkName  string `json:"link_name" yaml:"link_name"`
	LogLevel  string `json:"log_level" yaml:"log_level"`
}

// Default returns the field-proven constants of firmware 1.3.
func Default() Config {
	return Config{
		Thresholds: Thresholds{
			WarningCm:      300,
			AlertCm:        200,
			ValidMinCm:     20,
			ValidMaxCm:     400,
			DetectionCount: 2,
		},
		Intervals: Intervals{
			MeasureMs:      500,
			GraceMs:        5000,
			IdleSleepMs:    30000,
			WarningDwellMs: 10000,
			AlertDwellMs:   30000,
			BatteryCheckMs: 4 * 60 * 60 * 1000,
			TelemetryMs:    1000,
			LoopDelayMs:    20,
			WatchdogMs:     8000,
			AmbientMs:      60000,
		},
		Battery: Battery{
			RefVolts:    1.1,
			Divider:     3,
			CutoffV:     3.6,
			RecoverV:    4.0,
			FullV:       4.5,
			Samples:     8,
			SampleGapMs: 5,
			SettleMs:    10,
		},
		Ranging: Ranging{
			Samples:       3,
			EchoTimeoutMs: 30,
			SampleGapMs:   10,
			CmPerUs:       0.034,
			Probe:         true,
		},
		Pins: Pins{
			Trigger: 3, Echo: 4, Motion: 2,
			Red: 9, Green: 10, Blue: 11,
			Buzzer: 5, Battery: 26,
			UARTTx: 0, UARTRx: 1, UARTBaud: 9600,
			I2CSDA: -1, I2CSCL: -1,
		},
		DeepSleep: true,
		LinkName:  "SetsubunDetector",
		LogLevel:  "info",
	}
}

func invalid(field, msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: field + " " + msg}
}

// Validate rejects combinations the state machine cannot run with.
func (c *Config) Validate() error {
	t := c.Thresholds
	switch {
	case t.ValidMinCm < 0 || t.ValidMaxCm <= t.ValidMinCm:
		return invalid("valid_max_cm", "<= valid_min_cm")
	case t.AlertCm >= t.WarningCm:
		return invalid("alert_cm", ">= warning_cm")
	case t.DetectionCount < 1:
		return invalid("detection_count", "< 1")
	}

	iv := c.Intervals
	for _, f := range []struct {
		name string
		v    uint32
	}{
		{"measure_ms", iv.MeasureMs},
		{"grace_ms", iv.GraceMs},
		{"idle_sleep_ms", iv.IdleSleepMs},
		{"warning_dwell_ms", iv.WarningDwellMs},
		{"alert_dwell_ms", iv.AlertDwellMs},
		{"battery_check_ms", iv.BatteryCheckMs},
		{"telemetry_ms", iv.TelemetryMs},
		{"watchdog_ms", iv.WatchdogMs},
	} {
		if f.v == 0 {
			return invalid(f.name, "is zero")
		}
	}
	if iv.LoopDelayMs >= iv.WatchdogMs {
		return invalid("loop_delay_ms", ">= watchdog_ms")
	}

	b := c.Battery
	switch {
	case b.RefVolts <= 0 || b.Divider <= 0:
		return invalid("ref_volts", "and divider must be positive")
	case b.RecoverV <= b.CutoffV:
		return invalid("recover_v", "<= cutoff_v")
	case b.FullV <= b.CutoffV:
		return invalid("full_v", "<= cutoff_v")
	case b.Samples < 1:
		return invalid("battery.samples", "< 1")
	}

	r := c.Ranging
	switch {
	case r.Samples < 1:
		return invalid("ranging.samples", "< 1")
	case r.EchoTimeoutMs == 0:
		return invalid("echo_timeout_ms", "is zero")
	case r.CmPerUs <= 0:
		return invalid("cm_per_us", "must be positive")
	}
	if c.LinkName == "" {
		return invalid("link_name", "is empty")
	}
	return nil
}

// Merge overlays raw JSON onto c; missing keys keep their current values.
func (c *Config) Merge(raw []byte) error {
	if err := json.Unmarshal(raw, c); err != nil {
		return errcode.Wrap(errcode.InvalidPayload, "config", err)
	}
	return nil
}

// Load returns the defaults overlaid with the board's embedded JSON, if
// any, and validated.
func Load(board string) (Config, error) {
	c := Default()
	if raw, ok := EmbeddedConfigLookup(board); ok && len(raw) > 0 {
		if err := c.Merge(raw); err != nil {
			return c, err
		}
	}
	return c, c.Validate()
}
