//go:build !(rp2040 || rp2350)

// Package sim replays YAML scenarios against the real detector controller
// on a simulated board and a manual clock.
package sim

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"sentrycode-go/errcode"
	"sentrycode-go/services/config"
)

// DefaultBoard is the overlay scenarios run on unless they name one.
const DefaultBoard = "pico"

// Scenario is one scripted run. Step times are relative to the end of boot.
type Scenario struct {
	Name       string    `yaml:"name"`
	Board      string    `yaml:"board"`  // embedded overlay, default "pico"
	Config     yaml.Node `yaml:"config"` // overrides onto the board config
	StartMs    uint32    `yaml:"start_ms"`
	DurationMs uint32    `yaml:"duration_ms"`
	Distance   float32   `yaml:"distance"` // initial, <= 0 is no echo
	Volts      *float32  `yaml:"volts"`    // initial, default full
	Steps      []Step    `yaml:"steps"`
	Expect     Expect    `yaml:"expect"`
}

// Step changes the world or talks to the link at AtMs.
type Step struct {
	AtMs     uint32   `yaml:"at_ms"`
	Motion   bool     `yaml:"motion"`
	Distance *float32 `yaml:"distance"`
	Volts    *float32 `yaml:"volts"`
	TempC    *float32 `yaml:"temp_c"`
	Command  string   `yaml:"command"`
}

// Expect is checked by Result.Check. Empty fields are not checked.
type Expect struct {
	Modes        []string `yaml:"modes"` // destination of each mode change, in order
	Final        string   `yaml:"final"`
	MinTelemetry int      `yaml:"min_telemetry"`
	MinSleeps    uint32   `yaml:"min_sleeps"`
}

// Parse reads a scenario document.
func Parse(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, &errcode.E{C: errcode.InvalidPayload, Op: "scenario", Msg: err.Error(), Err: err}
	}
	if sc.DurationMs == 0 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "scenario", Msg: "duration_ms is zero"}
	}
	sort.SliceStable(sc.Steps, func(i, j int) bool { return sc.Steps[i].AtMs < sc.Steps[j].AtMs })
	return &sc, nil
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(raw)
}

// Resolve builds the controller config: board overlay, then overrides.
func (sc *Scenario) Resolve() (config.Config, error) {
	board := sc.Board
	if board == "" {
		board = DefaultBoard
	}
	c, err := config.Load(board)
	if err != nil {
		return c, err
	}
	if sc.Config.Kind != 0 {
		if err := sc.Config.Decode(&c); err != nil {
			return c, &errcode.E{C: errcode.InvalidPayload, Op: "scenario", Msg: "config: " + err.Error(), Err: err}
		}
	}
	return c, c.Validate()
}
