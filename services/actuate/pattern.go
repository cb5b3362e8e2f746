// Package actuate renders the operating mode on the RGB indicator and the
// buzzer. The pattern functions are pure; Indicator and Buzzer apply them
// to outputs and hold the toggle timers.
package actuate

import "sentrycode-go/types"

// RGB is a PWM duty per channel, 0..255.
type RGB struct{ R, G, B uint8 }

var Off = RGB{}

// IndicatorPattern returns the blink half-period and lit colour for m.
func IndicatorPattern(m types.Mode) (periodMs uint32, lit RGB) {
	switch m {
	case types.ModeWarning:
		return 1000, RGB{R: 100, G: 50}
	case types.ModeAlert:
		return 500, RGB{R: 255}
	case types.ModeLowBattery:
		return 5000, RGB{B: 50}
	default:
		return 3000, RGB{G: 50}
	}
}

// BlinkStep toggles lit once more than the mode's period has elapsed
// since the previous toggle.
func BlinkStep(m types.Mode, elapsedMs uint32, lit bool) (next, toggled bool) {
	period, _ := IndicatorPattern(m)
	if elapsedMs > period {
		return !lit, true
	}
	return lit, false
}

// Colour is what the indicator shows for m in the given blink phase.
func Colour(m types.Mode, lit bool) RGB {
	if !lit {
		return Off
	}
	_, c := IndicatorPattern(m)
	return c
}

// ToneAction is one buzzer decision. When Toggled the caller restarts its
// timer. Write drives the pin to Level; PulseMs > 0 asks for a blocking
// beep of that length.
type ToneAction struct {
	Phase   bool
	Toggled bool
	Write   bool
	Level   bool
	PulseMs uint32
}

// ToneStep decides the buzzer output for m given the time since the last
// toggle and the current phase.
func ToneStep(m types.Mode, elapsedMs uint32, phase bool) ToneAction {
	a := ToneAction{Phase: phase}
	switch m {
	case types.ModeWarning:
		if elapsedMs > 1000 {
			a.Toggled, a.Phase = true, !phase
			if a.Phase {
				a.PulseMs = 100
			}
		}
	case types.ModeAlert:
		if elapsedMs > 500 {
			a.Toggled, a.Phase = true, !phase
			a.Write, a.Level = true, a.Phase
		}
	case types.ModeLowBattery:
		if elapsedMs > 5000 {
			a.Toggled = true
			a.PulseMs = 50
		}
	default:
		a.Write, a.Level = true, false
	}
	return a
}
