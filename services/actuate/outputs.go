package actuate

import (
	"time"

	"sentrycode-go/types"
	"sentrycode-go/x/timex"
)

// Channel is one PWM colour channel. Polarity is the platform's concern.
type Channel interface {
	Set(duty uint8)
}

// Pin is a digital output.
type Pin interface {
	High()
	Low()
}

type Indicator struct {
	r, g, b Channel
	lit     bool
	last    uint32
	shown   RGB
	mode    types.Mode
	seen    bool
}

func NewIndicator(r, g, b Channel) *Indicator {
	i := &Indicator{r: r, g: g, b: b}
	i.Off()
	return i
}

// Update advances the blink for mode m. Outputs change only on a toggle,
// except on a mode change, which restarts the blink lit in the new colour.
func (i *Indicator) Update(m types.Mode, nowMs uint32) {
	if i.seen && m != i.mode {
		i.mode, i.last, i.lit = m, nowMs, true
		i.Show(Colour(m, true))
		return
	}
	i.mode, i.seen = m, true
	next, toggled := BlinkStep(m, timex.Since(nowMs, i.last), i.lit)
	if !toggled {
		return
	}
	i.last, i.lit = nowMs, next
	i.Show(Colour(m, next))
}

// Show drives a colour directly (boot signal, bring-up).
func (i *Indicator) Show(c RGB) {
	i.r.Set(c.R)
	i.g.Set(c.G)
	i.b.Set(c.B)
	i.shown = c
}

// Off forces every channel dark and restarts the blink phase.
func (i *Indicator) Off() {
	i.Show(Off)
	i.lit = false
}

func (i *Indicator) Shown() RGB { return i.shown }

type Buzzer struct {
	pin   Pin
	clock timex.Clock
	phase bool
	last  uint32
	on    bool
	mode  types.Mode
	seen  bool
}

func NewBuzzer(pin Pin, clock timex.Clock) *Buzzer {
	b := &Buzzer{pin: pin, clock: clock}
	b.Off()
	return b
}

// Update applies ToneStep for mode m. Tone pulses block for their length.
// A mode change silences the pin and restarts the tone timer.
func (b *Buzzer) Update(m types.Mode, nowMs uint32) {
	if b.seen && m != b.mode {
		b.mode, b.last = m, nowMs
		b.Off()
		return
	}
	b.mode, b.seen = m, true
	a := ToneStep(m, timex.Since(nowMs, b.last), b.phase)
	b.phase = a.Phase
	if a.Toggled {
		b.last = nowMs
	}
	if a.Write {
		b.set(a.Level)
	}
	if a.PulseMs > 0 {
		b.Beep(time.Duration(a.PulseMs) * time.Millisecond)
	}
}

// Beep sounds the buzzer for d, then silences it.
func (b *Buzzer) Beep(d time.Duration) {
	b.set(true)
	b.clock.Delay(d)
	b.set(false)
}

func (b *Buzzer) Off() {
	b.set(false)
	b.phase = false
}

func (b *Buzzer) On() bool { return b.on }

func (b *Buzzer) set(on bool) {
	if on {
		b.pin.High()
	} else {
		b.pin.Low()
	}
	b.on = on
}
