//go:build !(rp2040 || rp2350)

package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sentrycode-go/bus"
	"sentrycode-go/platform"
	"sentrycode-go/services/detector"
	"sentrycode-go/services/link"
	"sentrycode-go/types"
	"sentrycode-go/x/logx"
)

// Result is what a run observed.
type Result struct {
	Name      string
	Changes   []types.ModeChange
	Telemetry []types.TelemetryRecord
	Final     types.Mode
	Stats     types.Stats
	Resets    uint32 // watchdog starvations
	EndMs     uint32
}

// Modes lists the destination of every change in order.
func (r *Result) Modes() []string {
	out := make([]string, len(r.Changes))
	for i, ch := range r.Changes {
		out[i] = ch.To.String()
	}
	return out
}

// Check compares r with e and reports every mismatch.
func (r *Result) Check(e Expect) error {
	var errs []error
	if len(e.Modes) > 0 {
		got := r.Modes()
		if strings.Join(got, ",") != strings.Join(e.Modes, ",") {
			errs = append(errs, fmt.Errorf("modes %v, want %v", got, e.Modes))
		}
	}
	if e.Final != "" && r.Final.String() != e.Final {
		errs = append(errs, fmt.Errorf("final %s, want %s", r.Final, e.Final))
	}
	if len(r.Telemetry) < e.MinTelemetry {
		errs = append(errs, fmt.Errorf("telemetry %d, want >= %d", len(r.Telemetry), e.MinTelemetry))
	}
	if r.Stats.Sleeps < e.MinSleeps {
		errs = append(errs, fmt.Errorf("sleeps %d, want >= %d", r.Stats.Sleeps, e.MinSleeps))
	}
	if r.Resets > 0 {
		errs = append(errs, fmt.Errorf("watchdog starved %d times", r.Resets))
	}
	return errors.Join(errs...)
}

// runner is the controller's clock. Every delay advances simulated time,
// applies the steps that have come due and drains mode changes.
type runner struct {
	s      *platform.Sim
	steps  []Step
	next   int
	base   uint32
	end    uint32
	booted bool
	cancel context.CancelFunc
	modes  *bus.Subscription
	res    *Result
}

func (r *runner) NowMs() uint32 { return r.s.Clock.NowMs() }

func (r *runner) Delay(d time.Duration) {
	r.s.Clock.Advance(d)
	r.catchUp()
}

// catchUp applies due steps and reports whether one raised motion.
func (r *runner) catchUp() bool {
	r.drain()
	if !r.booted {
		return false
	}
	now := r.NowMs()
	motion := false
	for r.next < len(r.steps) && r.base+r.steps[r.next].AtMs <= now {
		if r.apply(r.steps[r.next]) {
			motion = true
		}
		r.next++
	}
	if now >= r.end {
		r.cancel()
	}
	return motion
}

// idle spends a deep sleep, stopping early at a motion step.
func (r *runner) idle(maxMs uint32) {
	target := r.NowMs() + maxMs
	for r.next < len(r.steps) {
		at := r.base + r.steps[r.next].AtMs
		if at > target {
			break
		}
		r.s.Clock.Set(at)
		if r.catchUp() {
			return
		}
	}
	r.s.Clock.Set(target)
	r.catchUp()
}

func (r *runner) apply(st Step) bool {
	w := r.s.World
	if st.Distance != nil {
		w.SetDistance(*st.Distance)
	}
	if st.Volts != nil {
		w.SetVolts(*st.Volts)
	}
	if st.TempC != nil {
		w.SetAmbient(*st.TempC, 40)
	}
	if st.Command != "" {
		r.s.Serial.Inject([]byte(st.Command + "\n"))
	}
	if st.Motion {
		r.s.Motion.Pulse()
	}
	return st.Motion
}

func (r *runner) drain() {
	for {
		select {
		case m := <-r.modes.Channel():
			if ch, ok := m.Payload.(types.ModeChange); ok && ch.From != ch.To {
				r.res.Changes = append(r.res.Changes, ch)
			}
		default:
			return
		}
	}
}

// Run executes sc to completion or until ctx is done.
func Run(ctx context.Context, sc *Scenario, log *logx.Logger) (*Result, error) {
	cfg, err := sc.Resolve()
	if err != nil {
		return nil, err
	}
	start := sc.StartMs
	if start == 0 {
		start = 1000
	}
	s := platform.OpenSim(cfg, start)
	s.World.SetDistance(sc.Distance)
	if sc.Volts != nil {
		s.World.SetVolts(*sc.Volts)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := bus.NewBus(64)
	conn := b.NewConnection("sim")
	defer conn.Disconnect()

	res := &Result{Name: sc.Name}
	r := &runner{s: s, steps: sc.Steps, cancel: cancel, modes: conn.Subscribe(detector.TopicMode), res: res}
	s.Board.Clock = r
	s.Idle = r.idle

	ctrl, err := platform.Assemble(s.Board, cfg, log, conn)
	if err != nil {
		return nil, err
	}
	ctrl.Boot()
	r.base = r.NowMs()
	r.end = r.base + sc.DurationMs
	r.booted = true
	r.catchUp()

	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	r.drain()

	for _, line := range bytes.Split(s.Serial.Drain(), []byte("\n")) {
		if rec, err := link.DecodeTelemetry(line); err == nil {
			res.Telemetry = append(res.Telemetry, rec)
		}
	}
	st := ctrl.State()
	res.Final, res.Stats = st.Mode, st.Stats
	res.Resets = s.Watchdog.Resets()
	res.EndMs = r.NowMs()
	return res, nil
}
