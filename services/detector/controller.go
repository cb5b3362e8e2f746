package detector

import (
	"context"
	"time"

	"sentrycode-go/bus"
	"sentrycode-go/services/actuate"
	"sentrycode-go/services/config"
	"sentrycode-go/services/link"
	"sentrycode-go/services/power"
	"sentrycode-go/types"
	"sentrycode-go/x/logx"
	"sentrycode-go/x/timex"
)

// Bus topics.
var (
	TopicMode      = bus.T("detector", "mode")      // retained types.ModeChange
	TopicTelemetry = bus.T("detector", "telemetry") // types.TelemetryRecord
	TopicEvent     = bus.T("detector", "event")     // + tag
)

const maxCommandsPerTick = 4

// BatteryMonitor is satisfied by *battmon.Monitor.
type BatteryMonitor interface {
	Read() types.BatteryStatus
	NextMode(v float32, mode types.Mode) types.Mode
}

// AmbientSensor is optional; satisfied by *aht20.Device.
type AmbientSensor interface {
	Read() (types.AmbientValue, error)
}

// Deps are the collaborators of a Controller. Ambient and Bus may be nil.
type Deps struct {
	Config    config.Config
	Clock     timex.Clock
	Ranger    Ranger
	Battery   BatteryMonitor
	Ambient   AmbientSensor
	Indicator *actuate.Indicator
	Buzzer    *actuate.Buzzer
	Link      *link.Link
	Power     *power.Supervisor
	Motion    *MotionFlag
	Bus       *bus.Connection
	Log       *logx.Logger
}

type Controller struct {
	d       Deps
	cfg     config.Config
	st      *State
	fsm     *Machine
	log     *logx.Logger
	lastBat uint32
	lastTel uint32
	lastAmb uint32
	tempC   float32
	hasTemp bool
}

func NewController(d Deps) *Controller {
	if d.Log == nil {
		d.Log = logx.Nop()
	}
	if d.Motion == nil {
		d.Motion = NewMotionFlag()
	}
	return &Controller{
		d:   d,
		cfg: d.Config,
		st:  NewState(d.Motion, d.Clock.NowMs()),
		fsm: NewMachine(d.Config.Thresholds, d.Config.Intervals, d.Ranger),
		log: d.Log,
	}
}

// State exposes the aggregate for inspection; the loop owns it.
func (c *Controller) State() *State { return c.st }

// Boot brings the detector up: watchdog, module name, first battery
// check, startup signal and the initial retained mode.
func (c *Controller) Boot() {
	c.log.Info("boot", "version", config.Version, "name", c.cfg.LinkName)
	c.d.Power.Register(c.d.Indicator, c.d.Buzzer)

	if err := c.d.Power.ArmWatchdog(); err != nil {
		c.log.Error("watchdog", "err", err)
	}
	if err := c.d.Link.Announce(c.cfg.LinkName); err != nil {
		c.log.Warn("announce", "err", err)
	}

	now := c.d.Clock.NowMs()
	c.checkBattery(now)
	c.readAmbient(now)

	for i := 0; i < 3; i++ {
		c.d.Indicator.Show(actuate.RGB{G: 255})
		c.d.Clock.Delay(100 * time.Millisecond)
		c.d.Indicator.Off()
		c.d.Clock.Delay(100 * time.Millisecond)
	}

	now = c.d.Clock.NowMs()
	c.st.LastMeasureMs, c.st.ChangedMs = now, now
	c.lastBat, c.lastTel, c.lastAmb = now, now, now
	c.publish(TopicMode, types.ModeChange{From: c.st.Mode, To: c.st.Mode, AtMs: now, Reason: "boot"}, true)
}

// deepSleep: config permits it and the log is not at debug.
func (c *Controller) deepSleep() bool {
	return c.cfg.DeepSleep && !c.log.Enabled(logx.LevelDebug)
}

// Tick runs one loop iteration and reports whether to deep sleep.
func (c *Controller) Tick() bool {
	now := c.d.Clock.NowMs()
	c.serviceLink()

	sleep := false
	if c.st.Active {
		iv := c.cfg.Intervals
		if timex.Elapsed(now, c.lastBat, iv.BatteryCheckMs) {
			c.lastBat = now
			c.checkBattery(now)
		}
		if iv.AmbientMs > 0 && timex.Elapsed(now, c.lastAmb, iv.AmbientMs) {
			c.lastAmb = now
			c.readAmbient(now)
		}

		out := c.fsm.Step(c.st, now, c.deepSleep())
		if out.Measured {
			c.log.Debug("distance", "cm", c.st.Sample.DistanceCm, "valid", c.st.Sample.Valid, "count", c.st.Count)
		}
		if out.Changed {
			c.modeChanged(out.Change)
		}
		c.d.Indicator.Update(c.st.Mode, now)
		c.d.Buzzer.Update(c.st.Mode, now)
		sleep = out.Sleep
	}

	if timex.Elapsed(now, c.lastTel, c.cfg.Intervals.TelemetryMs) {
		c.lastTel = now
		c.sendTelemetry()
	}
	return sleep
}

// Run loops until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	delay := time.Duration(c.cfg.Intervals.LoopDelayMs) * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sleep := c.Tick()
		c.d.Power.Service()
		if sleep {
			c.sleep()
			continue
		}
		c.d.Clock.Delay(delay)
	}
}

func (c *Controller) sleep() {
	c.st.Stats.Sleeps++
	c.event("sleep", c.st.Stats.Sleeps)
	src := c.d.Power.Sleep()
	c.st.Stats.Wakes++
	c.event("wake", src)
}

func (c *Controller) serviceLink() {
	for i := 0; i < maxCommandsPerTick; i++ {
		cmd, raw, ok, err := c.d.Link.Poll()
		if !ok {
			return
		}
		if err != nil {
			c.log.Debug("ignored", "line", raw)
			continue
		}
		c.Apply(cmd)
	}
}

// Apply executes a link command.
func (c *Controller) Apply(cmd types.Command) {
	c.log.Info("command", "cmd", cmd)
	switch cmd {
	case types.CmdStart:
		c.st.Active = true
	case types.CmdStop:
		c.st.Active = false
		c.d.Power.AllOff()
	case types.CmdStatus:
		c.sendTelemetry()
	}
	c.event("command", cmd)
}

func (c *Controller) checkBattery(now uint32) {
	b := c.d.Battery.Read()
	c.st.Battery = b
	c.log.Info("battery", "v", b.Voltage, "pct", b.Percent)

	to := c.d.Battery.NextMode(b.Voltage, c.st.Mode)
	reason := "battery"
	if to == types.ModeStandby {
		reason = "recovered"
	}
	if ch, ok := c.st.SetMode(to, now, reason); ok {
		c.modeChanged(ch)
	}
	c.event("battery", b)
}

func (c *Controller) readAmbient(now uint32) {
	if c.d.Ambient == nil {
		return
	}
	v, err := c.d.Ambient.Read()
	if err != nil {
		c.log.Warn("ambient", "err", err)
		c.hasTemp = false
		return
	}
	c.tempC, c.hasTemp = v.Celsius(), true
}

func (c *Controller) modeChanged(ch types.ModeChange) {
	c.log.Info("mode", "from", ch.From, "to", ch.To, "reason", ch.Reason)
	c.publish(TopicMode, ch, true)
}

// Telemetry is the record the next send would carry.
func (c *Controller) Telemetry() types.TelemetryRecord {
	rec := c.st.Telemetry()
	if c.hasTemp {
		t := c.tempC
		rec.TempC = &t
	}
	return rec
}

func (c *Controller) sendTelemetry() {
	rec := c.Telemetry()
	if err := c.d.Link.Send(rec); err != nil {
		c.log.Warn("telemetry", "err", err)
	}
	c.publish(TopicTelemetry, rec, false)
}

func (c *Controller) event(tag string, payload any) {
	if c.d.Bus == nil {
		return
	}
	c.publish(TopicEvent.Append(tag), payload, false)
}

func (c *Controller) publish(t bus.Topic, payload any, retained bool) {
	if c.d.Bus == nil {
		return
	}
	c.d.Bus.Publish(c.d.Bus.NewMessage(t, payload, retained))
}
