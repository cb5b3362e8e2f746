// Package platform binds the detector to hardware. rp2.go drives a Pico
// through TinyGo's machine package; sim.go provides a simulated board
// for host runs and tests. Build selects one; callers see only Board.
package platform

import (
	"time"

	"tinygo.org/x/drivers"

	"sentrycode-go/bus"
	"sentrycode-go/drivers/aht20"
	"sentrycode-go/drivers/battmon"
	"sentrycode-go/drivers/hcsr04"
	"sentrycode-go/services/actuate"
	"sentrycode-go/services/config"
	"sentrycode-go/services/detector"
	"sentrycode-go/services/link"
	"sentrycode-go/services/power"
	"sentrycode-go/x/logx"
	"sentrycode-go/x/timex"
)

// Board is the set of hardware handles one detector needs. I2C is nil
// when no ambient sensor is fitted.
type Board struct {
	Name        string
	Clock       timex.Clock
	Trigger     hcsr04.Output
	Echo        hcsr04.Echo
	Red         actuate.Channel
	Green       actuate.Channel
	Blue        actuate.Channel
	Buzzer      actuate.Pin
	BatteryADC  battmon.ADC
	Serial      link.Port
	I2C         drivers.I2C
	Halter      power.Halter
	Watchdog    power.Watchdog
	Peripherals []power.Peripheral

	// AttachMotion routes rising edges of the PIR input to isr.
	AttachMotion func(isr func()) error
}

func ms(v uint32) time.Duration { return time.Duration(v) * time.Millisecond }

// RangerConfig is the hcsr04 setup for cfg.
func RangerConfig(cfg config.Config) hcsr04.Config {
	r := cfg.Ranging
	return hcsr04.Config{
		Samples:     r.Samples,
		EchoTimeout: ms(r.EchoTimeoutMs),
		SampleGap:   ms(r.SampleGapMs),
		CmPerUs:     r.CmPerUs,
		Probe:       r.Probe,
	}
}

// BatteryConfig is the battmon setup for cfg.
func BatteryConfig(cfg config.Config) battmon.Config {
	bc := cfg.Battery
	return battmon.Config{
		RefVolts:  bc.RefVolts,
		Divider:   bc.Divider,
		CutoffV:   bc.CutoffV,
		RecoverV:  bc.RecoverV,
		FullV:     bc.FullV,
		Samples:   bc.Samples,
		SampleGap: ms(bc.SampleGapMs),
		Settle:    ms(bc.SettleMs),
	}
}

// Assemble builds the drivers and services on b and returns a controller
// ready for Boot.
func Assemble(b *Board, cfg config.Config, log *logx.Logger, conn *bus.Connection) (*detector.Controller, error) {
	if log == nil {
		log = logx.Nop()
	}
	motion := detector.NewMotionFlag()
	if b.AttachMotion != nil {
		if err := b.AttachMotion(motion.Set); err != nil {
			return nil, err
		}
	}

	ranger := hcsr04.New(b.Trigger, b.Echo, b.Clock, RangerConfig(cfg))
	ranger.Configure()
	batt := battmon.New(b.BatteryADC, b.Clock, BatteryConfig(cfg))

	sup := power.New(b.Halter, b.Watchdog, motion.Wake(), power.Config{
		WatchdogTimeout: ms(cfg.Intervals.WatchdogMs),
	}, log.Named("power"))
	sup.RegisterPeripheral(b.Peripherals...)

	d := detector.Deps{
		Config:    cfg,
		Clock:     b.Clock,
		Ranger:    ranger,
		Battery:   batt,
		Indicator: actuate.NewIndicator(b.Red, b.Green, b.Blue),
		Buzzer:    actuate.NewBuzzer(b.Buzzer, b.Clock),
		Link:      link.New(b.Serial),
		Power:     sup,
		Motion:    motion,
		Bus:       conn,
		Log:       log.Named("detector"),
	}
	if b.I2C != nil {
		amb := aht20.New(b.I2C, b.Clock, aht20.Config{})
		if err := amb.Configure(); err != nil {
			log.Warn("ambient sensor absent", "err", err)
		} else {
			d.Ambient = amb
		}
	}
	if conn != nil {
		log.Debug("assembled", "board", b.Name, "bus", conn.ID())
	}
	return detector.NewController(d), nil
}
