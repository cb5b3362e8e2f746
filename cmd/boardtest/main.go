//go:build rp2040 || rp2350

// boardtest exercises each output and sensor of a sentry board in turn and
// prints what it sees over USB serial. Nothing here touches the FSM.
package main

import (
	"time"

	"sentrycode-go/drivers/battmon"
	"sentrycode-go/drivers/hcsr04"
	"sentrycode-go/platform"
	"sentrycode-go/services/actuate"
	"sentrycode-go/services/config"
	"sentrycode-go/services/detector"
	"sentrycode-go/x/logx"
)

// ---------- Configuration ----------

const (
	colourDwell = 400 * time.Millisecond
	beepLen     = 150 * time.Millisecond
	rangeReads  = 5
	motionWait  = 10 * time.Second

	// Cycles: 0 = loop forever
	cyclesToRun = 0
)

var colours = []struct {
	name string
	rgb  actuate.RGB
}{
	{"red", actuate.RGB{R: 255}},
	{"green", actuate.RGB{G: 255}},
	{"blue", actuate.RGB{B: 255}},
	{"warning", actuate.RGB{R: 100, G: 50}},
	{"off", actuate.Off},
}

func main() {
	time.Sleep(2 * time.Second)

	cfg, err := config.Load(platform.BoardName)
	log := logx.New(logx.PrintSink{}, logx.LevelDebug).Named("boardtest")
	if err != nil {
		log.Error("config", "err", err)
		return
	}
	log.Info("start", "board", platform.BoardName, "version", config.Version)

	b, err := platform.Open(cfg)
	if err != nil {
		log.Error("open", "err", err)
		return
	}
	ind := actuate.NewIndicator(b.Red, b.Green, b.Blue)
	buz := actuate.NewBuzzer(b.Buzzer, b.Clock)
	// Same driver setup as the firmware so bring-up readings match it.
	ranger := hcsr04.New(b.Trigger, b.Echo, b.Clock, platform.RangerConfig(cfg))
	ranger.Configure()
	batt := battmon.New(b.BatteryADC, b.Clock, platform.BatteryConfig(cfg))
	motion := detector.NewMotionFlag()
	if err := b.AttachMotion(motion.Set); err != nil {
		log.Warn("motion irq", "err", err)
	}

	for cycle := 1; cyclesToRun == 0 || cycle <= cyclesToRun; cycle++ {
		log.Info("cycle", "n", cycle)

		for _, c := range colours {
			log.Info("rgb", "colour", c.name)
			ind.Show(c.rgb)
			time.Sleep(colourDwell)
		}

		log.Info("buzzer")
		buz.Beep(beepLen)

		for i := 0; i < rangeReads; i++ {
			cm, err := ranger.Measure()
			if err != nil {
				log.Info("range", "err", err)
			} else {
				log.Info("range", "cm", cm)
			}
		}

		st := batt.Read()
		log.Info("battery", "v", st.Voltage, "pct", st.Percent)

		log.Info("wave at the PIR", "wait_ms", uint32(motionWait/time.Millisecond))
		select {
		case <-motion.Wake():
			motion.Take()
			log.Info("motion", "edges", motion.Edges())
		case <-time.After(motionWait):
			log.Info("no motion")
		}
	}
}
