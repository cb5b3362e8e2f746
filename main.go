//go:build rp2040 || rp2350

// Firmware entry for the proximity sentry. Board selection is by build tag,
// e.g. tinygo flash -target=pico -tags=board_pico_bench .
package main

import (
	"context"
	"time"

	"sentrycode-go/bus"
	"sentrycode-go/platform"
	"sentrycode-go/services/config"
	"sentrycode-go/services/detector"
	"sentrycode-go/x/logx"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	cfg, err := config.Load(platform.BoardName)
	if err != nil {
		for {
			println("config:", err.Error())
			time.Sleep(5 * time.Second)
		}
	}
	log := logx.New(logx.PrintSink{}, logx.ParseLevel(cfg.LogLevel))
	log.Info("board", "name", platform.BoardName, "version", config.Version)

	b := bus.NewBus(4)
	conn := b.NewConnection("detector")
	go traceEvents(b.NewConnection("trace"), log.Named("bus"))

	board, err := platform.Open(cfg)
	if err != nil {
		log.Error("board", "err", err)
		return
	}
	ctrl, err := platform.Assemble(board, cfg, log, conn)
	if err != nil {
		log.Error("assemble", "err", err)
		return
	}
	ctrl.Boot()
	_ = ctrl.Run(context.Background())
}

// traceEvents echoes detector events when debugging.
func traceEvents(c *bus.Connection, log *logx.Logger) {
	sub := c.Subscribe(detector.TopicEvent.Append(bus.MultiLevel))
	for m := range sub.Channel() {
		log.Debug("event", "topic", m.Topic.String())
	}
}
