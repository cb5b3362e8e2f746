//go:build !(rp2040 || rp2350)

// linkmon watches a detector over its BLE-UART bridge: telemetry is logged
// and optionally forwarded to MQTT, and stdin takes console commands.
//
// Settings come from LINKMON_* variables, with .env supplying defaults;
// flags override both.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"sentrycode-go/services/monitor"
	"sentrycode-go/x/logx/zaplog"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file with defaults")
	port := flag.String("port", "", "serial device (overrides LINKMON_PORT)")
	baud := flag.Int("baud", 0, "baud rate (overrides LINKMON_BAUD)")
	broker := flag.String("mqtt", "", "MQTT broker URL (overrides LINKMON_MQTT_BROKER)")
	quiet := flag.Bool("no-console", false, "do not read commands from stdin")
	flag.Parse()

	cfg, err := monitor.LoadEnv(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *baud > 0 {
		cfg.Baud = *baud
	}
	if *broker != "" {
		cfg.Broker = *broker
	}

	z := zaplog.New(zaplog.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer z.Sync()

	if err := run(cfg, z, !*quiet); err != nil {
		z.Error("linkmon", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg monitor.Config, z *zap.Logger, console bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sp, err := monitor.OpenSerial(cfg)
	if err != nil {
		return err
	}
	// Closing the port unblocks a pending read.
	go func() {
		<-ctx.Done()
		_ = sp.Close()
	}()

	m := monitor.New(sp, cfg, nil, z)
	m.Transient = monitor.SerialTimeout
	if cfg.Broker != "" {
		mq, err := monitor.DialMQTT(cfg, m.Session())
		if err != nil {
			return err
		}
		defer mq.Close()
		m.SetPublisher(mq)
	}
	z.Info("linkmon up",
		zap.String("port", cfg.Port),
		zap.Int("baud", cfg.Baud),
		zap.String("session", m.Session()),
		zap.Bool("forwarding", cfg.Broker != ""),
	)

	// The console goroutine may stay blocked on stdin; the process exits
	// with Receive. Only an explicit quit stops the monitor, so a closed
	// stdin under a service manager leaves it running.
	if console {
		go func() {
			err := m.Console(ctx, os.Stdin, os.Stdout)
			switch {
			case errors.Is(err, monitor.ErrQuit):
				stop()
			case err != nil:
				z.Warn("console", zap.Error(err))
			default:
				z.Debug("console closed")
			}
		}()
	}
	return m.Receive(ctx)
}
