//go:build !(rp2040 || rp2350)

// detector-sim replays YAML scenarios against the detector firmware on a
// simulated board and exits non-zero when an expectation fails.
//
//	detector-sim -log-level debug testdata/approach.yaml testdata/battery.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"sentrycode-go/services/sim"
	"sentrycode-go/x/logx"
	"sentrycode-go/x/logx/zaplog"
)

func main() {
	var opts zaplog.Options
	flag.StringVar(&opts.Level, "log-level", "info", "debug|info|warn|error|off")
	flag.StringVar(&opts.Format, "log-format", "console", "console|json")
	flag.StringVar(&opts.File, "log-file", "", "also write JSON logs here, rotated")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] scenario.yaml...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	z := zaplog.New(opts)
	defer z.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := 0
	for _, path := range flag.Args() {
		if err := runOne(ctx, z, logx.ParseLevel(opts.Level), path); err != nil {
			z.Error("scenario failed", zap.String("file", path), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runOne(ctx context.Context, z *zap.Logger, lvl logx.Level, path string) error {
	sc, err := sim.LoadFile(path)
	if err != nil {
		return err
	}
	log := zaplog.Logx(z.With(zap.String("scenario", sc.Name)), lvl)
	res, err := sim.Run(ctx, sc, log)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	z.Info("scenario done",
		zap.String("name", res.Name),
		zap.Strings("modes", res.Modes()),
		zap.Stringer("final", res.Final),
		zap.Int("telemetry", len(res.Telemetry)),
		zap.Uint32("sleeps", res.Stats.Sleeps),
		zap.Uint32("end_ms", res.EndMs),
	)
	return res.Check(sc.Expect)
}
