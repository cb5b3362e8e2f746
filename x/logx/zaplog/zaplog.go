//go:build !(rp2040 || rp2350)

// Package zaplog backs logx with zap for host tools and simulation.
package zaplog

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"sentrycode-go/x/logx"
)

// Options configure New. Empty File means console only.
type Options struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "console" (default) or "json"
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ZapLevel maps a logx level onto zap's.
func ZapLevel(l logx.Level) zapcore.Level {
	switch l {
	case logx.LevelDebug:
		return zapcore.DebugLevel
	case logx.LevelWarn:
		return zapcore.WarnLevel
	case logx.LevelError, logx.LevelOff:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a zap logger writing to stderr and, when File is set, to a
// lumberjack-rotated JSON file.
func New(o Options) *zap.Logger {
	return newWith(o, os.Stderr)
}

func newWith(o Options, console io.Writer) *zap.Logger {
	lvl := zap.NewAtomicLevelAt(ZapLevel(logx.ParseLevel(o.Level)))

	var enc zapcore.Encoder
	if o.Format == "json" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(console)), lvl)}

	if o.File != "" {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		rot := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    orDefault(o.MaxSizeMB, 10),
			MaxBackups: orDefault(o.MaxBackups, 5),
			MaxAge:     orDefault(o.MaxAgeDays, 28),
			Compress:   o.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rot), lvl))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

// Sink adapts a zap logger to logx.Sink. Scopes become zap names.
type Sink struct {
	L *zap.SugaredLogger
}

func (s Sink) Write(lvl logx.Level, scope, msg string, kv []any) {
	l := s.L
	if scope != "" {
		l = l.Named(scope)
	}
	switch lvl {
	case logx.LevelDebug:
		l.Debugw(msg, kv...)
	case logx.LevelWarn:
		l.Warnw(msg, kv...)
	case logx.LevelError:
		l.Errorw(msg, kv...)
	default:
		l.Infow(msg, kv...)
	}
}

// Logx returns a logx logger over z. logx does the level filtering, so z
// should be built permissive enough for lvl.
func Logx(z *zap.Logger, lvl logx.Level) *logx.Logger {
	return logx.New(Sink{L: z.Sugar()}, lvl)
}
