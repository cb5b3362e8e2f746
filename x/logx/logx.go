// Package logx is a small levelled logger with an injected sink.
//
// The level is changed at runtime (SetLevel), so one binary serves both
// quiet field builds and verbose bench builds. Key/value pairs are passed
// as alternating arguments: log.Info("mode", "from", a, "to", b).
package logx

import "sync/atomic"

type Level int32

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "off"
	}
}

// ParseLevel maps "debug","info","warn","error","off"; anything else is info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "off":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Sink receives records that passed the level filter.
type Sink interface {
	Write(lvl Level, scope, msg string, kv []any)
}

type Logger struct {
	sink  Sink
	scope string
	level *atomic.Int32 // shared by derived loggers
}

// New returns a logger writing to sink at lvl. A nil sink discards.
func New(sink Sink, lvl Level) *Logger {
	l := &Logger{sink: sink, level: new(atomic.Int32)}
	l.level.Store(int32(lvl))
	return l
}

// Nop discards everything.
func Nop() *Logger { return New(nil, LevelOff) }

// Named returns a logger sharing sink and level under a sub-scope.
func (l *Logger) Named(scope string) *Logger {
	if l.scope != "" {
		scope = l.scope + "." + scope
	}
	return &Logger{sink: l.sink, scope: scope, level: l.level}
}

func (l *Logger) SetLevel(lvl Level) { l.level.Store(int32(lvl)) }
func (l *Logger) Level() Level       { return Level(l.level.Load()) }

// Enabled reports whether lvl would be written.
func (l *Logger) Enabled(lvl Level) bool {
	return l != nil && l.sink != nil && lvl >= l.Level() && lvl < LevelOff
}

func (l *Logger) Debug(msg string, kv ...any) { l.write(LevelDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.write(LevelInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.write(LevelWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.write(LevelError, msg, kv) }

func (l *Logger) write(lvl Level, msg string, kv []any) {
	if !l.Enabled(lvl) {
		return
	}
	l.sink.Write(lvl, l.scope, msg, kv)
}
