//go:build !(rp2040 || rp2350)

package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"sentrycode-go/errcode"
	"sentrycode-go/services/link"
	"sentrycode-go/types"
)

// Publisher forwards one encoded telemetry envelope.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Envelope is what gets forwarded: the record plus where and when it was seen.
type Envelope struct {
	Session    string    `json:"session"`
	ReceivedAt time.Time `json:"received_at"`
	types.TelemetryRecord
}

// Stats count link traffic since New.
type Stats struct {
	Records     uint64
	Malformed   uint64 // lines starting with '{' that did not decode
	Other       uint64 // module chatter such as AT replies
	Clamped     uint64
	Commands    uint64
	Forwarded   uint64
	ForwardErrs uint64
}

type Monitor struct {
	rw      io.ReadWriter
	log     *zap.Logger
	pub     Publisher
	topic   string
	limiter *rate.Limiter
	session string
	now     func() time.Time

	// Transient reports read errors to retry, such as serial timeouts.
	Transient func(error) bool
	// OnRecord, if set, sees every decoded record.
	OnRecord func(Envelope)

	wmu sync.Mutex

	mu    sync.Mutex
	last  *Envelope
	stats Stats
}

// New wraps rw. pub may be nil.
func New(rw io.ReadWriter, cfg Config, pub Publisher, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	burst := cfg.CommandBurst
	if burst < 1 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Limit(cfg.CommandRate), burst)
	if cfg.CommandRate <= 0 {
		lim = rate.NewLimiter(rate.Inf, burst)
	}
	id := uuid.NewString()
	return &Monitor{
		rw:      rw,
		log:     log.With(zap.String("session", id)),
		pub:     pub,
		topic:   or(cfg.Topic, defaultTopic),
		limiter: lim,
		session: id,
		now:     time.Now,
	}
}

func (m *Monitor) Session() string { return m.session }

// SetPublisher enables forwarding. Call before Receive.
func (m *Monitor) SetPublisher(p Publisher) { m.pub = p }

// Last is the most recent record, if any.
func (m *Monitor) Last() (Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Envelope{}, false
	}
	return *m.last, true
}

func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Receive reads lines until ctx is done, EOF, or a non-transient error.
// Lines longer than link.MaxLine are truncated.
func (m *Monitor) Receive(ctx context.Context) error {
	buf := make([]byte, 256)
	var line []byte
	clamped := false
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := m.rw.Read(buf)
		for _, c := range buf[:n] {
			switch {
			case c == '\r':
			case c == '\n':
				if clamped {
					m.count(func(s *Stats) { s.Clamped++ })
				}
				m.handleLine(line)
				line, clamped = line[:0], false
			case len(line) < link.MaxLine:
				line = append(line, c)
			default:
				clamped = true
			}
		}
		if err == nil {
			continue
		}
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF):
			if len(line) > 0 {
				m.handleLine(line)
			}
			return nil
		case m.Transient != nil && m.Transient(err):
			continue
		default:
			return errcode.Wrap(errcode.Error, "receive", err)
		}
	}
}

func (m *Monitor) handleLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	rec, err := link.DecodeTelemetry(line)
	if err != nil {
		if line[0] == '{' {
			m.count(func(s *Stats) { s.Malformed++ })
			m.log.Warn("malformed telemetry", zap.ByteString("line", line), zap.Error(err))
		} else {
			m.count(func(s *Stats) { s.Other++ })
			m.log.Debug("module", zap.ByteString("line", line))
		}
		return
	}
	env := Envelope{Session: m.session, ReceivedAt: m.now(), TelemetryRecord: rec}
	m.mu.Lock()
	m.last = &env
	m.stats.Records++
	m.mu.Unlock()

	m.log.Debug("telemetry",
		zap.Float32("distance_m", rec.DistanceM),
		zap.Stringer("state", rec.State),
		zap.Float32("battery", rec.BatteryPercent),
		zap.Bool("motion", rec.Motion),
	)
	if m.OnRecord != nil {
		m.OnRecord(env)
	}
	m.forward(env)
}

func (m *Monitor) forward(env Envelope) {
	if m.pub == nil {
		return
	}
	b, err := json.Marshal(env)
	if err != nil {
		m.log.Error("encode envelope", zap.Error(err))
		return
	}
	if err := m.pub.Publish(m.topic, b); err != nil {
		m.count(func(s *Stats) { s.ForwardErrs++ })
		m.log.Warn("forward", zap.Error(err))
		return
	}
	m.count(func(s *Stats) { s.Forwarded++ })
}

// Send writes one command line, waiting on the rate limit.
func (m *Monitor) Send(ctx context.Context, cmd types.Command) error {
	if _, err := link.ParseCommand(cmd.String()); err != nil {
		return err
	}
	return m.SendRaw(ctx, cmd.String())
}

// SendRaw writes an arbitrary line, e.g. an AT command for the module.
func (m *Monitor) SendRaw(ctx context.Context, line string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return errcode.Wrap(errcode.Busy, "send", err)
	}
	m.wmu.Lock()
	_, err := io.WriteString(m.rw, line+"\n")
	m.wmu.Unlock()
	if err != nil {
		return errcode.Wrap(errcode.LinkWrite, "send", err)
	}
	m.count(func(s *Stats) { s.Commands++ })
	m.log.Info("sent", zap.String("line", line))
	return nil
}

func (m *Monitor) count(f func(*Stats)) {
	m.mu.Lock()
	f(&m.stats)
	m.mu.Unlock()
}
