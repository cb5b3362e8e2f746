//go:build !(rp2040 || rp2350)

package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"sentrycode-go/errcode"
	"sentrycode-go/types"
)

// pipe reads from a script and records writes.
type pipe struct {
	r   io.Reader
	out bytes.Buffer
}

func (p *pipe) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipe) Write(b []byte) (int, error) { return p.out.Write(b) }

type pubFake struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (p *pubFake) Publish(topic string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func testConfig() Config {
	return Config{Topic: "t/telemetry", CommandRate: 1000, CommandBurst: 10}
}

func TestReceiveDecodesAndForwards(t *testing.T) {
	rw := &pipe{r: strings.NewReader(
		"AT+NAMEOni\r\nOK\r\n" +
			`{"distance":1.5,"motion":true,"battery":87.5,"state":2,"active":true}` + "\r\n" +
			`{"distance":` + "\n" +
			`{"distance":3.2,"motion":false,"battery":80,"state":0,"active":true,"temp_c":4.5}`,
	)}
	pub := &pubFake{}
	m := New(rw, testConfig(), pub, nil)
	fixed := time.Date(2026, 2, 3, 20, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	var seen []types.Mode
	m.OnRecord = func(e Envelope) { seen = append(seen, e.State) }

	require.NoError(t, m.Receive(context.Background()))

	st := m.Stats()
	assert.EqualValues(t, 2, st.Records)
	assert.EqualValues(t, 1, st.Malformed)
	assert.EqualValues(t, 2, st.Other)
	assert.EqualValues(t, 2, st.Forwarded)
	assert.Equal(t, []types.Mode{types.ModeAlert, types.ModeStandby}, seen)

	last, ok := m.Last()
	require.True(t, ok)
	require.NotNil(t, last.TempC)
	assert.InDelta(t, 4.5, *last.TempC, 1e-6)

	require.Len(t, pub.payloads, 2)
	assert.Equal(t, "t/telemetry", pub.topics[0])
	var env map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &env))
	assert.Equal(t, m.Session(), env["session"])
	assert.Equal(t, 1.5, env["distance"])
	assert.Equal(t, "2026-02-03T20:00:00Z", env["received_at"])
}

func TestReceiveClampsLongLines(t *testing.T) {
	rw := &pipe{r: strings.NewReader(strings.Repeat("x", 200) + "\n")}
	m := New(rw, testConfig(), nil, nil)
	require.NoError(t, m.Receive(context.Background()))
	assert.EqualValues(t, 1, m.Stats().Clamped)
	assert.EqualValues(t, 1, m.Stats().Other)
}

// flaky fails with a transient error once before serving data.
type flaky struct {
	failed bool
	r      io.Reader
}

var errFlaky = errors.New("timeout")

func (f *flaky) Read(b []byte) (int, error) {
	if !f.failed {
		f.failed = true
		return 0, errFlaky
	}
	return f.r.Read(b)
}
func (f *flaky) Write(b []byte) (int, error) { return len(b), nil }

func TestReceiveTransientAndFatal(t *testing.T) {
	src := `{"distance":1,"motion":false,"battery":50,"state":0,"active":true}` + "\n"

	m := New(&flaky{r: strings.NewReader(src)}, testConfig(), nil, nil)
	m.Transient = func(err error) bool { return errors.Is(err, errFlaky) }
	require.NoError(t, m.Receive(context.Background()))
	assert.EqualValues(t, 1, m.Stats().Records)

	m = New(&flaky{r: strings.NewReader(src)}, testConfig(), nil, nil)
	err := m.Receive(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errFlaky)
}

func TestForwardErrorsCounted(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	rw := &pipe{r: strings.NewReader(`{"distance":1,"motion":false,"battery":50,"state":0,"active":true}` + "\n")}
	m := New(rw, testConfig(), &pubFake{err: errors.New("broker down")}, zap.New(core))
	require.NoError(t, m.Receive(context.Background()))
	assert.EqualValues(t, 1, m.Stats().ForwardErrs)
	assert.Equal(t, 1, logs.FilterMessage("forward").Len())
}

func TestSendWritesLines(t *testing.T) {
	rw := &pipe{r: strings.NewReader("")}
	m := New(rw, testConfig(), nil, nil)
	ctx := context.Background()
	require.NoError(t, m.Send(ctx, types.CmdStart))
	require.NoError(t, m.Send(ctx, types.CmdStatus))
	assert.Equal(t, "START\nSTATUS\n", rw.out.String())
	assert.Equal(t, errcode.UnknownCommand, errcode.Of(m.Send(ctx, types.CmdNone)))
	assert.EqualValues(t, 2, m.Stats().Commands)
}

func TestSendRateLimited(t *testing.T) {
	rw := &pipe{r: strings.NewReader("")}
	m := New(rw, Config{CommandRate: 1, CommandBurst: 1}, nil, nil)

	require.NoError(t, m.Send(context.Background(), types.CmdStop))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := m.Send(ctx, types.CmdStart)
	assert.Equal(t, errcode.Busy, errcode.Of(err))
	assert.Equal(t, "STOP\n", rw.out.String())
}
