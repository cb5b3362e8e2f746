package link

import (
	"sentrycode-go/errcode"
	"sentrycode-go/types"
)

// Link couples the line reader and the telemetry writer on one port.
type Link struct {
	port  Port
	lines *LineReader
	out   []byte
	sent  uint32
}

func New(p Port) *Link {
	return &Link{port: p, lines: NewLineReader(p), out: make([]byte, 0, 128)}
}

// Poll returns the next received command. ok is false when no complete
// line is pending; err is errcode.UnknownCommand for unrecognised text,
// with the raw line returned for logging.
func (l *Link) Poll() (cmd types.Command, raw string, ok bool, err error) {
	line, got := l.lines.Next()
	if !got {
		return types.CmdNone, "", false, nil
	}
	raw = string(line)
	cmd, err = ParseCommand(raw)
	return cmd, raw, true, err
}

// Send writes one telemetry line.
func (l *Link) Send(rec types.TelemetryRecord) error {
	l.out = AppendTelemetry(l.out[:0], rec)
	l.out = append(l.out, '\r', '\n')
	if err := l.write(l.out); err != nil {
		return err
	}
	l.sent++
	return nil
}

// Announce names the BLE-UART module (AT+NAME<name>).
func (l *Link) Announce(name string) error {
	l.out = append(l.out[:0], "AT+NAME"...)
	l.out = append(l.out, name...)
	l.out = append(l.out, '\r', '\n')
	return l.write(l.out)
}

func (l *Link) write(b []byte) error {
	n, err := l.port.Write(b)
	if err != nil {
		return errcode.Wrap(errcode.LinkWrite, "link", err)
	}
	if n != len(b) {
		return &errcode.E{C: errcode.LinkWrite, Op: "link", Msg: "short write"}
	}
	return nil
}

// Sent counts telemetry lines written.
func (l *Link) Sent() uint32 { return l.sent }

// Clamped counts over-long inbound lines.
func (l *Link) Clamped() uint32 { return l.lines.Clamped() }
