//go:build !(rp2040 || rp2350)

package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"

	"sentrycode-go/types"
)

const consoleHelp = `commands:
  start | stop | status   send a detector command
  at <args...>            send an AT command to the BLE module
  raw <line...>           send a line verbatim
  last                    show the latest telemetry
  stats                   show link counters
  help
  quit
`

// ErrQuit is returned by Console when the operator asked to leave.
var ErrQuit = errors.New("monitor: quit")

// Console runs an interactive prompt reading r and replying on w. It returns
// ErrQuit after quit or exit, and nil once r is exhausted or ctx is done.
func (m *Monitor) Console(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		err := m.exec(ctx, sc.Text(), w)
		if errors.Is(err, ErrQuit) {
			return ErrQuit
		}
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return sc.Err()
}

func (m *Monitor) exec(ctx context.Context, input string, w io.Writer) error {
	args, err := shlex.Split(input)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "start":
		return m.Send(ctx, types.CmdStart)
	case "stop":
		return m.Send(ctx, types.CmdStop)
	case "status":
		return m.Send(ctx, types.CmdStatus)
	case "at":
		return m.SendRaw(ctx, "AT"+strings.Join(args[1:], ""))
	case "raw":
		if len(args) < 2 {
			return errors.New("raw needs a line")
		}
		return m.SendRaw(ctx, strings.Join(args[1:], " "))
	case "last":
		env, ok := m.Last()
		if !ok {
			fmt.Fprintln(w, "no telemetry yet")
			return nil
		}
		fmt.Fprintf(w, "%s state=%s distance=%.2fm battery=%.1f%% motion=%t active=%t",
			env.ReceivedAt.Format("15:04:05"), env.State, env.DistanceM, env.BatteryPercent, env.Motion, env.Active)
		if env.TempC != nil {
			fmt.Fprintf(w, " temp=%.1fC", *env.TempC)
		}
		fmt.Fprintln(w)
	case "stats":
		s := m.Stats()
		fmt.Fprintf(w, "records=%d malformed=%d other=%d clamped=%d commands=%d forwarded=%d forward_errors=%d\n",
			s.Records, s.Malformed, s.Other, s.Clamped, s.Commands, s.Forwarded, s.ForwardErrs)
	case "quit", "exit":
		return ErrQuit
	case "help", "?":
		fmt.Fprint(w, consoleHelp)
	default:
		fmt.Fprintf(w, "unknown command %q\n", args[0])
		fmt.Fprint(w, consoleHelp)
	}
	return nil
}
