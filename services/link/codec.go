// Package link is the line-oriented telemetry/command channel to the
// dashboard, usually a BLE-UART bridge on a hardware UART.
//
// Outbound: one compact JSON object per line, CRLF terminated.
// Inbound: START, STOP or STATUS, one per line, case-sensitive.
package link

import (
	"strings"

	"sentrycode-go/errcode"
	"sentrycode-go/types"
	"sentrycode-go/x/strconvx"
)

// FloatDigits is the maximum number of decimals in telemetry floats.
const FloatDigits = 3

// AppendTelemetry appends rec as a JSON object (no line terminator).
// Key order is fixed: distance, motion, battery, state, active[, temp_c].
func AppendTelemetry(b []byte, rec types.TelemetryRecord) []byte {
	b = append(b, `{"distance":`...)
	b = appendFloat(b, rec.DistanceM)
	b = append(b, `,"motion":`...)
	b = appendBool(b, rec.Motion)
	b = append(b, `,"battery":`...)
	b = appendFloat(b, rec.BatteryPercent)
	b = append(b, `,"state":`...)
	b = append(b, strconvx.FormatUint(uint64(rec.State), 10)...)
	b = append(b, `,"active":`...)
	b = appendBool(b, rec.Active)
	if rec.TempC != nil {
		b = append(b, `,"temp_c":`...)
		b = appendFloat(b, *rec.TempC)
	}
	return append(b, '}')
}

func appendFloat(b []byte, f float32) []byte {
	return append(b, strconvx.TrimFloat(float64(f), FloatDigits)...)
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, "true"...)
	}
	return append(b, "false"...)
}

// ParseCommand maps a received line to a command. Surrounding whitespace is
// ignored; anything else unrecognised is errcode.UnknownCommand.
func ParseCommand(line string) (types.Command, error) {
	switch strings.TrimSpace(line) {
	case "START":
		return types.CmdStart, nil
	case "STOP":
		return types.CmdStop, nil
	case "STATUS":
		return types.CmdStatus, nil
	}
	return types.CmdNone, errcode.UnknownCommand
}
