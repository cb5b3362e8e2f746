//go:build !(rp2040 || rp2350)

package link

import (
	"bytes"
	"encoding/json"

	"sentrycode-go/errcode"
	"sentrycode-go/types"
)

// DecodeTelemetry parses one received telemetry line (CR/LF tolerated).
func DecodeTelemetry(line []byte) (types.TelemetryRecord, error) {
	var rec types.TelemetryRecord
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return rec, &errcode.E{C: errcode.InvalidPayload, Op: "telemetry", Msg: "not a JSON object"}
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return rec, errcode.Wrap(errcode.InvalidPayload, "telemetry", err)
	}
	return rec, nil
}
