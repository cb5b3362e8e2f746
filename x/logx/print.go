package logx

import (
	"io"

	"sentrycode-go/x/strconvx"
)

// PrintSink writes one line per record: "[scope] LEVEL msg k=v k=v".
// With a nil writer it uses the builtin println (USB CDC on the MCU).
type PrintSink struct {
	W io.Writer
}

func (p PrintSink) Write(lvl Level, scope, msg string, kv []any) {
	var b []byte
	if scope != "" {
		b = append(b, '[')
		b = append(b, scope...)
		b = append(b, "] "...)
	}
	b = append(b, lvl.String()...)
	b = append(b, ' ')
	b = append(b, msg...)
	for i := 0; i+1 < len(kv); i += 2 {
		b = append(b, ' ')
		if k, ok := kv[i].(string); ok {
			b = append(b, k...)
		} else {
			b = append(b, '?')
		}
		b = append(b, '=')
		b = AppendValue(b, kv[i+1])
	}
	if p.W == nil {
		println(string(b))
		return
	}
	b = append(b, '\n')
	_, _ = p.W.Write(b)
}

// AppendValue renders the value kinds the firmware logs without fmt.
func AppendValue(b []byte, v any) []byte {
	switch x := v.(type) {
	case string:
		return append(b, x...)
	case []byte:
		return append(b, x...)
	case bool:
		if x {
			return append(b, "true"...)
		}
		return append(b, "false"...)
	case int:
		return append(b, strconvx.FormatInt(int64(x), 10)...)
	case int16:
		return append(b, strconvx.FormatInt(int64(x), 10)...)
	case int32:
		return append(b, strconvx.FormatInt(int64(x), 10)...)
	case int64:
		return append(b, strconvx.FormatInt(x, 10)...)
	case uint8:
		return append(b, strconvx.FormatUint(uint64(x), 10)...)
	case uint16:
		return append(b, strconvx.FormatUint(uint64(x), 10)...)
	case uint32:
		return append(b, strconvx.FormatUint(uint64(x), 10)...)
	case uint64:
		return append(b, strconvx.FormatUint(x, 10)...)
	case float32:
		return append(b, strconvx.TrimFloat(float64(x), 3)...)
	case float64:
		return append(b, strconvx.TrimFloat(x, 3)...)
	case interface{ String() string }:
		return append(b, x.String()...)
	case error:
		return append(b, x.Error()...)
	case nil:
		return append(b, "nil"...)
	default:
		return append(b, "<?>"...)
	}
}
