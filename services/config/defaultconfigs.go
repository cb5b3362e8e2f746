package config

// -----------------------------------------------------------------------------
// Embedded board overrides
//
// Key: board name (selected by build tags in package platform).
// Val: raw JSON merged over Default().
// -----------------------------------------------------------------------------

// Pico: 3.3 V ADC reference, pins on the left header, AHT20 on I2C0.
const cfgPico = `{
  "battery": { "ref_volts": 3.3 },
  "pins": {
    "trigger": 2, "echo": 3, "motion": 6,
    "red": 10, "green": 11, "blue": 12,
    "buzzer": 15, "battery": 26,
    "uart_tx": 0, "uart_rx": 1, "uart_baud": 9600,
    "i2c_sda": 4, "i2c_scl": 5
  }
}`

// Bench build: verbose, never sleeps.
const cfgPicoBench = `{
  "battery": { "ref_volts": 3.3 },
  "pins": {
    "trigger": 2, "echo": 3, "motion": 6,
    "red": 10, "green": 11, "blue": 12,
    "buzzer": 15, "battery": 26,
    "uart_tx": 0, "uart_rx": 1, "uart_baud": 9600
  },
  "deep_sleep": false,
  "log_level": "debug"
}`

var embeddedConfigs = map[string][]byte{
	"pico":       []byte(cfgPico),
	"pico-bench": []byte(cfgPicoBench),
}

// EmbeddedConfigLookup allows overriding how board configs are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}
