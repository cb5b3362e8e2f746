//go:build !(rp2040 || rp2350)

// Package monitor is the host side of the detector's radio link: it reads
// telemetry off the BLE-UART bridge, sends commands at a bounded rate and
// can forward telemetry to an MQTT broker.
package monitor

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"sentrycode-go/errcode"
)

// Environment keys. A .env file supplies defaults; the process environment wins.
const (
	EnvPort     = "LINKMON_PORT"
	EnvBaud     = "LINKMON_BAUD"
	EnvTimeout  = "LINKMON_READ_TIMEOUT"
	EnvBroker   = "LINKMON_MQTT_BROKER"
	EnvTopic    = "LINKMON_MQTT_TOPIC"
	EnvClientID = "LINKMON_MQTT_CLIENT_ID"
	EnvUser     = "LINKMON_MQTT_USER"
	EnvPass     = "LINKMON_MQTT_PASS"
	EnvCmdRate  = "LINKMON_CMD_RATE"
	EnvCmdBurst = "LINKMON_CMD_BURST"
	EnvLogLevel = "LINKMON_LOG_LEVEL"
	EnvLogFile  = "LINKMON_LOG_FILE"
)

const (
	defaultTopic  = "sentry/telemetry"
	defaultPort   = "/dev/ttyUSB0"
	defaultBaud   = 9600
	defaultRate   = 2
	defaultBurst  = 2
	defaultReadTO = 500 * time.Millisecond
)

type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration

	Broker   string // empty: no forwarding
	Topic    string
	ClientID string
	User     string
	Pass     string

	CommandRate  float64 // per second
	CommandBurst int

	LogLevel string
	LogFile  string
}

// FromEnv resolves a Config through get, applying defaults.
func FromEnv(get func(string) string) (Config, error) {
	c := Config{
		Port:         or(get(EnvPort), defaultPort),
		Baud:         defaultBaud,
		ReadTimeout:  defaultReadTO,
		Broker:       get(EnvBroker),
		Topic:        or(get(EnvTopic), defaultTopic),
		ClientID:     get(EnvClientID),
		User:         get(EnvUser),
		Pass:         get(EnvPass),
		CommandRate:  defaultRate,
		CommandBurst: defaultBurst,
		LogLevel:     or(get(EnvLogLevel), "info"),
		LogFile:      get(EnvLogFile),
	}
	var err error
	if v := get(EnvBaud); v != "" {
		if c.Baud, err = strconv.Atoi(v); err != nil || c.Baud <= 0 {
			return c, invalid(EnvBaud, v)
		}
	}
	if v := get(EnvTimeout); v != "" {
		if c.ReadTimeout, err = time.ParseDuration(v); err != nil || c.ReadTimeout <= 0 {
			return c, invalid(EnvTimeout, v)
		}
	}
	if v := get(EnvCmdRate); v != "" {
		if c.CommandRate, err = strconv.ParseFloat(v, 64); err != nil || c.CommandRate <= 0 {
			return c, invalid(EnvCmdRate, v)
		}
	}
	if v := get(EnvCmdBurst); v != "" {
		if c.CommandBurst, err = strconv.Atoi(v); err != nil || c.CommandBurst < 1 {
			return c, invalid(EnvCmdBurst, v)
		}
	}
	return c, nil
}

// LoadEnv reads the given dotenv files (default ".env"; missing files are
// skipped) and resolves a Config with the process environment on top.
func LoadEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	vals := map[string]string{}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		m, err := godotenv.Read(f)
		if err != nil {
			return Config{}, errcode.Wrap(errcode.InvalidPayload, "dotenv", err)
		}
		for k, v := range m {
			vals[k] = v
		}
	}
	return FromEnv(func(k string) string {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
		return vals[k]
	})
}

func or(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

func invalid(key, v string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "monitor", Msg: key + "=" + v}
}
