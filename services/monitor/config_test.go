//go:build !(rp2040 || rp2350)

package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentrycode-go/errcode"
)

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv(func(string) string { return "" })
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", c.Port)
	assert.Equal(t, 9600, c.Baud)
	assert.Equal(t, 500*time.Millisecond, c.ReadTimeout)
	assert.Equal(t, "sentry/telemetry", c.Topic)
	assert.Empty(t, c.Broker)
}

func TestFromEnvRejects(t *testing.T) {
	for key, v := range map[string]string{
		EnvBaud:     "fast",
		EnvTimeout:  "-1s",
		EnvCmdRate:  "0",
		EnvCmdBurst: "0",
	} {
		_, err := FromEnv(func(k string) string {
			if k == key {
				return v
			}
			return ""
		})
		assert.Equal(t, errcode.InvalidParams, errcode.Of(err), key)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"LINKMON_PORT=/dev/ttyACM7\nLINKMON_BAUD=115200\nLINKMON_MQTT_BROKER=tcp://broker:1883\n",
	), 0o644))
	t.Setenv(EnvBaud, "57600")

	c, err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM7", c.Port)
	assert.Equal(t, 57600, c.Baud)
	assert.Equal(t, "tcp://broker:1883", c.Broker)
}
