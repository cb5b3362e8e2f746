//go:build !(rp2040 || rp2350)

package monitor

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goburrow/serial"
)

// OpenSerial opens the BLE-UART bridge as 8N1 at cfg.Baud.
func OpenSerial(cfg Config) (serial.Port, error) {
	p, err := serial.Open(&serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.Baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	return p, nil
}

// SerialTimeout marks read timeouts as transient for Monitor.Receive.
func SerialTimeout(err error) bool { return errors.Is(err, serial.ErrTimeout) }

// MQTT publishes envelopes to a broker.
type MQTT struct {
	c       mqtt.Client
	qos     byte
	timeout time.Duration
}

// DialMQTT connects to cfg.Broker with auto-reconnect.
func DialMQTT(cfg Config, session string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	id := cfg.ClientID
	if id == "" {
		id = "linkmon-" + session[:8]
	}
	opts.SetClientID(id)
	if cfg.User != "" {
		opts.SetUsername(cfg.User)
	}
	if cfg.Pass != "" {
		opts.SetPassword(cfg.Pass)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	c := mqtt.NewClient(opts)
	if tok := c.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, tok.Error())
	}
	return &MQTT{c: c, qos: 1, timeout: 5 * time.Second}, nil
}

func (m *MQTT) Publish(topic string, payload []byte) error {
	tok := m.c.Publish(topic, m.qos, false, payload)
	if !tok.WaitTimeout(m.timeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (m *MQTT) Close() { m.c.Disconnect(250) }
