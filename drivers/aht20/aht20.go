// Package aht20 reads an AHT20 temperature/humidity sensor over I2C.
//
// The detector uses it only for the optional ambient temperature field, so
// the driver offers one blocking call, Read, bounded by CollectTimeout.
// Results are fixed point: tenths of a degree and tenths of a percent.
//
// I2C.Tx MUST perform a write followed by a repeated-start read when both w
// and r are provided, without releasing the bus.
package aht20

import (
	"time"

	"tinygo.org/x/drivers"

	"sentrycode-go/errcode"
	"sentrycode-go/types"
	"sentrycode-go/x/timex"
)

const Address = 0x38

const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08
)

type Config struct {
	Address        uint16        // default 0x38
	ConversionTime time.Duration // wait after trigger, default 80 ms
	PollInterval   time.Duration // default 15 ms
	CollectTimeout time.Duration // default 250 ms
}

type Device struct {
	bus   drivers.I2C
	clock timex.Clock
	cfg   Config
	buf   [7]byte
}

func New(bus drivers.I2C, clock timex.Clock, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.ConversionTime <= 0 {
		cfg.ConversionTime = 80 * time.Millisecond
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Millisecond
	}
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = 250 * time.Millisecond
	}
	return &Device{bus: bus, clock: clock, cfg: cfg}
}

// Configure calibrates the sensor unless it already reports calibrated.
func (d *Device) Configure() error {
	st, err := d.status()
	if err == nil && st&statusCalibrated != 0 {
		return nil
	}
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return errcode.Wrap(errcode.NoSensor, "aht20", err)
	}
	d.clock.Delay(10 * time.Millisecond)
	return nil
}

// Reset issues a soft reset; allow ~20 ms before the next command.
func (d *Device) Reset() error {
	return d.bus.Tx(d.cfg.Address, []byte{cmdSoftReset}, nil)
}

func (d *Device) status() (byte, error) {
	d.buf[0] = 0
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdStatus}, d.buf[:1]); err != nil {
		return 0, err
	}
	return d.buf[0], nil
}

// Read triggers a conversion and polls until the sample is ready.
func (d *Device) Read() (types.AmbientValue, error) {
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdTrigger, 0x33, 0x00}, nil); err != nil {
		return types.AmbientValue{}, errcode.Wrap(errcode.NoSensor, "aht20", err)
	}
	d.clock.Delay(d.cfg.ConversionTime)

	var waited time.Duration
	for {
		if err := d.bus.Tx(d.cfg.Address, nil, d.buf[:]); err != nil {
			return types.AmbientValue{}, errcode.Wrap(errcode.NoSensor, "aht20", err)
		}
		if d.buf[0]&statusBusy == 0 && d.buf[0]&statusCalibrated != 0 {
			return decode(d.buf[:]), nil
		}
		if waited >= d.cfg.CollectTimeout {
			return types.AmbientValue{}, errcode.Timeout
		}
		d.clock.Delay(d.cfg.PollInterval)
		waited += d.cfg.PollInterval
	}
}

// decode converts the 20-bit raw fields: RH = raw/2^20*100,
// T = raw/2^20*200-50, both in tenths.
func decode(b []byte) types.AmbientValue {
	hraw := uint32(b[1])<<12 | uint32(b[2])<<4 | uint32(b[3])>>4
	traw := uint32(b[3]&0x0F)<<16 | uint32(b[4])<<8 | uint32(b[5])
	return types.AmbientValue{
		DeciRH: uint16((uint64(hraw) * 1000) >> 20),
		DeciC:  int16(int32((uint64(traw)*2000)>>20) - 500),
	}
}
