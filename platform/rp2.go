//go:build rp2040 || rp2350

package platform

import (
	"device/rp"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"sentrycode-go/errcode"
	"sentrycode-go/services/config"
	"sentrycode-go/types"
	"sentrycode-go/x/timex"
)

// Tone and colour PWM carrier.
const pwmPeriodNs = 1e9 / 1000

// ---- GPIO ----

type rp2Out struct{ p machine.Pin }

func newOut(n int) rp2Out {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return rp2Out{p: p}
}

func (o rp2Out) High() { o.p.High() }
func (o rp2Out) Low()  { o.p.Low() }

// rp2Echo times a pulse on the echo pin by polling. The wait for the
// leading edge and the pulse itself share one timeout.
type rp2Echo struct{ p machine.Pin }

func (e rp2Echo) PulseIn(high bool, timeout time.Duration) time.Duration {
	return pulseWidth(e.p.Get, time.Now, high, timeout)
}

// ---- PWM ----

// Local interface to avoid depending on an unexported concrete type in machine.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Top() uint32
	Set(channel uint8, value uint32)
}

func pwmGroupBySlice(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

// rp2Duty drives one PWM channel with an 8-bit duty.
type rp2Duty struct {
	ctrl  pwmCtrl
	slice uint8
	ch    uint8
	top   uint32
}

func newDuty(n int) (*rp2Duty, error) {
	pin := machine.Pin(n)
	slice, err := machine.PWMPeripheral(pin)
	if err != nil {
		return nil, errcode.Wrap(errcode.UnknownPin, "pwm", err)
	}
	ctrl := pwmGroupBySlice(slice)
	// Pins sharing a slice share the period; configuring twice is harmless.
	if err := ctrl.Configure(machine.PWMConfig{Period: pwmPeriodNs}); err != nil {
		return nil, errcode.Wrap(errcode.Unsupported, "pwm", err)
	}
	pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	d := &rp2Duty{ctrl: ctrl, slice: slice, ch: uint8(n & 1), top: ctrl.Top()}
	d.Set(0)
	return d, nil
}

func (d *rp2Duty) Set(duty uint8) { d.ctrl.Set(d.ch, uint32(duty)*d.top/255) }

// ---- UART ----

type rp2Serial struct{ u *uartx.UART }

func (s *rp2Serial) Buffered() int                { return s.u.Buffered() }
func (s *rp2Serial) Read(b []byte) (int, error)  { return s.u.Read(b) }
func (s *rp2Serial) Write(b []byte) (int, error) { return s.u.Write(b) }

// ---- Power ----

// rp2Halter parks the loop until a motion token or the bound elapses.
// The scheduler idles the core while blocked.
type rp2Halter struct{}

func (rp2Halter) Halt(wake <-chan struct{}, max time.Duration) types.WakeSource {
	t := time.NewTimer(max)
	defer t.Stop()
	select {
	case <-wake:
		return types.WakeMotion
	case <-t.C:
		return types.WakeWatchdog
	}
}

type rp2Watchdog struct{}

func (rp2Watchdog) Configure(d time.Duration) error {
	return machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: uint32(d / time.Millisecond)})
}
func (rp2Watchdog) Start() error { return machine.Watchdog.Start() }
func (rp2Watchdog) Update()      { machine.Watchdog.Update() }

// Open claims the pins named in cfg and returns the Pico board.
func Open(cfg config.Config) (*Board, error) {
	p := cfg.Pins
	b := &Board{
		Name:     BoardName,
		Clock:    timex.NewSystem(),
		Trigger:  newOut(p.Trigger),
		Buzzer:   newOut(p.Buzzer),
		Halter:   rp2Halter{},
		Watchdog: rp2Watchdog{},
	}

	echo := machine.Pin(p.Echo)
	echo.Configure(machine.PinConfig{Mode: machine.PinInput})
	b.Echo = rp2Echo{p: echo}

	// The indicator is dark during deep sleep, so its slices stop with the
	// ADC clock. Slices nothing configured are never enabled.
	var slices uint32
	duties := make([]*rp2Duty, 0, 3)
	for _, n := range []int{p.Red, p.Green, p.Blue} {
		d, err := newDuty(n)
		if err != nil {
			return nil, err
		}
		duties = append(duties, d)
		slices |= 1 << d.slice
	}
	b.Red, b.Green, b.Blue = duties[0], duties[1], duties[2]
	b.Peripherals = append(b.Peripherals, newClockGate("rp2").
		add(&rp.CLOCKS.CLK_ADC_CTRL, rp.CLOCKS_CLK_ADC_CTRL_ENABLE).
		add(&rp.PWM.EN, slices))

	machine.InitADC()
	adc := machine.ADC{Pin: machine.Pin(p.Battery)}
	adc.Configure(machine.ADCConfig{})
	b.BatteryADC = adc

	_ = uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: p.UARTBaud,
		TX:       machine.Pin(p.UARTTx),
		RX:       machine.Pin(p.UARTRx),
	})
	b.Serial = &rp2Serial{u: uartx.UART0}

	if p.I2CSDA >= 0 && p.I2CSCL >= 0 {
		sda, scl := machine.Pin(p.I2CSDA), machine.Pin(p.I2CSCL)
		sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
		scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
		if err := machine.I2C0.Configure(machine.I2CConfig{SDA: sda, SCL: scl, Frequency: 100_000}); err == nil {
			b.I2C = machine.I2C0
		}
	}

	motion := machine.Pin(p.Motion)
	motion.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	b.AttachMotion = func(isr func()) error {
		return motion.SetInterrupt(machine.PinRising, func(machine.Pin) { isr() })
	}
	return b, nil
}
