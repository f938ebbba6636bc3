package relay

import (
	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
	"github.com/stianeikeland/go-rpio/v4"
)

type Mcp23017Pin struct {
	device *mcp23017.Device
	pin    uint8
}

func NewMcp23017Pin(device *mcp23017.Device, pin uint8) (p *Mcp23017Pin, err error) {
	p = &Mcp23017Pin{}
	p.device = device
	p.pin = pin
	err = p.device.PinMode(pin, mcp23017.OUTPUT)
	return p, errors.Wrapf(err, "mcp23017: pin %d output mode", pin)
}

func (m *Mcp23017Pin) High() error {
	return m.device.DigitalWrite(m.pin, mcp23017.HIGH)
}

func (m *Mcp23017Pin) Low() error {
	return m.device.DigitalWrite(m.pin, mcp23017.LOW)
}

// RpioPin is a Raspberry Pi header pin driven through /dev/gpiomem.
// rpio.Open has to be called before.
type RpioPin struct {
	pin rpio.Pin
}

func NewRpioPin(pin int) *RpioPin {
	p := rpio.Pin(pin)
	p.Output()
	return &RpioPin{pin: p}
}

func (r *RpioPin) High() error {
	r.pin.High()
	return nil
}

func (r *RpioPin) Low() error {
	r.pin.Low()
	return nil
}
