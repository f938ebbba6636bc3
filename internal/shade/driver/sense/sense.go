// Package sense reads the raw state of the shade's switch and presence inputs.
package sense

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
	"github.com/stianeikeland/go-rpio/v4"
)

// Mcp23017Input is an expander pin configured as input.
type Mcp23017Input struct {
	device *mcp23017.Device
	pin    uint8
}

func NewMcp23017Input(device *mcp23017.Device, pin uint8) (*Mcp23017Input, error) {
	if err := device.PinMode(pin, mcp23017.INPUT); err != nil {
		return nil, errors.Wrapf(err, "mcp23017: pin %d input mode", pin)
	}

	return &Mcp23017Input{device: device, pin: pin}, nil
}

// Read reports the electrical level, true for high.
func (m *Mcp23017Input) Read() (bool, error) {
	level, err := m.device.DigitalRead(m.pin)
	if err != nil {
		return false, err
	}
	return level == mcp23017.HIGH, nil
}

// RpioInput is a Raspberry Pi header pin with the internal pull-up enabled.
type RpioInput struct {
	pin rpio.Pin
}

func NewRpioInput(pin int) *RpioInput {
	p := rpio.Pin(pin)
	p.Input()
	p.PullUp()
	return &RpioInput{pin: p}
}

func (r *RpioInput) Read() (bool, error) {
	return r.pin.Read() == rpio.High, nil
}

// IIOChannel reads a raw ADC channel exposed by the Linux industrial I/O subsystem,
// e.g. /sys/bus/iio/devices/iio:device0/in_voltage1_raw.
type IIOChannel struct {
	Path string
}

func (c *IIOChannel) Read() (int, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return 0, errors.Wrap(err, "iio: read channel")
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrapf(err, "iio: %s", c.Path)
	}
	return v, nil
}
