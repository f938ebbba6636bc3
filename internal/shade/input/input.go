package input

import (
	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/sirupsen/logrus"
)

const DefaultDebounce clock.Millis = 10

// DefaultAnalogThreshold is the raw ADC level above which a sense input counts as pressed.
const DefaultAnalogThreshold = 100

// Probe returns the raw, undebounced "pressed" reading of an input.
type Probe func() bool

// Never is the probe of an input that is not wired.
func Never() bool { return false }

// Debounced reports an input as held only once its probe stayed true for
// the whole debounce interval.
type Debounced struct {
	probe    Probe
	interval clock.Millis

	pressed   bool
	pressedAt clock.Millis
}

func NewDebounced(probe Probe, interval clock.Millis) *Debounced {
	if probe == nil {
		probe = Never
	}
	return &Debounced{probe: probe, interval: interval}
}

func (d *Debounced) Sample(now clock.Millis) bool {
	if !d.probe() {
		d.pressed = false
		return false
	}

	if !d.pressed {
		d.pressed = true
		d.pressedAt = now
		return false
	}

	return now-d.pressedAt >= d.interval
}

func Invert(p Probe) Probe {
	return func() bool { return !p() }
}

// Threshold turns an analog reading into a probe that is pressed above threshold.
func Threshold(name string, read func() (int, error), threshold int) Probe {
	r := &reader{name: name}
	return func() bool {
		v, err := read()
		if r.failed(err) {
			return false
		}
		return v > threshold
	}
}

// FromReader adapts a fallible digital read into a probe. Failed reads count as released.
func FromReader(name string, read func() (bool, error)) Probe {
	r := &reader{name: name}
	return func() bool {
		v, err := read()
		if r.failed(err) {
			return false
		}
		return v
	}
}

// reader logs each distinct read error once instead of on every tick.
type reader struct {
	name    string
	lastErr string
}

func (r *reader) failed(err error) bool {
	if err == nil {
		if r.lastErr != "" {
			logrus.Infof("%s: input read recovered", r.name)
			r.lastErr = ""
		}
		return false
	}

	if msg := err.Error(); msg != r.lastErr {
		logrus.Errorf("%s: input read failed: %s", r.name, msg)
		r.lastErr = msg
	}
	return true
}
