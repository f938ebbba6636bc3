package relay

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Line is a single physical digital output.
type Line interface {
	High() error
	Low() error
}

// Output is a logical relay line. It skips redundant writes and keeps the
// last level the hardware accepted.
type Output struct {
	name      string
	line      Line
	activeLow bool

	level   bool
	known   bool
	lastErr string
}

// NewOutput drives the line inactive right away so the relay starts released.
func NewOutput(name string, line Line, activeLow bool) (*Output, error) {
	o := &Output{name: name, line: line, activeLow: activeLow}
	if err := o.Set(false); err != nil {
		return nil, errors.Wrapf(err, "%s: initial write failed", name)
	}

	return o, nil
}

func (o *Output) Name() string {
	return o.name
}

// Level is the logical level currently on the line.
func (o *Output) Level() bool {
	return o.level
}

// Set writes level to the line. On error the previous level is kept.
func (o *Output) Set(level bool) error {
	if o.known && o.level == level {
		return nil
	}

	var err error
	if level != o.activeLow {
		err = o.line.High()
	} else {
		err = o.line.Low()
	}
	if err != nil {
		if msg := err.Error(); msg != o.lastErr {
			logrus.Errorf("%s: relay write failed: %s", o.name, msg)
			o.lastErr = msg
		}
		return errors.Wrapf(err, "%s: relay write", o.name)
	}
	if o.lastErr != "" {
		logrus.Infof("%s: relay write recovered", o.name)
		o.lastErr = ""
	}

	logrus.Tracef("%s: relay %t", o.name, level)
	o.level = level
	o.known = true
	return nil
}

// Dumb is a Line without hardware behind it.
type Dumb struct {
	Name string

	isHigh bool
}

func (r *Dumb) High() error {
	logrus.Warnf("%s: dumb relay high", r.Name)
	r.isHigh = true
	return nil
}

func (r *Dumb) Low() error {
	logrus.Warnf("%s: dumb relay low", r.Name)
	r.isHigh = false
	return nil
}

func (r *Dumb) IsHigh() bool {
	return r.isHigh
}
