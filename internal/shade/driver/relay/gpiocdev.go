//go:build linux

package relay

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// GpiocdevLine is an output line requested from the Linux GPIO character device.
type GpiocdevLine struct {
	line *gpiocdev.Line
}

func NewGpiocdevLine(chip string, offset int) (*GpiocdevLine, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("shade2mqtt"))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: request output line %d", chip, offset)
	}

	return &GpiocdevLine{line: l}, nil
}

func (g *GpiocdevLine) High() error {
	return g.line.SetValue(1)
}

func (g *GpiocdevLine) Low() error {
	return g.line.SetValue(0)
}

// Close leaves the line as an input so the relay board falls back to its pull resistors.
func (g *GpiocdevLine) Close() error {
	if err := g.line.Reconfigure(gpiocdev.AsInput); err != nil {
		g.line.Close()
		return errors.Wrap(err, "reconfigure output line")
	}
	return g.line.Close()
}
