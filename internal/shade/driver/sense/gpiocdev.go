//go:build linux

package sense

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// GpiocdevInput is an input line with pull-up bias.
type GpiocdevInput struct {
	line *gpiocdev.Line
}

func NewGpiocdevInput(chip string, offset int) (*GpiocdevInput, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithConsumer("shade2mqtt"))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: request input line %d", chip, offset)
	}

	return &GpiocdevInput{line: l}, nil
}

func (g *GpiocdevInput) Read() (bool, error) {
	v, err := g.line.Value()
	if err != nil {
		return false, errors.Wrap(err, "read input line")
	}
	return v == 1, nil
}

func (g *GpiocdevInput) Close() error {
	return g.line.Close()
}
