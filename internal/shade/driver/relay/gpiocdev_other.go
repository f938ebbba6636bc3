//go:build !linux

package relay

import "github.com/pkg/errors"

type GpiocdevLine struct{}

func NewGpiocdevLine(chip string, offset int) (*GpiocdevLine, error) {
	return nil, errors.New("gpiocdev: not supported on this platform (requires Linux)")
}

func (g *GpiocdevLine) High() error {
	return errors.New("gpiocdev: not supported")
}

func (g *GpiocdevLine) Low() error {
	return errors.New("gpiocdev: not supported")
}

func (g *GpiocdevLine) Close() error {
	return nil
}
