//go:build !linux

package sense

import "github.com/pkg/errors"

type GpiocdevInput struct{}

func NewGpiocdevInput(chip string, offset int) (*GpiocdevInput, error) {
	return nil, errors.New("gpiocdev: not supported on this platform (requires Linux)")
}

func (g *GpiocdevInput) Read() (bool, error) {
	return false, errors.New("gpiocdev: not supported")
}

func (g *GpiocdevInput) Close() error {
	return nil
}
