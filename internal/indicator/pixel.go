package indicator

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

const statusLevel = 0x10

var (
	Black      = Color{}
	Connecting = Color{B: statusLevel}
	Starting   = Color{G: statusLevel}

	OpenColor   = Color{R: 30}
	ClosedColor = Color{R: 30, G: 30}
)

// Blend mixes from a to b, f in [0, 1].
func Blend(a, b Color, f float64) Color {
	switch {
	case f < 0:
		f = 0
	case f > 1:
		f = 1
	}
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*f)
	}
	return Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

// Pixel is a single status light.
type Pixel interface {
	SetColor(Color) error
}

// LogPixel shows colors in the log, for hosts without a status light.
type LogPixel struct {
	Name string
}

func (p LogPixel) SetColor(c Color) error {
	logrus.Debugf("%s: indicator %s", p.Name, c)
	return nil
}
