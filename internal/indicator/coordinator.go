package indicator

import (
	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/jkaflik/shade2mqtt/internal/shade"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout clock.Millis = 10000

	connectingPeriod clock.Millis = 600
	connectingOn     clock.Millis = 200
	movingPeriod     clock.Millis = 200
	movingBlank      clock.Millis = 30
)

// Coordinator picks the status light color from connectivity and shade state.
type Coordinator struct {
	pixel        Pixel
	connectivity *Connectivity
	timeout      clock.Millis

	current Color
	shown   bool
}

func NewCoordinator(pixel Pixel, connectivity *Connectivity, timeout clock.Millis) *Coordinator {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if connectivity == nil {
		connectivity = &Connectivity{}
	}
	return &Coordinator{pixel: pixel, connectivity: connectivity, timeout: timeout}
}

// Color returns the color for the given moment without showing it.
func (c *Coordinator) Color(now clock.Millis, state shade.State, position float64, lastMotion clock.Millis) Color {
	switch {
	case !c.connectivity.Ready() && now%connectingPeriod < connectingOn:
		return Connecting
	case state.Moving() && now%movingPeriod < movingBlank:
		return Black
	case !state.Moving() && now-lastMotion >= c.timeout:
		return Black
	}
	closed := (shade.FullOpenPosition - shade.Clamp(position)) / shade.FullScale
	return Blend(OpenColor, ClosedColor, closed)
}

// Update implements shade.Indicator. Only color changes reach the pixel.
func (c *Coordinator) Update(now clock.Millis, state shade.State, position float64, lastMotion clock.Millis) {
	c.show(c.Color(now, state, position, lastMotion))
}

// Start shows the start color until the first update.
func (c *Coordinator) Start() {
	c.show(Starting)
}

func (c *Coordinator) show(color Color) {
	if c.shown && color == c.current {
		return
	}
	if err := c.pixel.SetColor(color); err != nil {
		logrus.Errorf("indicator: set color %s failed: %s", color, err)
		return
	}
	c.current = color
	c.shown = true
}
