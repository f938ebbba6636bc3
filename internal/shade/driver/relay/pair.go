package relay

import (
	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/sirupsen/logrus"
)

const DefaultSettle clock.Millis = 8

// Pair drives the direction and enable lines of one actuator. The direction
// line is only ever switched while enable is released, and only once enable
// has been released for the settle time.
type Pair struct {
	direction *Output
	enable    *Output
	settle    clock.Millis

	wantDirection bool
	wantEnable    bool

	// quietAt is the earliest time the direction line may change.
	quietAt clock.Millis
	// readyAt is the earliest time enable may be asserted.
	readyAt clock.Millis
}

func NewPair(direction, enable *Output, settle clock.Millis) *Pair {
	return &Pair{
		direction:     direction,
		enable:        enable,
		settle:        settle,
		wantDirection: direction.Level(),
		wantEnable:    enable.Level(),
	}
}

// Program requests new levels and moves the lines towards them right away.
// Steps that have to wait for the settle time land in later Update calls.
func (p *Pair) Program(now clock.Millis, direction, enable bool) {
	if p.wantDirection == direction && p.wantEnable == enable {
		return
	}

	p.wantDirection = direction
	p.wantEnable = enable
	logrus.Debugf("relays programmed: direction=%t enable=%t", direction, enable)

	p.Update(now)
}

// Update takes at most one step towards the requested levels. A failed
// write is retried on the next call.
func (p *Pair) Update(now clock.Millis) {
	switch {
	case p.enable.Level() && (!p.wantEnable || p.direction.Level() != p.wantDirection):
		// the actuator drops out before anything else changes
		if p.enable.Set(false) == nil {
			p.quietAt = now + p.settle
		}
	case p.direction.Level() != p.wantDirection:
		if now < p.quietAt {
			return
		}
		if p.direction.Set(p.wantDirection) == nil {
			p.readyAt = now + p.settle
		}
	case p.wantEnable && !p.enable.Level():
		if now < p.readyAt {
			return
		}
		p.enable.Set(true)
	}
}

// Settled reports whether the lines carry the requested levels.
func (p *Pair) Settled() bool {
	return p.direction.Level() == p.wantDirection && p.enable.Level() == p.wantEnable
}

func (p *Pair) Direction() bool {
	return p.direction.Level()
}

func (p *Pair) Enable() bool {
	return p.enable.Level()
}
