package shade

import (
	"context"
	"time"

	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTick = 5 * time.Millisecond

	releaseTime = 50 * time.Millisecond
)

// Indicator is polled every tick with the controller's visible state.
type Indicator interface {
	Update(now clock.Millis, state State, position float64, lastMotion clock.Millis)
}

// Remote is the command surface offered to automation bridges.
type Remote interface {
	SetTarget(target float64)
	Hold()
	Refresh()
}

// Runner owns a Controller and runs it on a single goroutine. Commands from
// other goroutines are queued and applied between ticks.
type Runner struct {
	controller *Controller
	clock      clock.Source
	tick       time.Duration
	indicator  Indicator

	commands chan func(now clock.Millis)
	done     chan struct{}
}

func NewRunner(controller *Controller, source clock.Source, tick time.Duration) *Runner {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Runner{
		controller: controller,
		clock:      source,
		tick:       tick,
		commands:   make(chan func(now clock.Millis), 16),
		done:       make(chan struct{}),
	}
}

func (r *Runner) WithIndicator(i Indicator) *Runner {
	r.indicator = i
	return r
}

func (r *Runner) SetTarget(target float64) {
	r.enqueue("set target", func(now clock.Millis) {
		r.controller.SetTarget(now, target)
	})
}

func (r *Runner) Hold() {
	r.enqueue("hold", func(clock.Millis) {
		r.controller.Hold()
	})
}

// Refresh republishes every reported value, e.g. after a broker reconnect.
func (r *Runner) Refresh() {
	r.enqueue("refresh", r.controller.Refresh)
}

func (r *Runner) enqueue(name string, cmd func(now clock.Millis)) {
	select {
	case r.commands <- cmd:
	case <-r.done:
		logrus.Warnf("%s: %s dropped, controller stopped", r.controller.Name(), name)
	}
}

// Run ticks the controller until ctx is done, then releases the relays.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	r.controller.Tick(r.clock.Now())
	r.controller.Report()
	logrus.Infof("%s: controller started at %.1f", r.controller.Name(), r.controller.Position())

	for {
		select {
		case <-ctx.Done():
			r.release(ticker)
			return
		case cmd := <-r.commands:
			cmd(r.clock.Now())
		case <-ticker.C:
			now := r.clock.Now()
			r.controller.Tick(now)
			if r.indicator != nil {
				r.indicator.Update(now, r.controller.State(), r.controller.Position(), r.controller.LastMotion())
			}
		}
	}
}

// release drives the relays idle and keeps ticking the pair until its
// settle steps have landed.
func (r *Runner) release(ticker *time.Ticker) {
	logrus.Infof("%s: releasing relays", r.controller.Name())
	r.controller.Release(r.clock.Now())

	deadline := time.NewTimer(releaseTime)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			r.controller.Report()
			return
		case <-ticker.C:
			r.controller.Flush(r.clock.Now())
		}
	}
}
