package shade

import (
	"math"

	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/jkaflik/shade2mqtt/internal/shade/input"
	"github.com/sirupsen/logrus"
)

const DefaultEndStopGrace clock.Millis = 500

// Relays is the sequenced direction/enable pair the controller drives.
type Relays interface {
	Program(now clock.Millis, direction, enable bool)
	Update(now clock.Millis)
}

type Config struct {
	Name string

	OpenTime  clock.Millis
	CloseTime clock.Millis
	// EndStopGrace extends moves to 0 or 100 so the actuator hits its mechanical stop.
	EndStopGrace clock.Millis

	Policy DrivePolicy
}

// Inputs are the debounced physical command sources. Nil inputs are never pressed.
type Inputs struct {
	LocalOpen  *input.Debounced
	LocalClose *input.Debounced
	UserOpen   *input.Debounced
	UserClose  *input.Debounced
}

type remoteCommand struct {
	target    float64
	direction Direction
	deadline  clock.Millis
	started   bool
}

// Controller is the shade state machine. It is not safe for concurrent use;
// Runner serializes access to it.
type Controller struct {
	cfg       Config
	inputs    Inputs
	relays    Relays
	reporter  *Reporter
	estimator Estimator

	state  State
	intent Intent
	remote *remoteCommand
	hold   bool
	manual bool

	started    bool
	last       clock.Millis
	lastMotion clock.Millis
}

func NewController(cfg Config, inputs Inputs, relays Relays, reporter *Reporter) *Controller {
	for _, in := range []**input.Debounced{&inputs.LocalOpen, &inputs.LocalClose, &inputs.UserOpen, &inputs.UserClose} {
		if *in == nil {
			*in = input.NewDebounced(nil, 0)
		}
	}

	return &Controller{
		cfg:       cfg,
		inputs:    inputs,
		relays:    relays,
		reporter:  reporter,
		estimator: NewEstimator(cfg.OpenTime, cfg.CloseTime),
	}
}

func (c *Controller) Name() string {
	return c.cfg.Name
}

func (c *Controller) Position() float64 {
	return c.estimator.Position
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Intent() Intent {
	return c.intent
}

func (c *Controller) Moving() bool {
	return c.state.Moving()
}

// LastMotion is the last tick the shade was seen moving.
func (c *Controller) LastMotion() clock.Millis {
	return c.lastMotion
}

func (c *Controller) Settled() Settled {
	return SettledAt(c.estimator.Position)
}

func (c *Controller) Status() Status {
	return Status{
		Position: c.estimator.Position,
		Phase:    PhaseOf(c.state.Direction),
		Settled:  c.Settled(),
		Manual:   c.manual,
	}
}

// Target returns the outstanding remote target, if any.
func (c *Controller) Target() (float64, bool) {
	if c.remote == nil {
		return 0, false
	}
	return c.remote.target, true
}

// SetTarget starts a remote move to target. While a physical source holds
// the shade the move is queued and starts once it is released.
func (c *Controller) SetTarget(now clock.Millis, target float64) {
	cmd := &remoteCommand{target: Clamp(target)}

	if c.state.Source.Physical() {
		logrus.Infof("%s: target %.1f queued behind %s", c.cfg.Name, cmd.target, c.state.Source)
		c.remote = cmd
		return
	}

	next, ok := c.plan(now, cmd)
	if !ok {
		logrus.Debugf("%s: already on a position %.1f", c.cfg.Name, cmd.target)
		c.remote = nil
		c.reporter.Expedite(now)
		return
	}

	c.remote = cmd
	c.transition(now, next)
}

// Hold stops a remote move on the next tick. Physical sources are not affected.
func (c *Controller) Hold() {
	c.hold = true
}

func (c *Controller) plan(now clock.Millis, cmd *remoteCommand) (State, bool) {
	move := cmd.target - c.estimator.Position

	switch {
	case move > 0:
		cmd.direction = Opening
	case move < 0:
		cmd.direction = Closing
	case cmd.target == FullOpenPosition:
		cmd.direction = Opening
	case cmd.target == FullClosePosition:
		cmd.direction = Closing
	default:
		return Stopped, false
	}

	duration := clock.Millis(math.Abs(move) / FullScale * float64(c.estimator.TravelTime(cmd.direction)))
	if cmd.target == FullOpenPosition || cmd.target == FullClosePosition {
		duration += c.cfg.EndStopGrace
	}

	cmd.deadline = now + duration
	cmd.started = true

	logrus.Infof("%s: move from %.1f to %.1f over %s", c.cfg.Name, c.estimator.Position, cmd.target, duration.Duration())

	return State{Direction: cmd.direction, Source: SourceRemote}, true
}

// Tick runs one pass of the control loop.
func (c *Controller) Tick(now clock.Millis) {
	if !c.started {
		c.started = true
		c.last = now
		c.lastMotion = now
		return
	}
	if now <= c.last {
		return
	}

	if c.state.Moving() {
		c.estimator.Advance(c.state.Direction, now-c.last)
		c.lastMotion = now
	}

	if c.hold {
		c.hold = false
		if c.remote != nil {
			logrus.Infof("%s: hold at %.1f", c.cfg.Name, c.estimator.Position)
			c.remote = nil
			c.reporter.Expedite(now)
		}
	}

	if c.remote != nil && c.remote.started && now >= c.remote.deadline {
		logrus.Infof("%s: target %.1f reached", c.cfg.Name, c.remote.target)
		c.estimator.Position = c.remote.target
		c.remote = nil
		c.reporter.Expedite(now)
	}

	if next := c.arbitrate(now); next != c.state {
		c.transition(now, next)
	}

	if intent := c.cfg.Policy.Intent(c.state); intent != c.intent {
		logrus.Debugf("%s: output %s", c.cfg.Name, intent)
		direction, enable := intent.Levels()
		c.relays.Program(now, direction, enable)
		c.intent = intent
	}
	c.relays.Update(now)

	c.reporter.Tick(now, c.Status())
	if c.state.Moving() {
		c.lastMotion = now
		c.reporter.Arm(now)
	}

	c.last = now
}

func (c *Controller) arbitrate(now clock.Millis) State {
	userOpen := c.inputs.UserOpen.Sample(now)
	userClose := c.inputs.UserClose.Sample(now)
	localOpen := c.inputs.LocalOpen.Sample(now)
	localClose := c.inputs.LocalClose.Sample(now)

	var physical State
	switch {
	case userOpen:
		physical = State{Direction: Opening, Source: SourceUserSense}
	case userClose:
		physical = State{Direction: Closing, Source: SourceUserSense}
	case localOpen:
		physical = State{Direction: Opening, Source: SourceLocalSwitch}
	case localClose:
		physical = State{Direction: Closing, Source: SourceLocalSwitch}
	}

	if physical.Moving() {
		if c.remote != nil && c.remote.started {
			logrus.Infof("%s: target %.1f abandoned for %s", c.cfg.Name, c.remote.target, physical.Source)
			c.remote = nil
		}
		return physical
	}

	if c.remote == nil {
		return Stopped
	}
	if !c.remote.started {
		next, ok := c.plan(now, c.remote)
		if !ok {
			c.remote = nil
			c.reporter.Expedite(now)
		}
		return next
	}

	return State{Direction: c.remote.direction, Source: SourceRemote}
}

func (c *Controller) transition(now clock.Millis, next State) {
	logrus.Infof("%s: %s -> %s at %.1f", c.cfg.Name, c.state, next, c.estimator.Position)

	switch {
	case next.Source.Physical():
		c.manual = true
	case next.Source == SourceRemote:
		c.manual = false
	}

	c.state = next
	c.reporter.Arm(now)
}

// Release drops the remote command and programs the relays idle, for shutdown.
// The relay pair still needs Flush calls to finish its settle steps.
func (c *Controller) Release(now clock.Millis) {
	c.remote = nil
	c.state = Stopped
	c.intent = IntentIdle
	c.relays.Program(now, false, false)
	c.relays.Update(now)
}

// Flush lets the relay pair finish pending steps without running the state machine.
func (c *Controller) Flush(now clock.Millis) {
	c.relays.Update(now)
}

// Report publishes the current status right away, bypassing the reporter deadline.
func (c *Controller) Report() {
	c.reporter.Publish(c.Status())
}

// Refresh makes the next report resend everything and schedules it soon.
func (c *Controller) Refresh(now clock.Millis) {
	c.reporter.Forget()
	c.reporter.Expedite(now)
}
