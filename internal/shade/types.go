package shade

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	FullOpenPosition  = 100.0
	FullClosePosition = 0.0
	FullScale         = FullOpenPosition - FullClosePosition
)

type Direction int

const (
	DirectionNone Direction = iota
	Opening
	Closing
)

func (d Direction) String() string {
	switch d {
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	}
	return "none"
}

// Source is whoever asked for the current motion.
type Source int

const (
	SourceNone Source = iota
	SourceLocalSwitch
	SourceUserSense
	SourceRemote
)

func (s Source) String() string {
	switch s {
	case SourceLocalSwitch:
		return "local switch"
	case SourceUserSense:
		return "user sense"
	case SourceRemote:
		return "remote"
	}
	return "none"
}

// Physical reports whether the source is a hand on a switch or sensor.
func (s Source) Physical() bool {
	return s == SourceLocalSwitch || s == SourceUserSense
}

// State is the composite motion state. Direction is DirectionNone exactly
// when Source is SourceNone.
type State struct {
	Direction Direction
	Source    Source
}

var Stopped = State{}

func (s State) Moving() bool {
	return s.Direction != DirectionNone
}

func (s State) String() string {
	if !s.Moving() {
		return "stopped"
	}
	return s.Direction.String() + " (" + s.Source.String() + ")"
}

// Intent is what the relay pair is told to do.
type Intent int

const (
	IntentIdle Intent = iota
	IntentOpen
	IntentClose
)

func (i Intent) String() string {
	switch i {
	case IntentOpen:
		return "drive open"
	case IntentClose:
		return "drive close"
	}
	return "idle"
}

// Levels maps the intent onto the direction and enable lines.
func (i Intent) Levels() (direction, enable bool) {
	switch i {
	case IntentOpen:
		return false, true
	case IntentClose:
		return true, true
	}
	return false, false
}

// Phase is the motion indicator published to automation clients.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseOpening
	PhaseClosing
)

func PhaseOf(d Direction) Phase {
	switch d {
	case Opening:
		return PhaseOpening
	case Closing:
		return PhaseClosing
	}
	return PhaseStopped
}

func (p Phase) String() string {
	switch p {
	case PhaseOpening:
		return "opening"
	case PhaseClosing:
		return "closing"
	}
	return "stopped"
}

// Settled is the resting reading of a stopped shade.
type Settled int

const (
	SettledOpen Settled = iota
	SettledClosed
	SettledPartial
)

func SettledAt(position float64) Settled {
	switch {
	case position >= FullOpenPosition:
		return SettledOpen
	case position <= FullClosePosition:
		return SettledClosed
	}
	return SettledPartial
}

func (s Settled) String() string {
	switch s {
	case SettledOpen:
		return "open"
	case SettledClosed:
		return "closed"
	}
	return "partial"
}

// DrivePolicy selects which sources energize the actuator. Sources left
// out only track intent: the position estimate follows them but the relays
// stay idle.
type DrivePolicy struct {
	LocalSwitch bool
	UserSense   bool
	Remote      bool
}

var DefaultDrivePolicy = DrivePolicy{LocalSwitch: true, Remote: true}

func ParseDrivePolicy(s string) (DrivePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local_remote":
		return DefaultDrivePolicy, nil
	case "remote":
		return DrivePolicy{Remote: true}, nil
	case "all":
		return DrivePolicy{LocalSwitch: true, UserSense: true, Remote: true}, nil
	}
	return DrivePolicy{}, errors.Errorf("%q is not a supported drive policy (remote, local_remote, all)", s)
}

func (p DrivePolicy) Drives(s Source) bool {
	switch s {
	case SourceLocalSwitch:
		return p.LocalSwitch
	case SourceUserSense:
		return p.UserSense
	case SourceRemote:
		return p.Remote
	}
	return false
}

func (p DrivePolicy) Intent(s State) Intent {
	if !s.Moving() || !p.Drives(s.Source) {
		return IntentIdle
	}
	if s.Direction == Opening {
		return IntentOpen
	}
	return IntentClose
}
