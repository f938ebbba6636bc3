package homekit

import (
	"context"
	"math"

	"github.com/brutella/hc"
	"github.com/brutella/hc/accessory"
	"github.com/brutella/hc/characteristic"
	"github.com/brutella/hc/service"
	"github.com/jkaflik/shade2mqtt/internal/shade"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Name         string
	Pin          string
	StoragePath  string
	Manufacturer string
	Model        string
}

// Accessory is a HomeKit window covering bound to a shade. It implements
// shade.Sink.
type Accessory struct {
	*accessory.Accessory

	name   string
	cfg    Config
	remote shade.Remote

	covering *service.WindowCovering
	hold     *characteristic.HoldPosition
}

func NewAccessory(cfg Config, remote shade.Remote) *Accessory {
	info := accessory.Info{
		Name:         cfg.Name,
		Manufacturer: cfg.Manufacturer,
		Model:        cfg.Model,
	}

	a := &Accessory{
		Accessory: accessory.New(info, accessory.TypeWindowCovering),
		name:      cfg.Name,
		cfg:       cfg,
		remote:    remote,
		covering:  service.NewWindowCovering(),
		hold:      characteristic.NewHoldPosition(),
	}

	a.covering.CurrentPosition.SetValue(int(shade.FullOpenPosition))
	a.covering.TargetPosition.SetValue(int(shade.FullOpenPosition))
	a.covering.PositionState.SetValue(characteristic.PositionStateStopped)
	a.covering.AddCharacteristic(a.hold.Characteristic)
	a.AddService(a.covering.Service)

	a.covering.TargetPosition.OnValueRemoteUpdate(a.onTarget)
	a.hold.OnValueRemoteUpdate(a.onHold)

	return a
}

func (a *Accessory) onTarget(target int) {
	logrus.Infof("%s: HomeKit target %d", a.name, target)
	a.remote.SetTarget(float64(target))
}

func (a *Accessory) onHold(hold bool) {
	if !hold {
		return
	}
	logrus.Infof("%s: HomeKit hold", a.name)
	a.remote.Hold()
}

func (a *Accessory) PublishPosition(position float64) {
	a.covering.CurrentPosition.SetValue(percent(position))
}

func (a *Accessory) PublishTarget(position float64) {
	a.covering.TargetPosition.SetValue(percent(position))
}

func (a *Accessory) PublishPhase(phase shade.Phase, _ shade.Settled) {
	a.covering.PositionState.SetValue(positionState(phase))
	if phase == shade.PhaseStopped {
		a.hold.SetValue(false)
	}
}

func positionState(phase shade.Phase) int {
	switch phase {
	case shade.PhaseOpening:
		return characteristic.PositionStateIncreasing
	case shade.PhaseClosing:
		return characteristic.PositionStateDecreasing
	}
	return characteristic.PositionStateStopped
}

func percent(position float64) int {
	return int(math.Round(shade.Clamp(position)))
}

// Start publishes the accessory on the local network until ctx is done.
func (a *Accessory) Start(ctx context.Context) error {
	t, err := hc.NewIPTransport(hc.Config{Pin: a.cfg.Pin, StoragePath: a.cfg.StoragePath}, a.Accessory)
	if err != nil {
		return errors.Wrapf(err, "%s: HomeKit transport failed", a.name)
	}

	go func() {
		<-ctx.Done()
		<-t.Stop()
		logrus.Infof("%s: HomeKit transport stopped", a.name)
	}()

	go t.Start()
	logrus.Infof("%s: HomeKit accessory published", a.name)

	return nil
}
