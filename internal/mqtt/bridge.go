package mqtt

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/jkaflik/shade2mqtt/internal/shade"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	mqttOpenCmd  = "open"
	mqttCloseCmd = "close"
	mqttStopCmd  = "stop"

	mqttOnline  = "online"
	MQTTOffline = "offline"

	stateOpening = "opening"
	stateClosing = "closing"
	stateOpen    = "open"
	stateClosed  = "closed"
	stateStopped = "stopped"
)

// Client is the part of paho.Client the bridge uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

// Bridge exposes one shade on MQTT. It implements shade.Sink; publishes
// don't wait for the broker so the control loop never blocks on it.
type Bridge struct {
	mqtt   Client
	name   string
	remote shade.Remote

	StateTopic        string
	PositionTopic     string
	TargetTopic       string
	MetadataTopic     string
	AvailabilityTopic string

	CommandTopic        string
	PositionChangeTopic string
}

func NewBridge(client Client, name string, remote shade.Remote) *Bridge {
	bridge := &Bridge{mqtt: client, name: name, remote: remote}
	bridge.StateTopic = fmt.Sprintf("shade2mqtt/%s/state", name)
	bridge.PositionTopic = fmt.Sprintf("shade2mqtt/%s/position", name)
	bridge.TargetTopic = fmt.Sprintf("shade2mqtt/%s/target", name)
	bridge.MetadataTopic = fmt.Sprintf("shade2mqtt/%s/metadata", name)
	bridge.AvailabilityTopic = AvailabilityTopic(name)
	bridge.CommandTopic = fmt.Sprintf("shade2mqtt/%s/set", name)
	bridge.PositionChangeTopic = fmt.Sprintf("shade2mqtt/%s/position/set", name)

	return bridge
}

// AvailabilityTopic is also the broker will topic, so it is known before the bridge exists.
func AvailabilityTopic(name string) string {
	return fmt.Sprintf("shade2mqtt/%s/availability", name)
}

func (b *Bridge) Name() string {
	return b.name
}

func (b *Bridge) SetMetadata(value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "%s: metadata encode failed", b.name)
	}

	if token := b.mqtt.Publish(b.MetadataTopic, 0, true, payload); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "%s: MQTT metadata publish failed", b.name)
	}

	return nil
}

// Subscribe listens for commands and announces the shade online. It is
// called again after every reconnect.
func (b *Bridge) Subscribe() error {
	if token := b.mqtt.Subscribe(b.CommandTopic, 0, b.onCommandHandler()); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "%s: MQTT command topic subscription failed", b.name)
	}
	logrus.Infof("%s: MQTT command topic subscribed", b.name)
	if token := b.mqtt.Subscribe(b.PositionChangeTopic, 0, b.onPositionChangeHandler()); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "%s: MQTT position change topic subscription failed", b.name)
	}
	logrus.Infof("%s: MQTT position change topic subscribed", b.name)

	b.publish("availability", b.AvailabilityTopic, mqttOnline)

	return nil
}

func (b *Bridge) Unsubscribe() {
	if token := b.mqtt.Unsubscribe(b.PositionChangeTopic, b.CommandTopic); token.Wait() && token.Error() != nil {
		logrus.Errorf("%s: MQTT topics unsubscribe failed: %s", b.name, token.Error())
	}
	if token := b.mqtt.Publish(b.AvailabilityTopic, 0, true, MQTTOffline); token.Wait() && token.Error() != nil {
		logrus.Errorf("%s: MQTT availability publish failed: %s", b.name, token.Error())
	}
}

func (b *Bridge) PublishPosition(position float64) {
	b.publish("position", b.PositionTopic, formatPosition(position))
}

func (b *Bridge) PublishTarget(position float64) {
	b.publish("target", b.TargetTopic, formatPosition(position))
}

func (b *Bridge) PublishPhase(phase shade.Phase, settled shade.Settled) {
	b.publish("state", b.StateTopic, stateOf(phase, settled))
}

func (b *Bridge) publish(what, topic string, payload string) {
	token := b.mqtt.Publish(topic, 0, true, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			logrus.Errorf("%s: MQTT %s publish failed: %s", b.name, what, token.Error())
		}
	}()
}

func (b *Bridge) onCommandHandler() paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		cmd := strings.TrimSpace(string(msg.Payload()))
		switch strings.ToLower(cmd) {
		case mqttOpenCmd:
			b.remote.SetTarget(shade.FullOpenPosition)
		case mqttCloseCmd:
			b.remote.SetTarget(shade.FullClosePosition)
		case mqttStopCmd:
			b.remote.Hold()
		default:
			logrus.Errorf("%s: MQTT unsupported %s command received", b.name, cmd)
		}
	}
}

func (b *Bridge) onPositionChangeHandler() paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		pos, err := ParsePosition(string(msg.Payload()))
		if err != nil {
			logrus.Errorf("%s: MQTT position change ignored: %s", b.name, err)
			return
		}
		b.remote.SetTarget(pos)
	}
}

// ParsePosition accepts integer or decimal percentages.
func ParsePosition(payload string) (float64, error) {
	payload = strings.TrimSpace(payload)
	pos, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%q is not a position", payload)
	}
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return 0, errors.Errorf("%q is not a position", payload)
	}
	return pos, nil
}

func formatPosition(position float64) string {
	return fmt.Sprintf("%d", int(math.Round(shade.Clamp(position))))
}

func stateOf(phase shade.Phase, settled shade.Settled) string {
	switch phase {
	case shade.PhaseOpening:
		return stateOpening
	case shade.PhaseClosing:
		return stateClosing
	}
	switch settled {
	case shade.SettledOpen:
		return stateOpen
	case shade.SettledClosed:
		return stateClosed
	}
	return stateStopped
}
