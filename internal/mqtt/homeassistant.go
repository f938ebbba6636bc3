package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

type haDevice struct {
	Identifiers  []string `json:"ids,omitempty"`
	Manufacturer string   `json:"mf,omitempty"`
	Model        string   `json:"mdl,omitempty"`
	Name         string   `json:"name,omitempty"`
	SWVersion    string   `json:"sw,omitempty"`
}

type haEntity struct {
	AvailabilityTopic string `json:"avty_t,omitempty"`
	UniqueID          string `json:"uniq_id,omitempty"`
	Name              string `json:"name,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`

	Device haDevice `json:"device,omitempty"`
}

type haCover struct {
	haEntity
	StateTopic       string `json:"stat_t"`
	CommandTopic     string `json:"cmd_t"`
	PositionTopic    string `json:"pos_t"`
	SetPositionTopic string `json:"set_pos_t"`
	PositionOpen     int    `json:"pos_open"`
	PositionClosed   int    `json:"pos_clsd"`
	PayloadOpen      string `json:"pl_open"`
	PayloadStop      string `json:"pl_stop"`
	PayloadClose     string `json:"pl_cls"`
	StateOpen        string `json:"state_open"`
	StateOpening     string `json:"state_opening"`
	StateClosed      string `json:"state_closed"`
	StateClosing     string `json:"state_closing"`
	StateStopped     string `json:"state_stopped"`
}

func NewHACoverFromMQTTBridge(bridge *Bridge, model string) haCover {
	return haCover{
		haEntity: haEntity{
			AvailabilityTopic: bridge.AvailabilityTopic,
			UniqueID:          "shade2mqtt_" + bridge.Name(),
			Name:              bridge.Name(),
			DeviceClass:       "shade",

			Device: haDevice{
				Identifiers:  []string{"shade2mqtt_" + bridge.Name()},
				Manufacturer: "shade2mqtt",
				Model:        model,
				Name:         bridge.Name(),
				SWVersion:    "shade2mqtt",
			},
		},
		StateTopic:       bridge.StateTopic,
		CommandTopic:     bridge.CommandTopic,
		PositionTopic:    bridge.PositionTopic,
		SetPositionTopic: bridge.PositionChangeTopic,
		PositionOpen:     100,
		PositionClosed:   0,
		PayloadOpen:      mqttOpenCmd,
		PayloadStop:      mqttStopCmd,
		PayloadClose:     mqttCloseCmd,
		StateOpen:        stateOpen,
		StateOpening:     stateOpening,
		StateClosed:      stateClosed,
		StateClosing:     stateClosing,
		StateStopped:     stateStopped,
	}
}

func HADiscoveryTopic(homeAssistantDiscoveryTopicPrefix, name string) string {
	return fmt.Sprintf("%s/cover/shade2mqtt/%s/config", homeAssistantDiscoveryTopicPrefix, name)
}

func PublishHAAutoDiscovery(client Client, homeAssistantDiscoveryTopicPrefix string, haCover haCover) error {
	topic := HADiscoveryTopic(homeAssistantDiscoveryTopicPrefix, haCover.Name)

	payload, err := json.Marshal(haCover)
	if err != nil {
		return errors.Wrap(err, "home assistant discovery encode failed")
	}

	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "%s: home assistant discovery publish failed", haCover.Name)
	}

	return nil
}
