package main

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/jkaflik/shade2mqtt/internal/shade"
	"github.com/jkaflik/shade2mqtt/internal/shade/driver/relay"
	"github.com/jkaflik/shade2mqtt/internal/shade/driver/sense"
	"github.com/jkaflik/shade2mqtt/internal/shade/input"
	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
	"github.com/sirupsen/logrus"
	"github.com/stianeikeland/go-rpio/v4"
	"gopkg.in/yaml.v3"
)

type cfgOutput struct {
	Kind      string `yaml:"kind" default:"dumb"`
	Pin       int    `yaml:"pin"`
	ActiveLow bool   `yaml:"active_low"`
}

type cfgInput struct {
	Kind string `yaml:"kind" default:"none"`

	Pin       int  `yaml:"pin"`
	ActiveLow bool `yaml:"active_low" default:"true"`

	Path      string `yaml:"path"`
	Threshold int    `yaml:"threshold" default:"100"`
}

type cfgOutputs struct {
	Direction cfgOutput `yaml:"direction"`
	Enable    cfgOutput `yaml:"enable"`
}

type cfgInputs struct {
	LocalOpen  cfgInput `yaml:"local_open"`
	LocalClose cfgInput `yaml:"local_close"`
	UserOpen   cfgInput `yaml:"user_open"`
	UserClose  cfgInput `yaml:"user_close"`
}

type cfgShade struct {
	Name string `yaml:"name" default:"shade" env:"NAME"`

	Tick             time.Duration `yaml:"tick" default:"5ms"`
	OpenTime         time.Duration `yaml:"open_time" default:"10s" env:"OPEN_TIME"`
	CloseTime        time.Duration `yaml:"close_time" default:"10s" env:"CLOSE_TIME"`
	EndStopGrace     time.Duration `yaml:"end_stop_grace" default:"500ms"`
	Debounce         time.Duration `yaml:"debounce" default:"10ms"`
	Settle           time.Duration `yaml:"settle" default:"8ms"`
	ReportInterval   time.Duration `yaml:"report_interval" default:"500ms"`
	QuickRecheck     time.Duration `yaml:"quick_recheck" default:"100ms"`
	IndicatorTimeout time.Duration `yaml:"indicator_timeout" default:"10s"`
	DrivePolicy      string        `yaml:"drive_policy" default:"local_remote" env:"DRIVE_POLICY"`
}

type cfgDrivers struct {
	Mcp23017 struct {
		Bus          uint8 `yaml:"bus" default:"1"`
		DeviceNumber uint8 `yaml:"device_number" default:"0"`
	} `yaml:"mcp23017"`
	GPIOChip string `yaml:"gpiochip" default:"gpiochip0"`
}

type cfgMQTT struct {
	ClientID string `yaml:"client_id" env:"CLIENT_ID"`
	Broker   string `yaml:"broker" default:"127.0.0.1:1883" env:"BROKER"`
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
}

type cfgHASS struct {
	Enabled     bool   `yaml:"enabled" default:"true" env:"ENABLED"`
	TopicPrefix string `yaml:"topic_prefix" default:"homeassistant" env:"TOPIC_PREFIX"`
}

type cfgHomeKit struct {
	Enabled     bool   `yaml:"enabled" default:"false" env:"ENABLED"`
	Pin         string `yaml:"pin" default:"00102003" env:"PIN"`
	StoragePath string `yaml:"storage_path" default:"homekit" env:"STORAGE_PATH"`
}

var Cfg struct {
	LogLevel string `yaml:"log_level" default:"info" env:"LOG_LEVEL"`

	MQTT    cfgMQTT    `yaml:"mqtt" env:"MQTT"`
	HASS    cfgHASS    `yaml:"hass" env:"HASS"`
	HomeKit cfgHomeKit `yaml:"homekit" env:"HOMEKIT"`

	Shade   cfgShade   `yaml:"shade" env:"SHADE"`
	Outputs cfgOutputs `yaml:"outputs"`
	Inputs  cfgInputs  `yaml:"inputs"`

	Drivers cfgDrivers `yaml:"drivers"`
}

var configLoader = aconfig.LoaderFor(&Cfg, aconfig.Config{
	EnvPrefix: "S2M",
	SkipFlags: true,
	SkipFiles: true,
})

func loadConfigFromYamlFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		logrus.Warnf("config file %s not loaded: %s", filename, err)
		return nil
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&Cfg); err != nil {
		return errors.Wrapf(err, "config file %s", filename)
	}

	return nil
}

func pahoOptsFromConfig() *paho.ClientOptions {
	clientID := Cfg.MQTT.ClientID
	if clientID == "" {
		clientID = "shade2mqtt-" + uuid.NewString()[:8]
	}

	return paho.NewClientOptions().
		SetClientID(clientID).
		AddBroker(Cfg.MQTT.Broker).
		SetUsername(Cfg.MQTT.Username).
		SetPassword(Cfg.MQTT.Password).
		SetConnectTimeout(time.Second).
		SetPingTimeout(time.Second).
		SetWriteTimeout(time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true)
}

func controllerConfigFromConfig() (shade.Config, error) {
	policy, err := shade.ParseDrivePolicy(Cfg.Shade.DrivePolicy)
	if err != nil {
		return shade.Config{}, err
	}

	return shade.Config{
		Name:         Cfg.Shade.Name,
		OpenTime:     clock.Duration(Cfg.Shade.OpenTime),
		CloseTime:    clock.Duration(Cfg.Shade.CloseTime),
		EndStopGrace: clock.Duration(Cfg.Shade.EndStopGrace),
		Policy:       policy,
	}, nil
}

// closers release hardware once the controller has driven the relays idle.
var closers []func() error

func closeHardware() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logrus.Errorf("hardware close failed: %s", err)
		}
	}
	closers = nil
}

func relaysFromConfig() *relay.Pair {
	direction, err := relay.NewOutput("direction", lineFromConfig("direction", Cfg.Outputs.Direction), Cfg.Outputs.Direction.ActiveLow)
	if err != nil {
		logrus.Fatal(err)
	}
	enable, err := relay.NewOutput("enable", lineFromConfig("enable", Cfg.Outputs.Enable), Cfg.Outputs.Enable.ActiveLow)
	if err != nil {
		logrus.Fatal(err)
	}

	return relay.NewPair(direction, enable, clock.Duration(Cfg.Shade.Settle))
}

func lineFromConfig(name string, cfg cfgOutput) relay.Line {
	switch cfg.Kind {
	case "mcp23017":
		p, err := relay.NewMcp23017Pin(mcp23017Device(), uint8(cfg.Pin))
		if err != nil {
			logrus.Fatal(err)
		}
		return p
	case "gpiocdev":
		l, err := relay.NewGpiocdevLine(Cfg.Drivers.GPIOChip, cfg.Pin)
		if err != nil {
			logrus.Fatal(err)
		}
		closers = append(closers, l.Close)
		return l
	case "rpio":
		openRpio()
		return relay.NewRpioPin(cfg.Pin)
	case "dumb":
		return &relay.Dumb{Name: name}
	}

	logrus.Fatalf("%s is not supported output kind", cfg.Kind)
	return nil
}

func inputsFromConfig() shade.Inputs {
	interval := clock.Duration(Cfg.Shade.Debounce)

	return shade.Inputs{
		LocalOpen:  input.NewDebounced(probeFromConfig("local open", Cfg.Inputs.LocalOpen), interval),
		LocalClose: input.NewDebounced(probeFromConfig("local close", Cfg.Inputs.LocalClose), interval),
		UserOpen:   input.NewDebounced(probeFromConfig("user open", Cfg.Inputs.UserOpen), interval),
		UserClose:  input.NewDebounced(probeFromConfig("user close", Cfg.Inputs.UserClose), interval),
	}
}

func probeFromConfig(name string, cfg cfgInput) input.Probe {
	var read func() (bool, error)

	switch cfg.Kind {
	case "", "none":
		return nil
	case "iio":
		ch := &sense.IIOChannel{Path: cfg.Path}
		return input.Threshold(name, ch.Read, cfg.Threshold)
	case "mcp23017":
		in, err := sense.NewMcp23017Input(mcp23017Device(), uint8(cfg.Pin))
		if err != nil {
			logrus.Fatal(err)
		}
		read = in.Read
	case "gpiocdev":
		in, err := sense.NewGpiocdevInput(Cfg.Drivers.GPIOChip, cfg.Pin)
		if err != nil {
			logrus.Fatal(err)
		}
		closers = append(closers, in.Close)
		read = in.Read
	case "rpio":
		openRpio()
		read = sense.NewRpioInput(cfg.Pin).Read
	default:
		logrus.Fatalf("%s is not supported input kind", cfg.Kind)
		return nil
	}

	if cfg.ActiveLow {
		raw := read
		read = func() (bool, error) {
			level, err := raw()
			return !level, err
		}
	}

	return input.FromReader(name, read)
}

var mcpDevice *mcp23017.Device

func mcp23017Device() *mcp23017.Device {
	if mcpDevice != nil {
		return mcpDevice
	}

	cfg := Cfg.Drivers.Mcp23017
	dev, err := mcp23017.Open(cfg.Bus, cfg.DeviceNumber)
	if err != nil {
		logrus.Fatal(err)
	}
	if err := dev.Reset(); err != nil {
		logrus.Fatal(err)
	}
	closers = append(closers, func() error {
		if err := dev.Close(); err != nil {
			return errors.Wrap(err, "mcp23017: close failed")
		}
		logrus.Infof("mcp23017: close")
		return nil
	})

	mcpDevice = dev
	return dev
}

var rpioOpened bool

func openRpio() {
	if rpioOpened {
		return
	}
	if err := rpio.Open(); err != nil {
		logrus.Fatal(errors.Wrap(err, "rpio: open /dev/gpiomem"))
	}
	closers = append(closers, rpio.Close)
	rpioOpened = true
}
