package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/jkaflik/shade2mqtt/internal/homekit"
	"github.com/jkaflik/shade2mqtt/internal/indicator"
	"github.com/jkaflik/shade2mqtt/internal/mqtt"
	"github.com/jkaflik/shade2mqtt/internal/shade"
	"github.com/sirupsen/logrus"
)

type metadata struct {
	OpenTime    string `json:"open_time"`
	CloseTime   string `json:"close_time"`
	DrivePolicy string `json:"drive_policy"`
	Direction   string `json:"direction_output"`
	Enable      string `json:"enable_output"`
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors: false,
		FullTimestamp: true,
	})

	configPath := flag.String("config", "config.yaml", "config.yaml file path")
	flag.Parse()

	if err := configLoader.Load(); err != nil {
		logrus.Fatal(err)
	}
	if err := loadConfigFromYamlFile(*configPath); err != nil {
		logrus.Fatal(err)
	}

	level, err := logrus.ParseLevel(Cfg.LogLevel)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.SetLevel(level)

	controllerCfg, err := controllerConfigFromConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// sinks is filled in below; the reporter reads it through the pointer.
	var sinks shade.Sinks
	reporter := shade.NewReporter(&sinks, clock.Duration(Cfg.Shade.ReportInterval), clock.Duration(Cfg.Shade.QuickRecheck))
	controller := shade.NewController(controllerCfg, inputsFromConfig(), relaysFromConfig(), reporter)

	connectivity := &indicator.Connectivity{}
	coordinator := indicator.NewCoordinator(indicator.LogPixel{Name: controllerCfg.Name}, connectivity, clock.Duration(Cfg.Shade.IndicatorTimeout))
	coordinator.Start()

	runner := shade.NewRunner(controller, clock.NewSystem(), Cfg.Shade.Tick).WithIndicator(coordinator)

	var bridge *mqtt.Bridge
	opts := pahoOptsFromConfig()
	opts.OnConnect = func(m paho.Client) {
		logrus.Info("MQTT broker connected")
		connectivity.Connected()
		subscribe(m, bridge)
		runner.Refresh()
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logrus.Errorf("MQTT broker connection lost: %s", err.Error())
		connectivity.Lost()
	}
	opts.SetWill(mqtt.AvailabilityTopic(controllerCfg.Name), mqtt.MQTTOffline, 0, true)

	client := paho.NewClient(opts)
	bridge = mqtt.NewBridge(client, controllerCfg.Name, runner)
	sinks = append(sinks, bridge)

	if Cfg.HomeKit.Enabled {
		acc := homekit.NewAccessory(homekit.Config{
			Name:         controllerCfg.Name,
			Pin:          Cfg.HomeKit.Pin,
			StoragePath:  Cfg.HomeKit.StoragePath,
			Manufacturer: "shade2mqtt",
			Model:        "relay pair",
		}, runner)
		sinks = append(sinks, acc)

		if err := acc.Start(ctx); err != nil {
			logrus.Fatal(err)
		}
	}

	token := client.Connect()
	go func() {
		if token.Wait() && token.Error() != nil {
			logrus.Errorf("MQTT broker connect failed: %s", token.Error())
		}
	}()

	runner.Run(ctx)

	if client.IsConnected() {
		bridge.Unsubscribe()
	}
	closeHardware()
	client.Disconnect(250)
	logrus.Info("stopped")
}

func subscribe(m paho.Client, bridge *mqtt.Bridge) {
	if Cfg.HASS.Enabled {
		entity := mqtt.NewHACoverFromMQTTBridge(bridge, "relay pair")
		if err := mqtt.PublishHAAutoDiscovery(m, Cfg.HASS.TopicPrefix, entity); err != nil {
			logrus.Error(err)
		}
	}

	if err := bridge.SetMetadata(metadata{
		OpenTime:    Cfg.Shade.OpenTime.String(),
		CloseTime:   Cfg.Shade.CloseTime.String(),
		DrivePolicy: Cfg.Shade.DrivePolicy,
		Direction:   Cfg.Outputs.Direction.Kind,
		Enable:      Cfg.Outputs.Enable.Kind,
	}); err != nil {
		logrus.Error(err)
	}

	if err := bridge.Subscribe(); err != nil {
		logrus.Error(err)
	}
}
