package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/jkaflik/shade2mqtt/internal/shade"
	"github.com/jkaflik/shade2mqtt/internal/shade/driver/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
log_level: debug
mqtt:
  broker: tcp://broker:1883
shade:
  name: bedroom
  open_time: 12s
  close_time: 9s
  drive_policy: all
outputs:
  direction:
    kind: dumb
  enable:
    kind: dumb
    active_low: true
`

func loadTestConfig(t *testing.T, body string) {
	t.Helper()

	require.NoError(t, configLoader.Load())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	require.NoError(t, loadConfigFromYamlFile(path))
}

func TestLoadConfig(t *testing.T) {
	loadTestConfig(t, testConfig)

	assert.Equal(t, "debug", Cfg.LogLevel)
	assert.Equal(t, "tcp://broker:1883", Cfg.MQTT.Broker)
	assert.Equal(t, "homeassistant", Cfg.HASS.TopicPrefix, "default kept")
	assert.Equal(t, 5*time.Millisecond, Cfg.Shade.Tick)
	assert.Equal(t, 500*time.Millisecond, Cfg.Shade.EndStopGrace)

	cfg, err := controllerConfigFromConfig()
	require.NoError(t, err)
	assert.Equal(t, "bedroom", cfg.Name)
	assert.Equal(t, clock.Millis(12000), cfg.OpenTime)
	assert.Equal(t, clock.Millis(9000), cfg.CloseTime)
	assert.Equal(t, shade.DrivePolicy{LocalSwitch: true, UserSense: true, Remote: true}, cfg.Policy)
}

func TestLoadConfigBadPolicy(t *testing.T) {
	loadTestConfig(t, "shade:\n  drive_policy: sometimes\n")

	_, err := controllerConfigFromConfig()
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	require.NoError(t, configLoader.Load())
	assert.NoError(t, loadConfigFromYamlFile(filepath.Join(t.TempDir(), "absent.yaml")))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shade: [\n"), 0o600))
	assert.Error(t, loadConfigFromYamlFile(path))
}

func TestHardwareFromConfig(t *testing.T) {
	channel := filepath.Join(t.TempDir(), "in_voltage0_raw")
	require.NoError(t, os.WriteFile(channel, []byte("250\n"), 0o600))

	loadTestConfig(t, "inputs:\n  user_open:\n    kind: iio\n    path: "+channel+"\n    threshold: 200\n")

	line := lineFromConfig("direction", cfgOutput{Kind: "dumb"})
	assert.IsType(t, &relay.Dumb{}, line)

	pair := relaysFromConfig()
	assert.False(t, pair.Direction())
	assert.False(t, pair.Enable())

	assert.Nil(t, probeFromConfig("local open", cfgInput{Kind: "none"}))

	inputs := inputsFromConfig()
	assert.False(t, inputs.UserOpen.Sample(0))
	assert.True(t, inputs.UserOpen.Sample(clock.Duration(Cfg.Shade.Debounce)))
	assert.False(t, inputs.LocalClose.Sample(1000))
}
