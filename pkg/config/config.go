package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is set at build time.
var Version = "latest"

const (
	DefaultBackend = "devfs"
	DefaultPath    = "/dev/i2c-1"
	DefaultAddress = 0x39
	DefaultBoard   = "nanopi"
)

type Config struct {
	Device DeviceConfig `yaml:"device"`
	Sensor SensorConfig `yaml:"sensor"`
	Poll   PollConfig   `yaml:"poll"`
	Mock   MockConfig   `yaml:"mock"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Address uint16 `yaml:"address"`
	// gobot only
	Board string `yaml:"board,omitempty"`
}

// ---- SENSOR ----

type SensorConfig struct {
	ExpectedID    uint8 `yaml:"expected_id"`
	LowThreshold  uint8 `yaml:"low_threshold"`
	HighThreshold uint8 `yaml:"high_threshold"`
	Persistence   uint8 `yaml:"persistence"`
	Enable        uint8 `yaml:"enable"`
}

// ---- POLL ----

type PollConfig struct {
	IdleDelay time.Duration `yaml:"idle_delay"`
}

// ---- MOCK ----

type MockConfig struct {
	Readings []uint8 `yaml:"readings,flow"`
}

// Default returns the configuration of a stock APDS-9960 breakout on the
// first Linux bus.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			Backend: DefaultBackend,
			Path:    DefaultPath,
			Address: DefaultAddress,
		},
		Sensor: SensorConfig{
			ExpectedID:    0xAB,
			LowThreshold:  0,
			HighThreshold: 175,
			Persistence:   0xC0,
			Enable:        0x25,
		},
	}
}

// Load reads a YAML file on top of Default. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
