package config

import (
	"fmt"
	"slices"
)

var backends = []string{"devfs", "periph", "gobot", "mcp2221", "mock"}

var boards = []string{"nanopi", "raspi"}

// Validate checks configuration correctness. It does not mutate cfg; zero
// values left for Normalize are accepted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("missing configuration")
	}

	d := cfg.Device
	if d.Backend != "" && !slices.Contains(backends, d.Backend) {
		return fmt.Errorf("device: unknown backend %q (want one of %v)", d.Backend, backends)
	}
	// 0 means default, anything else must be a non-reserved 7-bit address
	if d.Address != 0 && (d.Address < 0x08 || d.Address > 0x77) {
		return fmt.Errorf("device: address %#x outside 0x08..0x77", d.Address)
	}
	if d.Backend == "gobot" && d.Board != "" && !slices.Contains(boards, d.Board) {
		return fmt.Errorf("device: unknown gobot board %q (want one of %v)", d.Board, boards)
	}

	if cfg.Sensor.LowThreshold > cfg.Sensor.HighThreshold {
		return fmt.Errorf(
			"sensor: low_threshold %d above high_threshold %d",
			cfg.Sensor.LowThreshold,
			cfg.Sensor.HighThreshold,
		)
	}

	if cfg.Poll.IdleDelay < 0 {
		return fmt.Errorf("poll: idle_delay must not be negative, got %s", cfg.Poll.IdleDelay)
	}

	if d.Backend == "mock" && len(cfg.Mock.Readings) == 0 {
		return fmt.Errorf("mock: backend mock needs at least one reading")
	}
	return nil
}

// Normalize fills unset device fields. It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	d := &cfg.Device
	if d.Backend == "" {
		d.Backend = DefaultBackend
	}
	if d.Path == "" {
		d.Path = DefaultPath
	}
	if d.Address == 0 {
		d.Address = DefaultAddress
	}
	if d.Backend == "gobot" && d.Board == "" {
		d.Board = DefaultBoard
	}
}
