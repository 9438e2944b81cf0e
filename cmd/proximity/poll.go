package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/apds9960"
	"github.com/mklimuk/proximity/cmd/proximity/console"
	"github.com/mklimuk/proximity/i2c"
	"github.com/mklimuk/proximity/pkg/config"
	"github.com/mklimuk/proximity/snsctx"
)

// Process exit codes.
const (
	exitUsage       = 1
	exitOpen        = 2
	exitIdentity    = 3
	exitConfigure   = 4
	exitPoll        = 5
	exitInterrupted = 130
)

var pollCmd = cli.Command{
	Name:  "poll",
	Usage: "initialise the sensor and print proximity readings until a bus fault",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err = runPoll(ctx, cfg, apds9960.LineEmitter{W: c.App.Writer})
		if code := exitCode(err); code != 0 {
			return console.Exit(code, "%s", err)
		}
		return nil
	},
}

// runPoll brings the sensor up and polls it. It always returns the error that
// ended the session; the device is released on every path.
func runPoll(ctx context.Context, cfg *config.Config, out apds9960.Emitter) error {
	logger := snsctx.Logger(ctx)
	s, err := apds9960.Open(ctx, opener(cfg), cfg.Device.Path, cfg.Device.Address, sensorOpts(cfg)...)
	if err != nil {
		logger.Error("sensor setup failed", "error", err)
		return err
	}
	logger.Info("polling proximity", "device", cfg.Device.Path, "address", fmt.Sprintf("%#x", cfg.Device.Address))
	err = s.Poll(ctx, out)
	if closeErr := s.Close(); closeErr != nil {
		logger.Error("could not release sensor", "error", closeErr)
	}
	logger.Info("polling stopped", "iterations", s.Iterations(), "error", err)
	return err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	var setup *apds9960.SetupError
	if errors.As(err, &setup) {
		switch setup.Stage {
		case apds9960.StageOpen:
			return exitOpen
		case apds9960.StageIdentity:
			return exitIdentity
		case apds9960.StageConfigure:
			return exitConfigure
		}
	}
	return exitPoll
}

func opener(cfg *config.Config) proximity.Opener {
	o := i2c.Opener{
		Backend: i2c.Backend(cfg.Device.Backend),
		Board:   cfg.Device.Board,
	}
	if o.Backend == i2c.BackendMock {
		o.Mock = apds9960.NewMockDevice(cfg.Mock.Readings...)
	}
	return o
}

func sensorOpts(cfg *config.Config) []apds9960.Opt {
	return []apds9960.Opt{
		apds9960.WithExpectedID(cfg.Sensor.ExpectedID),
		apds9960.WithThresholds(cfg.Sensor.LowThreshold, cfg.Sensor.HighThreshold),
		apds9960.WithPersistence(cfg.Sensor.Persistence),
		apds9960.WithEnable(cfg.Sensor.Enable),
		apds9960.WithIdleDelay(cfg.Poll.IdleDelay),
	}
}

func openHandle(ctx context.Context, cfg *config.Config) (proximity.Handle, error) {
	h, err := opener(cfg).Open(ctx, cfg.Device.Path, cfg.Device.Address)
	if err != nil {
		return nil, console.Exit(exitOpen, "could not open device: %s", err)
	}
	return h, nil
}

func closeHandle(ctx context.Context, h proximity.Handle) {
	if err := h.Close(); err != nil {
		snsctx.Logger(ctx).Error("could not release device", "error", err)
	}
}

