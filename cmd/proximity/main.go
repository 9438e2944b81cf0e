package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity/cmd/proximity/console"
	"github.com/mklimuk/proximity/pkg/config"
	"github.com/mklimuk/proximity/snsctx"
)

var commit string
var date string

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	console.SetOutput(stdout, stderr)
	app := newApp(stdout, stderr)
	err := app.Run(args)
	if err == nil {
		return 0
	}
	var exerr cli.ExitCoder
	if errors.As(err, &exerr) {
		if msg := err.Error(); msg != "" {
			console.Error(msg)
		}
		return exerr.ExitCode()
	}
	console.Error(err.Error())
	return exitUsage
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "proximity"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", config.Version, date, commit)
	app.Usage = "APDS-9960 proximity sensor cli"
	app.Writer = stdout
	app.ErrWriter = stderr
	// exit codes are translated by run
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML configuration file",
			EnvVars: []string{"PROXIMITY_CONFIG"},
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "i2c backend: devfs, periph, gobot, mcp2221 or mock",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "i2c bus device, e.g. /dev/i2c-1",
		},
		&cli.UintFlag{
			Name:  "address",
			Usage: "7-bit device address",
		},
		&cli.StringFlag{
			Name:  "board",
			Usage: "gobot board: nanopi or raspi",
		},
		&cli.DurationFlag{
			Name:  "idle-delay",
			Usage: "pause between polls without a valid reading",
		},
	}
	app.Before = func(c *cli.Context) error {
		charm := chlog.NewWithOptions(stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		logger := slog.New(charm)
		slog.SetDefault(logger)
		ctx := snsctx.WithLogger(c.Context, logger)
		c.Context = snsctx.SetVerbose(ctx, c.Bool("verbose"))
		return nil
	}
	app.Commands = cli.Commands{
		&pollCmd,
		&idCmd,
		&registerCmd,
		&usbCmd,
		&mcp2221Cmd,
		&configCmd,
	}
	return app
}

// loadConfig resolves the configuration file and applies global flag
// overrides on top of it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, console.Exit(exitUsage, "%s", err)
	}
	if c.IsSet("backend") {
		cfg.Device.Backend = c.String("backend")
	}
	if c.IsSet("device") {
		cfg.Device.Path = c.String("device")
	}
	if c.IsSet("address") {
		addr := c.Uint("address")
		if addr > 0xffff {
			return nil, console.Exit(exitUsage, "address %#x out of range", addr)
		}
		cfg.Device.Address = uint16(addr)
	}
	if c.IsSet("board") {
		cfg.Device.Board = c.String("board")
	}
	if c.IsSet("idle-delay") {
		cfg.Poll.IdleDelay = c.Duration("idle-delay")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, console.Exit(exitUsage, "invalid configuration: %s", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func commandContext(c *cli.Context) context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}
