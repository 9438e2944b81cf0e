package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/apds9960"
	"github.com/mklimuk/proximity/cmd/proximity/console"
)

var idCmd = cli.Command{
	Name:  "id",
	Usage: "read the device identity register",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		ctx := commandContext(c)
		h, err := openHandle(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeHandle(ctx, h)
		s := apds9960.New(h, apds9960.WithExpectedID(cfg.Sensor.ExpectedID))
		id, err := s.ReadID(ctx)
		if err != nil {
			return console.Exit(exitIdentity, "%s", err)
		}
		console.Printf("0x%02x\n", id)
		return nil
	},
}

var registerCmd = cli.Command{
	Name:  "register",
	Usage: "raw register access",
	Subcommands: cli.Commands{
		&registerReadCmd,
		&registerWriteCmd,
	},
}

var registerReadCmd = cli.Command{
	Name:      "read",
	Aliases:   []string{"rd"},
	ArgsUsage: "<register>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(exitUsage, "expected one register argument")
		}
		reg, err := parseByte(c.Args().Get(0))
		if err != nil {
			return console.Exit(exitUsage, "invalid register: %s", err)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		ctx := commandContext(c)
		h, err := openHandle(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeHandle(ctx, h)
		v, err := proximity.ReadRegister(ctx, h, proximity.Register(reg))
		if err != nil {
			return console.Exit(exitPoll, "%s", err)
		}
		console.Printf("%s: 0x%02x (%d)\n", proximity.Register(reg), v, v)
		return nil
	},
}

var registerWriteCmd = cli.Command{
	Name:      "write",
	Aliases:   []string{"wr"},
	ArgsUsage: "<register> <value>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(exitUsage, "expected register and value arguments")
		}
		reg, err := parseByte(c.Args().Get(0))
		if err != nil {
			return console.Exit(exitUsage, "invalid register: %s", err)
		}
		value, err := parseByte(c.Args().Get(1))
		if err != nil {
			return console.Exit(exitUsage, "invalid value: %s", err)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if !c.Bool("yes") {
			answer, err := console.NoOrYes(fmt.Sprintf("write 0x%02x to register %s?", value, proximity.Register(reg)))
			if err != nil {
				return console.Exit(exitUsage, "could not read answer: %s", err)
			}
			if answer != console.Yes {
				console.Infof("aborted")
				return nil
			}
		}
		ctx := commandContext(c)
		h, err := openHandle(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeHandle(ctx, h)
		if err := proximity.WriteRegister(ctx, h, proximity.Register(reg), value); err != nil {
			return console.Exit(exitPoll, "%s", err)
		}
		console.Infof("register %s set to %s", console.Hex(reg), console.Green(fmt.Sprintf("%d", value)))
		return nil
	},
}

// parseByte accepts decimal, 0x hex, 0o octal and 0b binary notation.
func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
