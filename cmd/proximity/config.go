package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/proximity/cmd/proximity/console"
	"github.com/mklimuk/proximity/pkg/config"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "configuration helpers",
	Subcommands: cli.Commands{
		&configShowCmd,
	},
}

var configShowCmd = cli.Command{
	Name:  "show",
	Usage: "print the effective configuration",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		out, err := config.Marshal(cfg)
		if err != nil {
			return console.Exit(exitUsage, "encoding error: %s", console.Red(err))
		}
		console.Printf("%s", out)
		return nil
	},
}
