package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/imu/cmd/imu/console"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "device profile helpers",
	Subcommands: cli.Commands{
		&configDumpCmd,
	},
}

var configDumpCmd = cli.Command{
	Name:  "dump",
	Usage: "print the effective profile as YAML",
	Action: func(c *cli.Context) error {
		p, err := profile(c)
		if err != nil {
			return console.Exit(1, "profile error: %s", console.Red(err))
		}
		out, err := p.Marshal()
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		console.Printf("%s", out)
		return nil
	},
}
