package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/imu/cmd/imu/console"
	"github.com/mklimuk/imu/config"
	"github.com/mklimuk/imu/ism330dlc"
)

var regCmd = cli.Command{
	Name:  "reg",
	Usage: "raw register access",
	Subcommands: cli.Commands{
		&regGetCmd,
		&regSetCmd,
	},
}

var regGetCmd = cli.Command{
	Name:      "get",
	Usage:     "read a register",
	ArgsUsage: "<reg>",
	Action: func(c *cli.Context) error {
		reg, err := parseByte(c.Args().First())
		if err != nil {
			return console.Exit(2, "invalid register: %s", console.Red(err))
		}
		return withBus(c, func(ctx context.Context, p config.Profile, dev *ism330dlc.Device) error {
			v, err := dev.ReadReg(ctx, reg)
			if err != nil {
				return console.Exit(1, "device communication error: %s", console.Red(err))
			}
			console.Printf("%#02x: %#02x (%08b)\n", reg, v, v)
			return nil
		})
	},
}

var regSetCmd = cli.Command{
	Name:      "set",
	Usage:     "write a register",
	ArgsUsage: "<reg> <value>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(2, "expected register and value")
		}
		reg, err := parseByte(c.Args().Get(0))
		if err != nil {
			return console.Exit(2, "invalid register: %s", console.Red(err))
		}
		val, err := parseByte(c.Args().Get(1))
		if err != nil {
			return console.Exit(2, "invalid value: %s", console.Red(err))
		}
		if !c.Bool("yes") {
			answer, err := console.YesOrNo(fmt.Sprintf("write %#02x to register %#02x?", val, reg))
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		return withBus(c, func(ctx context.Context, p config.Profile, dev *ism330dlc.Device) error {
			if err := dev.WriteReg(ctx, reg, val); err != nil {
				return console.Exit(1, "device communication error: %s", console.Red(err))
			}
			console.Infof("register %#02x set to %#02x", reg, val)
			return nil
		})
	},
}

// parseByte accepts hex with or without the 0x prefix.
func parseByte(s string) (byte, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
