package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/imu/cmd/imu/console"
	"github.com/mklimuk/imu/config"
	"github.com/mklimuk/imu/ism330dlc"
)

var pollFlags = []cli.Flag{
	&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "number of samples, 0 polls until interrupted", Value: 10},
	&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "time between samples", Value: 500 * time.Millisecond},
}

var idCmd = cli.Command{
	Name:  "id",
	Usage: "read the WHO_AM_I register",
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, p config.Profile, dev *ism330dlc.Device) error {
			id, err := dev.ReadID(ctx)
			if err != nil {
				return console.Exit(1, "device communication error: %s", console.Red(err))
			}
			status := console.Green("ISM330DLC")
			if id != ism330dlc.WhoAmI {
				status = console.Red("unknown device")
			}
			console.PInfof(console.PictoPin, "%s: WHO_AM_I=%#02x (%s)", dev, id, status)
			return nil
		})
	},
}

var readCmd = cli.Command{
	Name:  "read",
	Usage: "read accelerometer (mg) and gyroscope (mdps) samples",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{Name: "raw", Usage: "print raw LSB values"},
	}, pollFlags...),
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, p config.Profile, dev *ism330dlc.Device) error {
			p.Accelerometer.Enabled = true
			p.Gyroscope.Enabled = true
			if err := p.Apply(ctx, dev); err != nil {
				return console.Exit(1, "could not configure device: %s", console.Red(err))
			}
			w := tabwriter.NewWriter(console.Writer(), 10, 0, 1, ' ', tabwriter.AlignRight)
			unitXL, unitG := "mg", "mdps"
			if c.Bool("raw") {
				unitXL, unitG = "LSB", "LSB"
			}
			_, _ = fmt.Fprintf(w, "AX[%s]\tAY\tAZ\tGX[%s]\tGY\tGZ\t\n", unitXL, unitG)
			err := poll(ctx, c.Int("count"), c.Duration("interval"), func() error {
				xl, g, err := sample(ctx, dev, c.Bool("raw"))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t\n", xl.X, xl.Y, xl.Z, g.X, g.Y, g.Z)
				return w.Flush()
			})
			if err != nil {
				return console.Exit(1, "read error: %s", console.Red(err))
			}
			return nil
		})
	},
}

func sample(ctx context.Context, dev *ism330dlc.Device, raw bool) (ism330dlc.Axes, ism330dlc.Axes, error) {
	if !raw {
		xl, err := dev.XAxes(ctx)
		if err != nil {
			return xl, ism330dlc.Axes{}, err
		}
		g, err := dev.GAxes(ctx)
		return xl, g, err
	}
	rxl, err := dev.XAxesRaw(ctx)
	if err != nil {
		return ism330dlc.Axes{}, ism330dlc.Axes{}, err
	}
	rg, err := dev.GAxesRaw(ctx)
	if err != nil {
		return ism330dlc.Axes{}, ism330dlc.Axes{}, err
	}
	return widen(rxl), widen(rg), nil
}

func widen(r ism330dlc.RawAxes) ism330dlc.Axes {
	return ism330dlc.Axes{X: int32(r.X), Y: int32(r.Y), Z: int32(r.Z)}
}

var eventsCmd = cli.Command{
	Name:  "events",
	Usage: "poll embedded event sources and 6D orientation",
	Flags: pollFlags,
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, p config.Profile, dev *ism330dlc.Device) error {
			if err := p.Apply(ctx, dev); err != nil {
				return console.Exit(1, "could not configure device: %s", console.Red(err))
			}
			w := tabwriter.NewWriter(console.Writer(), 6, 0, 1, ' ', 0)
			_, _ = fmt.Fprintf(w, "FF\tTAP\tDTAP\tWU\tTILT\t6D\tXL\tXH\tYL\tYH\tZL\tZH\n")
			err := poll(ctx, c.Int("count"), c.Duration("interval"), func() error {
				s, err := dev.EventStatus(ctx)
				if err != nil {
					return err
				}
				o, err := dev.Orientation6D(ctx)
				if err != nil {
					return err
				}
				flags := []bool{s.FreeFall, s.Tap, s.DoubleTap, s.WakeUp, s.Tilt, s.Orientation6D, o.XL, o.XH, o.YL, o.YH, o.ZL, o.ZH}
				for i, f := range flags {
					sep := "\t"
					if i == len(flags)-1 {
						sep = "\n"
					}
					_, _ = fmt.Fprintf(w, "%s%s", console.Flag(f), sep)
				}
				return w.Flush()
			})
			if err != nil {
				return console.Exit(1, "event read error: %s", console.Red(err))
			}
			return nil
		})
	},
}

// poll calls fn count times (forever when count is 0), interval apart.
func poll(ctx context.Context, count int, interval time.Duration, fn func() error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; count == 0 || i < count; i++ {
		if err := fn(); err != nil {
			return err
		}
		if count != 0 && i == count-1 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
