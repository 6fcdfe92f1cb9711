package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	gobotspi "gobot.io/x/gobot/v2/drivers/spi"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/imu/adapter"
	"github.com/mklimuk/imu/config"
	"github.com/mklimuk/imu/i2c"
	"github.com/mklimuk/imu/ism330dlc"
	"github.com/mklimuk/imu/snsctx"
	"github.com/mklimuk/imu/spi"
)

var busFlags = []cli.Flag{
	&cli.PathFlag{Name: "config", Aliases: []string{"c"}, Usage: "device profile (YAML)", EnvVars: []string{"IMU_CONFIG"}},
	&cli.StringFlag{Name: "bus", Usage: "bus kind: i2c or spi"},
	&cli.StringFlag{Name: "adapter", Usage: "bus adapter: periph, mcp2221 (i2c) or gobot (spi)"},
	&cli.StringFlag{Name: "device", Usage: "periph bus or port name"},
	&cli.UintFlag{Name: "address", Usage: "i2c device address"},
	&cli.IntFlag{Name: "cs", Usage: "spi chip select"},
	&cli.StringFlag{Name: "cs-pin", Usage: "gpio driven as spi chip select (periph)"},
	&cli.Int64Flag{Name: "speed", Usage: "spi clock in Hz"},
}

// profile loads --config (or the defaults) and applies bus flag overrides.
func profile(c *cli.Context) (config.Profile, error) {
	p := config.Defaults()
	if path := c.Path("config"); path != "" {
		var err error
		p, err = config.Load(path)
		if err != nil {
			return config.Profile{}, err
		}
	}
	if c.IsSet("bus") {
		p.Bus.Kind = c.String("bus")
		if !c.IsSet("adapter") && p.Bus.Kind == config.BusSPI && p.Bus.Adapter == config.AdapterMCP2221 {
			p.Bus.Adapter = config.AdapterPeriph
		}
	}
	if c.IsSet("adapter") {
		p.Bus.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		p.Bus.Device = c.String("device")
	}
	if c.IsSet("address") {
		p.Bus.Address = uint8(c.Uint("address"))
	}
	if c.IsSet("cs") {
		p.Bus.CS = c.Int("cs")
	}
	if c.IsSet("cs-pin") {
		p.Bus.CSPin = c.String("cs-pin")
	}
	if c.IsSet("speed") {
		p.Bus.Speed = c.Int64("speed")
	}
	if err := p.Validate(); err != nil {
		return config.Profile{}, err
	}
	return p, nil
}

func commandContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}

// openDevice binds a driver to the bus described by the profile. The returned
// closer releases the bus.
func openDevice(ctx context.Context, b config.Bus) (*ism330dlc.Device, func() error, error) {
	noop := func() error { return nil }
	switch b.Kind + "/" + b.Adapter {
	case config.BusI2C + "/" + config.AdapterPeriph:
		bus, err := i2c.NewGenericBus(b.Device)
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return ism330dlc.NewI2C(bus, ism330dlc.WithAddress(b.Address)), bus.Close, nil
	case config.BusI2C + "/" + config.AdapterMCP2221:
		ad := adapter.NewMCP2221()
		if err := ad.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return ism330dlc.NewI2C(ad, ism330dlc.WithAddress(b.Address)), noop, nil
	case config.BusSPI + "/" + config.AdapterPeriph:
		pins := map[int]string{}
		if b.CSPin != "" {
			pins[b.CS] = b.CSPin
		}
		bus, err := spi.OpenPeriphBus(b.Device, pins)
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return ism330dlc.NewSPI(bus, b.CS, ism330dlc.WithSpeed(b.Speed)), bus.Close, nil
	case config.BusSPI + "/" + config.AdapterGobot:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		bus := spi.NewGobotBus(npi, "imu", gobotspi.WithChipNumber(b.CS), gobotspi.WithSpeed(b.Speed))
		if err := bus.Start(); err != nil {
			_ = npi.Finalize()
			return nil, nil, fmt.Errorf("SPI device start error: %w", err)
		}
		closer := func() error {
			if err := bus.Halt(); err != nil {
				return err
			}
			return npi.Finalize()
		}
		return ism330dlc.NewSPI(bus, b.CS, ism330dlc.WithSpeed(b.Speed)), closer, nil
	default:
		return nil, nil, fmt.Errorf("unsupported bus %s with adapter %s", b.Kind, b.Adapter)
	}
}

type deviceFunc func(ctx context.Context, p config.Profile, dev *ism330dlc.Device) error

// withDevice opens and begins the device, runs fn and ends the device.
func withDevice(c *cli.Context, fn deviceFunc) error {
	return withBus(c, func(ctx context.Context, p config.Profile, dev *ism330dlc.Device) error {
		if err := dev.Begin(ctx); err != nil {
			return err
		}
		slog.Debug("device ready", "device", dev.String())
		err := fn(ctx, p, dev)
		if endErr := dev.End(ctx); endErr != nil {
			slog.Error("error ending device", "error", endErr)
		}
		return err
	})
}

// withBus opens the bus and hands fn an unconfigured device.
func withBus(c *cli.Context, fn deviceFunc) error {
	p, err := profile(c)
	if err != nil {
		return err
	}
	ctx := commandContext(c)
	dev, closer, err := openDevice(ctx, p.Bus)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer(); err != nil {
			slog.Error("error closing bus", "error", err)
		}
	}()
	return fn(ctx, p, dev)
}
