package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/snsctx"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ imu.I2CBus = &GenericBus{}

// GenericBus exposes a periph.io I2C bus through imu.I2CBus.
type GenericBus struct {
	bus i2c.Bus
}

// NewGenericBus initializes the host drivers and opens the named bus
// (e.g. "/dev/i2c-1" or "1"; empty string selects the first available bus).
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return NewBus(bus), nil
}

// NewBus wraps an already opened periph bus.
func NewBus(bus i2c.Bus) *GenericBus {
	return &GenericBus{bus: bus}
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	snsctx.Trace(ctx, "i2c read", buffer, "addr", address)
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	snsctx.Trace(ctx, "i2c write", buffer, "addr", address)
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// TxToAddr runs a combined write/read; periph issues a repeated start between
// the two halves.
func (b *GenericBus) TxToAddr(ctx context.Context, address byte, w, r []byte) error {
	snsctx.Trace(ctx, "i2c write", w, "addr", address)
	err := b.bus.Tx(uint16(address), w, r)
	if err != nil {
		return fmt.Errorf("could not transfer on i2c bus %x: %w", address, err)
	}
	snsctx.Trace(ctx, "i2c read", r, "addr", address)
	return nil
}

func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	return b.bus.SetSpeed(f)
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	if c, ok := b.bus.(i2c.BusCloser); ok {
		return c.Close()
	}
	return nil
}
