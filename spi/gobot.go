package spi

import (
	"context"
	"fmt"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/snsctx"
	"gobot.io/x/gobot/v2/drivers/spi"
)

var _ imu.SPIBus = &GobotBus{}

// gobotOps is the subset of a gobot SPI connection used for register traffic.
type gobotOps interface {
	ReadCommandData(command []byte, data []byte) error
	WriteBytes(data []byte) error
}

// GobotBus runs transfers through a gobot SPI driver bound to one chip select.
//
// Example usage:
//
//	adaptor := nanopi.NewNeoAdaptor()
//	bus := spi.NewGobotBus(adaptor, "imu", spi.WithBusNumber(0), spi.WithChipNumber(0))
//	if err := bus.Start(); err != nil { log.Fatal(err) }
//	dev := ism330dlc.NewSPI(bus, 0)
type GobotBus struct {
	*spi.Driver
}

// NewGobotBus configures the driver for mode 3 and defaults the clock to 2 MHz.
func NewGobotBus(adaptor spi.Connector, name string, opts ...func(spi.Config)) *GobotBus {
	d := spi.NewDriver(adaptor, name, opts...)
	d.SetMode(3)
	if d.GetSpeedOrDefault(0) == 0 {
		d.SetSpeed(2_000_000)
	}
	return &GobotBus{Driver: d}
}

func (b *GobotBus) Start() error { return b.Driver.Start() }

func (b *GobotBus) Halt() error { return b.Driver.Halt() }

func (b *GobotBus) Transfer(ctx context.Context, cs int, speed int64, w, r []byte) error {
	if b == nil || b.Driver == nil {
		return fmt.Errorf("spi driver not initialized")
	}
	if chip := b.GetChipNumberOrDefault(cs); chip != cs {
		return fmt.Errorf("spi driver bound to chip %d, transfer requested chip %d", chip, cs)
	}
	if err := checkSpeed(b.GetSpeedOrDefault(0), speed); err != nil {
		return err
	}
	ops, ok := b.Driver.Connection().(gobotOps)
	if !ok {
		return fmt.Errorf("spi connection does not support required operations")
	}
	snsctx.Trace(ctx, "spi write", w, "cs", cs)
	if err := transfer(ops, w, r); err != nil {
		return fmt.Errorf("spi transfer failed: %w", err)
	}
	snsctx.Trace(ctx, "spi read", r, "cs", cs)
	return nil
}

// checkSpeed rejects a transfer clocked differently from the driver
// configuration; gobot fixes the speed when the connection is opened.
func checkSpeed(configured, requested int64) error {
	if requested != configured {
		return fmt.Errorf("%w: %d Hz != %d Hz", ErrSpeedChanged, requested, configured)
	}
	return nil
}

// transfer maps a full-duplex exchange onto gobot's command/data calls: the
// first byte is the command, the remaining bytes are clocked in as data.
func transfer(ops gobotOps, w, r []byte) error {
	if len(r) == 0 {
		if len(w) == 0 {
			return nil
		}
		return ops.WriteBytes(w)
	}
	if len(w) != len(r) {
		return fmt.Errorf("tx/rx length mismatch: %d != %d", len(w), len(r))
	}
	if len(w) < 2 {
		return fmt.Errorf("read transfer needs a command and at least one data byte")
	}
	data := make([]byte, len(r)-1)
	if err := ops.ReadCommandData(w[:1], data); err != nil {
		return err
	}
	r[0] = 0x00
	copy(r[1:], data)
	return nil
}
