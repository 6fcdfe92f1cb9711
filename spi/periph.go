// Package spi provides imu.SPIBus implementations backed by periph.io and gobot.
package spi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/snsctx"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var _ imu.SPIBus = &PeriphBus{}

var ErrSpeedChanged = errors.New("spi: port already connected at a different speed")

// PeriphBus drives a periph.io SPI port in mode 3. Chip select is either the
// port's hardware line or a GPIO registered with WithChipSelect.
//
// A periph port can only be connected once, so the first transfer fixes the
// clock speed for the lifetime of the bus.
type PeriphBus struct {
	port  spi.Port
	conn  spi.Conn
	speed physic.Frequency
	pins  map[int]gpio.PinOut
}

type PeriphOpt func(*PeriphBus)

// WithChipSelect drives pin low for the duration of transfers addressed to cs.
func WithChipSelect(cs int, pin gpio.PinOut) PeriphOpt {
	return func(b *PeriphBus) {
		b.pins[cs] = pin
	}
}

// OpenPeriphBus initializes the host and opens the named port (e.g. "SPI0.0").
// csPins maps chip select numbers to GPIO names driven in software.
func OpenPeriphBus(dev string, csPins map[int]string) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port: %w", err)
	}
	var opts []PeriphOpt
	for cs, name := range csPins {
		pin := gpioreg.ByName(name)
		if pin == nil {
			_ = port.Close()
			return nil, fmt.Errorf("unknown chip select pin %q", name)
		}
		opts = append(opts, WithChipSelect(cs, pin))
	}
	return NewPeriphBus(port, opts...)
}

// NewPeriphBus wraps an opened port and parks registered chip select pins high.
func NewPeriphBus(port spi.Port, opts ...PeriphOpt) (*PeriphBus, error) {
	b := &PeriphBus{port: port, pins: map[int]gpio.PinOut{}}
	for _, opt := range opts {
		opt(b)
	}
	for cs, pin := range b.pins {
		if err := pin.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("could not release chip select %d: %w", cs, err)
		}
	}
	return b, nil
}

func (b *PeriphBus) connect(speed int64) (spi.Conn, error) {
	f := physic.Frequency(speed) * physic.Hertz
	if b.conn != nil {
		if f != b.speed {
			return nil, fmt.Errorf("%w: %s != %s", ErrSpeedChanged, f, b.speed)
		}
		return b.conn, nil
	}
	conn, err := b.port.Connect(f, spi.Mode3, 8)
	if err != nil {
		return nil, fmt.Errorf("could not connect spi port: %w", err)
	}
	slog.Debug("spi port connected", "port", b.port.String(), "speed", f)
	b.conn = conn
	b.speed = f
	return conn, nil
}

func (b *PeriphBus) Transfer(ctx context.Context, cs int, speed int64, w, r []byte) error {
	conn, err := b.connect(speed)
	if err != nil {
		return err
	}
	pin := b.pins[cs]
	if pin != nil {
		if err := pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("could not assert chip select %d: %w", cs, err)
		}
	}
	snsctx.Trace(ctx, "spi write", w, "cs", cs)
	txErr := conn.Tx(w, r)
	if pin != nil {
		if err := pin.Out(gpio.High); err != nil && txErr == nil {
			return fmt.Errorf("could not release chip select %d: %w", cs, err)
		}
	}
	if txErr != nil {
		return fmt.Errorf("spi transfer failed: %w", txErr)
	}
	snsctx.Trace(ctx, "spi read", r, "cs", cs)
	return nil
}

func (b *PeriphBus) Close() error {
	if c, ok := b.port.(spi.PortCloser); ok {
		return c.Close()
	}
	return nil
}
