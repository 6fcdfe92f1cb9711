package ism330dlc

import (
	"context"
	"fmt"

	"github.com/mklimuk/imu"
)

// binding is the bus a Device talks through. Its only implementations are
// i2cBinding and spiBinding; the unexported methods keep the set closed.
type binding interface {
	read(ctx context.Context, reg byte, buf []byte) error
	write(ctx context.Context, reg byte, data []byte) error
	release(ctx context.Context) error
	String() string
}

type i2cBinding struct {
	bus  imu.I2CBus
	addr byte
}

// read writes the register address without a stop and reads len(buf) bytes
// after a repeated start.
func (b i2cBinding) read(ctx context.Context, reg byte, buf []byte) error {
	return b.bus.TxToAddr(ctx, b.addr, []byte{reg}, buf)
}

func (b i2cBinding) write(ctx context.Context, reg byte, data []byte) error {
	out := make([]byte, 0, len(data)+1)
	out = append(out, reg)
	out = append(out, data...)
	return b.bus.WriteToAddr(ctx, b.addr, out)
}

func (b i2cBinding) release(ctx context.Context) error {
	return b.bus.Release(ctx)
}

func (b i2cBinding) String() string {
	return fmt.Sprintf("i2c(%#02x)", b.addr)
}

type spiBinding struct {
	bus   imu.SPIBus
	cs    int
	speed int64
}

// read sends the address with the read marker followed by dummy bytes; the
// register content is clocked in after the first byte.
func (b spiBinding) read(ctx context.Context, reg byte, buf []byte) error {
	w := make([]byte, len(buf)+1)
	w[0] = reg | spiRead
	r := make([]byte, len(w))
	if err := b.bus.Transfer(ctx, b.cs, b.speed, w, r); err != nil {
		return err
	}
	copy(buf, r[1:])
	return nil
}

func (b spiBinding) write(ctx context.Context, reg byte, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg&^spiRead)
	w = append(w, data...)
	return b.bus.Transfer(ctx, b.cs, b.speed, w, nil)
}

func (b spiBinding) release(ctx context.Context) error {
	return nil
}

func (b spiBinding) String() string {
	return fmt.Sprintf("spi(cs=%d, %d Hz)", b.cs, b.speed)
}
