// Package imu defines the bus contracts shared by the IMU driver and the bus
// backends that carry its register transactions.
package imu

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// AddressableTransceiver writes w and then reads len(r) bytes from the same
// device using a repeated start, without releasing the bus in between.
type AddressableTransceiver interface {
	TxToAddr(ctx context.Context, address byte, w, r []byte) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
	AddressableTransceiver
}

// SPIBus runs full-duplex transfers. The chip select line identified by cs is
// held asserted for the whole transfer; speed is the clock frequency in Hz.
// r may be nil for write-only transfers, otherwise len(r) must equal len(w).
type SPIBus interface {
	Transfer(ctx context.Context, cs int, speed int64, w, r []byte) error
}
