package ism330dlc

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// regFile is an in-memory register map that answers both I2C and SPI
// transactions with address auto-increment.
type regFile struct {
	regs   [256]byte
	writes int

	addr     byte
	cs       int
	speed    int64
	lastW    []byte
	released bool
}

func newRegFile() *regFile {
	f := &regFile{}
	f.regs[regWhoAmI] = WhoAmI
	return f
}

func (f *regFile) load(reg byte, buf []byte) {
	for i := range buf {
		buf[i] = f.regs[reg]
		reg++
	}
}

func (f *regFile) store(reg byte, data []byte) {
	for _, b := range data {
		f.regs[reg] = b
		reg++
	}
	f.writes++
}

func (f *regFile) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	f.addr = address
	f.load(0, buffer)
	return nil
}

func (f *regFile) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	f.addr = address
	f.lastW = append([]byte(nil), buffer...)
	if len(buffer) > 0 {
		f.store(buffer[0], buffer[1:])
	}
	return nil
}

func (f *regFile) TxToAddr(ctx context.Context, address byte, w, r []byte) error {
	f.addr = address
	f.lastW = append([]byte(nil), w...)
	f.load(w[0], r)
	return nil
}

func (f *regFile) Release(ctx context.Context) error {
	f.released = true
	return nil
}

func (f *regFile) Transfer(ctx context.Context, cs int, speed int64, w, r []byte) error {
	f.cs = cs
	f.speed = speed
	f.lastW = append([]byte(nil), w...)
	if w[0]&spiRead != 0 {
		r[0] = 0
		f.load(w[0]&^spiRead, r[1:])
		return nil
	}
	f.store(w[0], w[1:])
	return nil
}

// MockI2CBus is a mock implementation of imu.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) TxToAddr(ctx context.Context, address byte, w, r []byte) error {
	args := m.Called(ctx, address, w, r)
	if data, ok := args.Get(0).([]byte); ok {
		copy(r, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
