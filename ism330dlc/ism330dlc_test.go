package ism330dlc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func begun(t *testing.T) (*Device, *regFile) {
	t.Helper()
	f := newRegFile()
	d := NewI2C(f)
	require.NoError(t, d.Begin(context.Background()))
	return d, f
}

func TestDevice_Begin(t *testing.T) {
	f := newRegFile()
	f.regs[regCtrl1XL] = 0x4C
	f.regs[regCtrl2G] = 0x40
	f.regs[regFIFOCtrl5] = 0x06
	d := NewI2C(f)
	require.NoError(t, d.Begin(context.Background()))
	assert.Equal(t, AddressHigh, f.addr)
	assert.Equal(t, byte(0x44), f.regs[regCtrl3C])
	assert.Equal(t, byte(0x00), f.regs[regCtrl1XL])
	assert.Equal(t, byte(0x0C), f.regs[regCtrl2G])
	assert.Equal(t, byte(0x00), f.regs[regFIFOCtrl5])
	assert.False(t, d.XEnabled())
	assert.False(t, d.GEnabled())
}

func TestDevice_BeginUnknownDevice(t *testing.T) {
	f := newRegFile()
	f.regs[regWhoAmI] = 0x69
	d := NewI2C(f, WithAddress(AddressLow))
	err := d.Begin(context.Background())
	require.ErrorIs(t, err, ErrUnknownDevice)
	assert.Equal(t, StatusError, StatusOf(err))
	assert.Equal(t, AddressLow, f.addr)
	assert.Zero(t, f.writes)
}

func TestDevice_NoBus(t *testing.T) {
	ctx := context.Background()
	var d Device
	_, err := d.ReadReg(ctx, regWhoAmI)
	assert.ErrorIs(t, err, ErrNoBus)
	assert.ErrorIs(t, d.WriteReg(ctx, regCtrl1XL, 0), ErrNoBus)
	assert.ErrorIs(t, d.Begin(ctx), ErrNoBus)
	assert.ErrorIs(t, d.End(ctx), ErrNoBus)
	assert.Equal(t, "ism330dlc(unbound)", d.String())
}

func TestDevice_End(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	require.NoError(t, d.EnableX(ctx))
	require.NoError(t, d.EnableG(ctx))
	require.NoError(t, d.End(ctx))
	assert.Equal(t, byte(0x00), f.regs[regCtrl1XL]&0xF0)
	assert.Equal(t, byte(0x00), f.regs[regCtrl2G]&0xF0)
	assert.True(t, f.released)
}

func TestDevice_SetXFS(t *testing.T) {
	tests := []struct {
		name     string
		given    float32
		expected float32
		code     byte
	}{
		{"negative", -4, 2, 0b00},
		{"zero", 0, 2, 0b00},
		{"below midpoint", 2.9, 2, 0b00},
		{"midpoint", 3, 4, 0b10},
		{"exact 8", 8, 8, 0b11},
		{"above 8", 11.9, 8, 0b11},
		{"highest", 16, 16, 0b01},
		{"above highest", 100, 16, 0b01},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			d, f := begun(t)
			require.NoError(t, d.SetXFS(ctx, test.given))
			fs, err := d.XFS(ctx)
			require.NoError(t, err)
			assert.Equal(t, test.expected, fs)
			assert.Equal(t, test.code<<2, f.regs[regCtrl1XL]&0x0C)
		})
	}
}

func TestDevice_SetGFS(t *testing.T) {
	tests := []struct {
		name     string
		given    float32
		expected float32
		reg      byte
	}{
		{"zero", 0, 125, 0x02},
		{"below midpoint", 184, 125, 0x02},
		{"midpoint", 185, 245, 0x00},
		{"500", 500, 500, 0x04},
		{"1000", 1100, 1000, 0x08},
		{"above highest", 5000, 2000, 0x0C},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			d, f := begun(t)
			require.NoError(t, d.SetGFS(ctx, test.given))
			fs, err := d.GFS(ctx)
			require.NoError(t, err)
			assert.Equal(t, test.expected, fs)
			assert.Equal(t, test.reg, f.regs[regCtrl2G]&0x0E)
		})
	}
}

func TestDevice_Sensitivity(t *testing.T) {
	ctx := context.Background()
	d, _ := begun(t)
	s, err := d.XSensitivity(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.061, s, 1e-6)
	s, err = d.GSensitivity(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, s, 1e-6)

	require.NoError(t, d.SetGFS(ctx, 125))
	s, err = d.GSensitivity(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 4.375, s, 1e-6)
}

func TestDevice_XODRRoundTrip(t *testing.T) {
	for _, odr := range xlODRs {
		t.Run("", func(t *testing.T) {
			ctx := context.Background()
			d, _ := begun(t)
			require.NoError(t, d.EnableX(ctx))
			require.NoError(t, d.SetXODR(ctx, odr.hz))
			got, err := d.XODR(ctx)
			require.NoError(t, err)
			assert.Equal(t, odr.hz, got)
		})
	}
}

func TestDevice_ODRSnapping(t *testing.T) {
	tests := []struct {
		given    float32
		expected float32
	}{
		{0, 12.5},
		{100, 104},
		{150, 104},
		{160, 208},
		{5000, 6660},
		{100000, 6660},
	}
	for _, test := range tests {
		t.Run("", func(t *testing.T) {
			ctx := context.Background()
			d, _ := begun(t)
			require.NoError(t, d.EnableG(ctx))
			require.NoError(t, d.SetGODR(ctx, test.given))
			got, err := d.GODR(ctx)
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestDevice_SetODRWhileDisabled(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	require.NoError(t, d.SetXODR(ctx, 833))
	assert.Equal(t, byte(0x00), f.regs[regCtrl1XL]&0xF0, "configuring must not power on")
	odr, err := d.XODR(ctx)
	require.NoError(t, err)
	assert.Zero(t, odr)

	require.NoError(t, d.EnableX(ctx))
	odr, err = d.XODR(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(833), odr)
}

func TestDevice_DisableEnableRestoresODR(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	require.NoError(t, d.EnableG(ctx))
	odr, err := d.GODR(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(104), odr)

	require.NoError(t, d.SetGODR(ctx, 1666))
	require.NoError(t, d.DisableG(ctx))
	assert.False(t, d.GEnabled())
	assert.Equal(t, byte(0x00), f.regs[regCtrl2G]&0xF0)

	require.NoError(t, d.EnableG(ctx))
	odr, err = d.GODR(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1666), odr)
}

func TestDevice_EnableIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	require.NoError(t, d.EnableX(ctx))
	writes := f.writes
	require.NoError(t, d.EnableX(ctx))
	assert.Equal(t, writes, f.writes)
	require.NoError(t, d.DisableX(ctx))
	writes = f.writes
	require.NoError(t, d.DisableX(ctx))
	assert.Equal(t, writes, f.writes)
}

func TestDevice_UnexpectedODRCode(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	f.regs[regCtrl1XL] = 0xB0
	_, err := d.XODR(ctx)
	assert.ErrorIs(t, err, ErrUnexpectedValue)
}

func TestDevice_ReadRegFailure(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("TxToAddr", mock.Anything, AddressHigh, []byte{regCtrl1XL}, mock.Anything).
		Return(nil, errors.New("nack"))
	d := NewI2C(bus)

	v, err := d.ReadReg(ctx, regCtrl1XL)
	require.ErrorIs(t, err, ErrBus)
	assert.Zero(t, v)
	assert.Equal(t, StatusError, StatusOf(err))

	require.Error(t, d.SetXFS(ctx, 4))
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
	bus.AssertExpectations(t)
}

func TestDevice_WriteRegFrame(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, AddressLow, []byte{regCtrl1XL, 0x40}).Return(nil)
	d := NewI2C(bus, WithAddress(AddressLow))
	require.NoError(t, d.WriteReg(ctx, regCtrl1XL, 0x40))
	bus.AssertExpectations(t)
}

func TestDevice_SPI(t *testing.T) {
	ctx := context.Background()
	f := newRegFile()
	d := NewSPI(f, 1, WithSpeed(1_000_000))

	id, err := d.ReadID(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(WhoAmI), id)
	assert.Equal(t, []byte{0x8F, 0x00}, f.lastW)
	assert.Equal(t, 1, f.cs)
	assert.Equal(t, int64(1_000_000), f.speed)

	require.NoError(t, d.WriteReg(ctx, regCtrl1XL, 0x60))
	assert.Equal(t, []byte{0x10, 0x60}, f.lastW)
	assert.Equal(t, byte(0x60), f.regs[regCtrl1XL])
}

func TestDevice_SPIAxes(t *testing.T) {
	ctx := context.Background()
	f := newRegFile()
	d := NewSPI(f, 0)
	putAxes(f, regOutXLXL, 1000, -2, 300)

	raw, err := d.XAxesRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA8, 0, 0, 0, 0, 0, 0}, f.lastW)
	assert.Equal(t, RawAxes{1000, -2, 300}, raw)
	assert.Equal(t, int64(DefaultSPISpeed), f.speed)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err      error
		expected Status
	}{
		{nil, StatusOK},
		{ErrBus, StatusError},
		{ErrNoBus, StatusError},
		{ErrTimeout, StatusTimeout},
		{ErrNotImplemented, StatusNotImplemented},
	}
	for _, test := range tests {
		t.Run(test.expected.String(), func(t *testing.T) {
			assert.Equal(t, test.expected, StatusOf(test.err))
		})
	}
}
