package ism330dlc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putAxes(f *regFile, reg byte, x, y, z int16) {
	for i, v := range []int16{x, y, z} {
		f.regs[reg+byte(2*i)] = byte(uint16(v))
		f.regs[reg+byte(2*i)+1] = byte(uint16(v) >> 8)
	}
}

func TestDevice_XAxes(t *testing.T) {
	tests := []struct {
		name     string
		fs       float32
		raw      RawAxes
		expected Axes
	}{
		{"2g", 2, RawAxes{1000, -1000, 16393}, Axes{61, -61, 999}},
		{"4g", 4, RawAxes{1000, -1000, 32767}, Axes{122, -122, 3997}},
		{"16g", 16, RawAxes{-32768, 1, 0}, Axes{-15990, 0, 0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			d, f := begun(t)
			require.NoError(t, d.SetXFS(ctx, test.fs))
			putAxes(f, regOutXLXL, test.raw.X, test.raw.Y, test.raw.Z)

			raw, err := d.XAxesRaw(ctx)
			require.NoError(t, err)
			assert.Equal(t, test.raw, raw)

			a, err := d.XAxes(ctx)
			require.NoError(t, err)
			assert.Equal(t, test.expected, a)
		})
	}
}

func TestDevice_GAxes(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	putAxes(f, regOutXLG, 32767, -32768, -3)

	raw, err := d.GAxesRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, RawAxes{32767, -32768, -3}, raw)

	a, err := d.GAxes(ctx)
	require.NoError(t, err)
	assert.Equal(t, Axes{2293690, -2293760, -210}, a)

	require.NoError(t, d.SetGFS(ctx, 125))
	a, err = d.GAxes(ctx)
	require.NoError(t, err)
	assert.Equal(t, Axes{143355, -143360, -13}, a)
}

func TestDevice_RawAndScaledAgree(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	require.NoError(t, d.SetXFS(ctx, 8))
	putAxes(f, regOutXLXL, 12345, -2222, 7)

	raw, err := d.XAxesRaw(ctx)
	require.NoError(t, err)
	a, err := d.XAxes(ctx)
	require.NoError(t, err)
	s, err := d.scale(ctx, accelerometer)
	require.NoError(t, err)
	assert.Equal(t, Axes{
		X: scaled(raw.X, s.micro),
		Y: scaled(raw.Y, s.micro),
		Z: scaled(raw.Z, s.micro),
	}, a)
}
