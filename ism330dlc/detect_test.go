package ism330dlc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_DetectorRouting(t *testing.T) {
	tests := []struct {
		name    string
		enable  func(*Device, context.Context, InterruptPin) error
		disable func(*Device, context.Context) error
		route   byte
	}{
		{"free-fall", (*Device).EnableFreeFallDetection, (*Device).DisableFreeFallDetection, 0x10},
		{"tilt", (*Device).EnableTiltDetection, (*Device).DisableTiltDetection, 0x02},
		{"wake-up", (*Device).EnableWakeUpDetection, (*Device).DisableWakeUpDetection, 0x20},
		{"single tap", (*Device).EnableSingleTapDetection, (*Device).DisableSingleTapDetection, 0x40},
		{"double tap", (*Device).EnableDoubleTapDetection, (*Device).DisableDoubleTapDetection, 0x08},
		{"6d", (*Device).Enable6DOrientation, (*Device).Disable6DOrientation, 0x04},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			d, f := begun(t)
			f.regs[regMD1Cfg] = 0x01
			f.regs[regMD2Cfg] = 0x80

			require.NoError(t, test.enable(d, ctx, Int2))
			assert.Equal(t, byte(0x01), f.regs[regMD1Cfg])
			assert.Equal(t, 0x80|test.route, f.regs[regMD2Cfg])

			require.NoError(t, test.disable(d, ctx))
			assert.Equal(t, byte(0x01), f.regs[regMD1Cfg])
			assert.Equal(t, byte(0x80), f.regs[regMD2Cfg])

			require.NoError(t, test.enable(d, ctx, Int1))
			assert.Equal(t, 0x01|test.route, f.regs[regMD1Cfg])
			assert.Equal(t, byte(0x80), f.regs[regMD2Cfg])

			require.NoError(t, test.disable(d, ctx))
			require.NoError(t, test.enable(d, ctx, NoInterrupt))
			assert.Equal(t, byte(0x01), f.regs[regMD1Cfg])
			assert.Equal(t, byte(0x80), f.regs[regMD2Cfg])
		})
	}
}

func TestDevice_InvalidInterruptPin(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	writes := f.writes
	require.Error(t, d.EnableWakeUpDetection(ctx, InterruptPin(3)))
	assert.Equal(t, writes, f.writes)
}

func TestDevice_FreeFallDetection(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	f.regs[regWakeUpDur] = 0xFF
	require.NoError(t, d.EnableFreeFallDetection(ctx, Int1))
	assert.Equal(t, byte(6<<3|3), f.regs[regFreeFall])
	assert.Equal(t, byte(0x00), f.regs[regWakeUpDur])
	assert.Equal(t, byte(0x80), f.regs[regTapCfg]&0x80)
	assert.Equal(t, float32(416), d.xl.lastODR)
	assert.False(t, d.XEnabled())

	require.NoError(t, d.SetFreeFallThreshold(ctx, FreeFallThreshold500mg))
	assert.Equal(t, byte(6<<3|7), f.regs[regFreeFall])

	require.NoError(t, d.DisableFreeFallDetection(ctx))
	assert.Equal(t, byte(0x00), f.regs[regFreeFall])
	assert.Equal(t, byte(0x00), f.regs[regTapCfg]&0x80)
}

func TestDevice_TiltDetection(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	require.NoError(t, d.EnableX(ctx))
	require.NoError(t, d.EnableTiltDetection(ctx, Int2))
	assert.Equal(t, byte(0x0C), f.regs[regCtrl10C])
	odr, err := d.XODR(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(26), odr)

	require.NoError(t, d.DisableTiltDetection(ctx))
	assert.Equal(t, byte(0x00), f.regs[regCtrl10C])
}

func TestDevice_TapDetection(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	require.NoError(t, d.SetXFS(ctx, 16))
	require.NoError(t, d.EnableDoubleTapDetection(ctx, Int1))
	assert.Equal(t, byte(0x8E), f.regs[regTapCfg])
	assert.Equal(t, byte(0x0C), f.regs[regTapThs6D])
	assert.Equal(t, byte(0x7F), f.regs[regIntDur2])
	assert.Equal(t, byte(0x80), f.regs[regWakeUpThs]&0x80)
	fs, err := d.XFS(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(2), fs)

	require.NoError(t, d.SetTapThreshold(ctx, 0xFF))
	assert.Equal(t, byte(0x1F), f.regs[regTapThs6D])
	require.NoError(t, d.SetTapShockTime(ctx, TapShockTimeLow))
	require.NoError(t, d.SetTapQuietTime(ctx, TapQuietTimeMidLow))
	require.NoError(t, d.SetTapDurationTime(ctx, TapDurationTimeMid))
	assert.Equal(t, byte(0x84), f.regs[regIntDur2])

	require.NoError(t, d.DisableDoubleTapDetection(ctx))
	assert.Equal(t, byte(0x00), f.regs[regTapCfg])
	assert.Equal(t, byte(0x00), f.regs[regTapThs6D])
	assert.Equal(t, byte(0x00), f.regs[regIntDur2])
	assert.Equal(t, byte(0x00), f.regs[regWakeUpThs])

	require.NoError(t, d.EnableSingleTapDetection(ctx, NoInterrupt))
	assert.Equal(t, byte(0x8E), f.regs[regTapCfg])
	assert.Equal(t, byte(0x08), f.regs[regTapThs6D])
	assert.Equal(t, byte(0x06), f.regs[regIntDur2])
}

func TestDevice_WakeUpAnd6D(t *testing.T) {
	ctx := context.Background()
	d, f := begun(t)
	require.NoError(t, d.EnableWakeUpDetection(ctx, Int1))
	require.NoError(t, d.Enable6DOrientation(ctx, Int1))
	assert.Equal(t, byte(0x02), f.regs[regWakeUpThs])
	assert.Equal(t, byte(0x40), f.regs[regTapThs6D])
	assert.Equal(t, byte(0x24), f.regs[regMD1Cfg])

	require.NoError(t, d.SetWakeUpThreshold(ctx, WakeUpThresholdHigh|0xC0))
	assert.Equal(t, byte(0x3F), f.regs[regWakeUpThs])

	require.NoError(t, d.Disable6DOrientation(ctx))
	assert.Equal(t, byte(0x20), f.regs[regMD1Cfg])
	assert.Equal(t, byte(0x00), f.regs[regTapThs6D])
}

func TestInterruptPin_String(t *testing.T) {
	assert.Equal(t, "none", NoInterrupt.String())
	assert.Equal(t, "INT1", Int1.String())
	assert.Equal(t, "INT2", Int2.String())
	assert.Equal(t, "InterruptPin(9)", InterruptPin(9).String())
}
