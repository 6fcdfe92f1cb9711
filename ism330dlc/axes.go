package ism330dlc

import (
	"context"
	"encoding/binary"
	"fmt"
)

// RawAxes holds one output sample in LSB.
type RawAxes struct {
	X, Y, Z int16
}

// Axes holds one output sample in mg (accelerometer) or mdps (gyroscope).
type Axes struct {
	X, Y, Z int32
}

func (d *Device) rawAxes(ctx context.Context, u *unit) (RawAxes, error) {
	var buf [6]byte
	if err := d.read(ctx, u.out, buf[:]); err != nil {
		return RawAxes{}, err
	}
	return RawAxes{
		X: int16(binary.LittleEndian.Uint16(buf[0:])),
		Y: int16(binary.LittleEndian.Uint16(buf[2:])),
		Z: int16(binary.LittleEndian.Uint16(buf[4:])),
	}, nil
}

// scaled converts raw counts with a sensitivity given in micro-units per LSB.
// The product is kept in 64 bits: 32767 * 70000 does not fit int32.
func scaled(raw int16, micro int32) int32 {
	return int32(int64(raw) * int64(micro) / 1000)
}

func (d *Device) axes(ctx context.Context, u *unit) (Axes, error) {
	s, err := d.scale(ctx, u)
	if err != nil {
		return Axes{}, err
	}
	raw, err := d.rawAxes(ctx, u)
	if err != nil {
		return Axes{}, err
	}
	return Axes{
		X: scaled(raw.X, s.micro),
		Y: scaled(raw.Y, s.micro),
		Z: scaled(raw.Z, s.micro),
	}, nil
}

// XAxesRaw reads the accelerometer output registers.
func (d *Device) XAxesRaw(ctx context.Context) (RawAxes, error) {
	raw, err := d.rawAxes(ctx, accelerometer)
	if err != nil {
		return RawAxes{}, fmt.Errorf("ism330dlc: could not read accelerometer: %w", err)
	}
	return raw, nil
}

// GAxesRaw reads the gyroscope output registers.
func (d *Device) GAxesRaw(ctx context.Context) (RawAxes, error) {
	raw, err := d.rawAxes(ctx, gyroscope)
	if err != nil {
		return RawAxes{}, fmt.Errorf("ism330dlc: could not read gyroscope: %w", err)
	}
	return raw, nil
}

// XAxes returns the acceleration in mg at the current full scale.
func (d *Device) XAxes(ctx context.Context) (Axes, error) {
	a, err := d.axes(ctx, accelerometer)
	if err != nil {
		return Axes{}, fmt.Errorf("ism330dlc: could not read accelerometer: %w", err)
	}
	return a, nil
}

// GAxes returns the angular rate in mdps at the current full scale.
func (d *Device) GAxes(ctx context.Context) (Axes, error) {
	a, err := d.axes(ctx, gyroscope)
	if err != nil {
		return Axes{}, fmt.Errorf("ism330dlc: could not read gyroscope: %w", err)
	}
	return a, nil
}
