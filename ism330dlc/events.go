package ism330dlc

import (
	"context"
	"fmt"
)

// EventStatus is a snapshot of the embedded event sources. Flags are reported
// as the device latched them, whether or not the driver enabled the detector.
type EventStatus struct {
	FreeFall      bool
	Tap           bool
	DoubleTap     bool
	WakeUp        bool
	Tilt          bool
	Orientation6D bool
}

// Orientation holds the D6D_SRC position flags.
type Orientation struct {
	XL, XH bool
	YL, YH bool
	ZL, ZH bool
}

// EventStatus reads WAKE_UP_SRC, TAP_SRC, D6D_SRC and FUNC_SRC1.
func (d *Device) EventStatus(ctx context.Context) (EventStatus, error) {
	var src [4]byte
	for i, reg := range []byte{regWakeUpSrc, regTapSrc, regD6DSrc, regFuncSrc1} {
		v, err := d.ReadReg(ctx, reg)
		if err != nil {
			return EventStatus{}, fmt.Errorf("ism330dlc: could not read event status: %w", err)
		}
		src[i] = v
	}
	return EventStatus{
		FreeFall:      src[0]&srcFreeFall != 0,
		WakeUp:        src[0]&srcWakeUp != 0,
		Tap:           src[1]&srcSingleTap != 0,
		DoubleTap:     src[1]&srcDoubleTap != 0,
		Orientation6D: src[2]&src6D != 0,
		Tilt:          src[3]&srcTilt != 0,
	}, nil
}

// Orientation6D decodes all position flags from a single D6D_SRC read.
func (d *Device) Orientation6D(ctx context.Context) (Orientation, error) {
	v, err := d.ReadReg(ctx, regD6DSrc)
	if err != nil {
		return Orientation{}, fmt.Errorf("ism330dlc: could not read 6D orientation: %w", err)
	}
	return Orientation{
		XL: v&d6dXL != 0,
		XH: v&d6dXH != 0,
		YL: v&d6dYL != 0,
		YH: v&d6dYH != 0,
		ZL: v&d6dZL != 0,
		ZH: v&d6dZH != 0,
	}, nil
}

func (d *Device) orientationFlag(ctx context.Context, mask byte) (bool, error) {
	v, err := d.ReadReg(ctx, regD6DSrc)
	if err != nil {
		return false, fmt.Errorf("ism330dlc: could not read 6D orientation: %w", err)
	}
	return v&mask != 0, nil
}

// Orientation6DXL reports the X axis low position flag.
func (d *Device) Orientation6DXL(ctx context.Context) (bool, error) {
	return d.orientationFlag(ctx, d6dXL)
}

// Orientation6DXH reports the X axis high position flag.
func (d *Device) Orientation6DXH(ctx context.Context) (bool, error) {
	return d.orientationFlag(ctx, d6dXH)
}

// Orientation6DYL reports the Y axis low position flag.
func (d *Device) Orientation6DYL(ctx context.Context) (bool, error) {
	return d.orientationFlag(ctx, d6dYL)
}

// Orientation6DYH reports the Y axis high position flag.
func (d *Device) Orientation6DYH(ctx context.Context) (bool, error) {
	return d.orientationFlag(ctx, d6dYH)
}

// Orientation6DZL reports the Z axis low position flag.
func (d *Device) Orientation6DZL(ctx context.Context) (bool, error) {
	return d.orientationFlag(ctx, d6dZL)
}

// Orientation6DZH reports the Z axis high position flag.
func (d *Device) Orientation6DZH(ctx context.Context) (bool, error) {
	return d.orientationFlag(ctx, d6dZH)
}
