package ism330dlc

import (
	"context"
	"fmt"
	"log/slog"
)

// InterruptPin selects the output line an event is routed to.
type InterruptPin uint8

const (
	NoInterrupt InterruptPin = iota
	Int1
	Int2
)

func (p InterruptPin) String() string {
	switch p {
	case NoInterrupt:
		return "none"
	case Int1:
		return "INT1"
	case Int2:
		return "INT2"
	default:
		return fmt.Sprintf("InterruptPin(%d)", uint8(p))
	}
}

// Free-fall thresholds (FREE_FALL.FF_THS).
const (
	FreeFallThreshold156mg byte = iota
	FreeFallThreshold219mg
	FreeFallThreshold250mg
	FreeFallThreshold312mg
	FreeFallThreshold344mg
	FreeFallThreshold406mg
	FreeFallThreshold469mg
	FreeFallThreshold500mg
)

// Wake-up thresholds (WAKE_UP_THS.WK_THS), 1 LSB = FS_XL / 64.
const (
	WakeUpThresholdLow     byte = 0x01
	WakeUpThresholdMidLow  byte = 0x0F
	WakeUpThresholdMid     byte = 0x1F
	WakeUpThresholdMidHigh byte = 0x2F
	WakeUpThresholdHigh    byte = 0x3F
)

// Tap thresholds (TAP_THS_6D.TAP_THS), 1 LSB = FS_XL / 32.
const (
	TapThresholdLow     byte = 0x01
	TapThresholdMidLow  byte = 0x08
	TapThresholdMid     byte = 0x10
	TapThresholdMidHigh byte = 0x18
	TapThresholdHigh    byte = 0x1F
)

// Tap shock window (INT_DUR2.SHOCK).
const (
	TapShockTimeLow     byte = 0x00
	TapShockTimeMidLow  byte = 0x01
	TapShockTimeMidHigh byte = 0x02
	TapShockTimeHigh    byte = 0x03
)

// Tap quiet window (INT_DUR2.QUIET).
const (
	TapQuietTimeLow     byte = 0x00
	TapQuietTimeMidLow  byte = 0x01
	TapQuietTimeMidHigh byte = 0x02
	TapQuietTimeHigh    byte = 0x03
)

// Double tap gap (INT_DUR2.DUR).
const (
	TapDurationTimeLow     byte = 0x00
	TapDurationTimeMidLow  byte = 0x04
	TapDurationTimeMid     byte = 0x08
	TapDurationTimeMidHigh byte = 0x0C
	TapDurationTimeHigh    byte = 0x0F
)

type fieldValue struct {
	f field
	v byte
}

// detector is the register recipe of one embedded event.
type detector struct {
	name     string
	route    byte
	odr      float32
	setup    []fieldValue
	teardown []fieldValue
}

var (
	freeFallDetector = detector{
		name:  "free-fall",
		route: routeFreeFall,
		odr:   416,
		setup: []fieldValue{
			{fieldFFDur5, 0},
			{fieldFFDur, 6},
			{fieldWakeDur, 0},
			{fieldTimerHR, 0},
			{fieldSleepDur, 0},
			{fieldFFThs, FreeFallThreshold312mg},
			{fieldIntEnable, 1},
		},
		teardown: []fieldValue{
			{fieldIntEnable, 0},
			{fieldFFDur, 0},
			{fieldFFThs, 0},
		},
	}
	tiltDetector = detector{
		name:  "tilt",
		route: routeTilt,
		odr:   26,
		setup: []fieldValue{
			{fieldFuncEn, 1},
			{fieldTiltEn, 1},
		},
		teardown: []fieldValue{
			{fieldTiltEn, 0},
			{fieldFuncEn, 0},
		},
	}
	wakeUpDetector = detector{
		name:  "wake-up",
		route: routeWakeUp,
		odr:   416,
		setup: []fieldValue{
			{fieldWakeDur, 0},
			{fieldWakeUpThs, 2},
			{fieldIntEnable, 1},
		},
		teardown: []fieldValue{
			{fieldIntEnable, 0},
			{fieldWakeDur, 0},
			{fieldWakeUpThs, 0},
		},
	}
	singleTapDetector = detector{
		name:  "single tap",
		route: routeSingleTap,
		odr:   416,
		setup: []fieldValue{
			{fieldTapAxes, 0x7},
			{fieldTapThs, TapThresholdMidLow},
			{fieldTapShock, TapShockTimeMidHigh},
			{fieldTapQuiet, TapQuietTimeMidLow},
			{fieldSingleDoubleTap, 0},
			{fieldIntEnable, 1},
		},
		teardown: []fieldValue{
			{fieldIntEnable, 0},
			{fieldTapThs, 0},
			{fieldTapShock, 0},
			{fieldTapQuiet, 0},
			{fieldTapAxes, 0},
		},
	}
	doubleTapDetector = detector{
		name:  "double tap",
		route: routeDoubleTap,
		odr:   416,
		setup: []fieldValue{
			{fieldTapAxes, 0x7},
			{fieldTapThs, 0x0C},
			{fieldTapShock, TapShockTimeHigh},
			{fieldTapQuiet, TapQuietTimeHigh},
			{fieldTapDur, 0x07},
			{fieldSingleDoubleTap, 1},
			{fieldIntEnable, 1},
		},
		teardown: []fieldValue{
			{fieldIntEnable, 0},
			{fieldTapThs, 0},
			{fieldTapShock, 0},
			{fieldTapQuiet, 0},
			{fieldTapDur, 0},
			{fieldSingleDoubleTap, 0},
			{fieldTapAxes, 0},
		},
	}
	sixDDetector = detector{
		name:  "6D orientation",
		route: route6D,
		odr:   416,
		setup: []fieldValue{
			{fieldSixDThs, 0x2}, // 60 degrees
			{fieldIntEnable, 1},
		},
		teardown: []fieldValue{
			{fieldIntEnable, 0},
			{fieldSixDThs, 0},
		},
	}
)

func (d *Device) applyFields(ctx context.Context, fields []fieldValue) error {
	for _, fv := range fields {
		if err := d.setField(ctx, fv.f, fv.v); err != nil {
			return err
		}
	}
	return nil
}

// enableDetector starts the accelerometer configuration a detector needs,
// writes its recipe and routes it to pin. Other detectors are left as they are.
func (d *Device) enableDetector(ctx context.Context, det detector, pin InterruptPin) error {
	var routeReg byte
	switch pin {
	case NoInterrupt:
	case Int1:
		routeReg = regMD1Cfg
	case Int2:
		routeReg = regMD2Cfg
	default:
		return fmt.Errorf("ism330dlc: could not enable %s detection: invalid interrupt pin %d", det.name, pin)
	}
	if err := d.SetXODR(ctx, det.odr); err != nil {
		return fmt.Errorf("ism330dlc: could not enable %s detection: %w", det.name, err)
	}
	if err := d.SetXFS(ctx, 2); err != nil {
		return fmt.Errorf("ism330dlc: could not enable %s detection: %w", det.name, err)
	}
	if err := d.applyFields(ctx, det.setup); err != nil {
		return fmt.Errorf("ism330dlc: could not enable %s detection: %w", det.name, err)
	}
	if routeReg != 0 {
		if err := d.update(ctx, routeReg, det.route, det.route); err != nil {
			return fmt.Errorf("ism330dlc: could not route %s to %s: %w", det.name, pin, err)
		}
	}
	slog.DebugContext(ctx, "ism330dlc detector enabled", "detector", det.name, "pin", pin.String())
	return nil
}

func (d *Device) disableDetector(ctx context.Context, det detector) error {
	for _, reg := range []byte{regMD1Cfg, regMD2Cfg} {
		if err := d.update(ctx, reg, det.route, 0); err != nil {
			return fmt.Errorf("ism330dlc: could not disable %s detection: %w", det.name, err)
		}
	}
	if err := d.applyFields(ctx, det.teardown); err != nil {
		return fmt.Errorf("ism330dlc: could not disable %s detection: %w", det.name, err)
	}
	slog.DebugContext(ctx, "ism330dlc detector disabled", "detector", det.name)
	return nil
}

// EnableFreeFallDetection arms free-fall detection at 312 mg for 6 samples.
func (d *Device) EnableFreeFallDetection(ctx context.Context, pin InterruptPin) error {
	return d.enableDetector(ctx, freeFallDetector, pin)
}

// DisableFreeFallDetection unroutes free-fall and clears its thresholds.
func (d *Device) DisableFreeFallDetection(ctx context.Context) error {
	return d.disableDetector(ctx, freeFallDetector)
}

// SetFreeFallThreshold writes one of the FreeFallThreshold codes.
func (d *Device) SetFreeFallThreshold(ctx context.Context, code byte) error {
	if err := d.setField(ctx, fieldFFThs, code); err != nil {
		return fmt.Errorf("ism330dlc: could not set free-fall threshold: %w", err)
	}
	return nil
}

// EnableTiltDetection turns on the embedded functions block and its tilt
// calculator, with the accelerometer at 26 Hz.
func (d *Device) EnableTiltDetection(ctx context.Context, pin InterruptPin) error {
	return d.enableDetector(ctx, tiltDetector, pin)
}

// DisableTiltDetection unroutes tilt and turns the embedded functions off.
func (d *Device) DisableTiltDetection(ctx context.Context) error {
	return d.disableDetector(ctx, tiltDetector)
}

// EnableWakeUpDetection arms wake-up detection with a threshold of 2 LSB.
func (d *Device) EnableWakeUpDetection(ctx context.Context, pin InterruptPin) error {
	return d.enableDetector(ctx, wakeUpDetector, pin)
}

// DisableWakeUpDetection unroutes wake-up and clears its threshold.
func (d *Device) DisableWakeUpDetection(ctx context.Context) error {
	return d.disableDetector(ctx, wakeUpDetector)
}

// SetWakeUpThreshold writes WK_THS; only the low six bits are used.
func (d *Device) SetWakeUpThreshold(ctx context.Context, thr byte) error {
	if err := d.setField(ctx, fieldWakeUpThs, thr); err != nil {
		return fmt.Errorf("ism330dlc: could not set wake-up threshold: %w", err)
	}
	return nil
}

// EnableSingleTapDetection arms single tap detection on all three axes.
func (d *Device) EnableSingleTapDetection(ctx context.Context, pin InterruptPin) error {
	return d.enableDetector(ctx, singleTapDetector, pin)
}

// DisableSingleTapDetection unroutes single tap and clears the tap settings.
func (d *Device) DisableSingleTapDetection(ctx context.Context) error {
	return d.disableDetector(ctx, singleTapDetector)
}

// EnableDoubleTapDetection arms double tap detection on all three axes.
func (d *Device) EnableDoubleTapDetection(ctx context.Context, pin InterruptPin) error {
	return d.enableDetector(ctx, doubleTapDetector, pin)
}

// DisableDoubleTapDetection unroutes double tap and clears the tap settings.
func (d *Device) DisableDoubleTapDetection(ctx context.Context) error {
	return d.disableDetector(ctx, doubleTapDetector)
}

// SetTapThreshold writes TAP_THS; only the low five bits are used.
func (d *Device) SetTapThreshold(ctx context.Context, thr byte) error {
	if err := d.setField(ctx, fieldTapThs, thr); err != nil {
		return fmt.Errorf("ism330dlc: could not set tap threshold: %w", err)
	}
	return nil
}

// SetTapShockTime sets the maximum duration of an over-threshold tap.
func (d *Device) SetTapShockTime(ctx context.Context, t byte) error {
	if err := d.setField(ctx, fieldTapShock, t); err != nil {
		return fmt.Errorf("ism330dlc: could not set tap shock time: %w", err)
	}
	return nil
}

// SetTapQuietTime sets the quiet window expected after a tap.
func (d *Device) SetTapQuietTime(ctx context.Context, t byte) error {
	if err := d.setField(ctx, fieldTapQuiet, t); err != nil {
		return fmt.Errorf("ism330dlc: could not set tap quiet time: %w", err)
	}
	return nil
}

// SetTapDurationTime sets the maximum gap between the two taps of a double tap.
func (d *Device) SetTapDurationTime(ctx context.Context, t byte) error {
	if err := d.setField(ctx, fieldTapDur, t); err != nil {
		return fmt.Errorf("ism330dlc: could not set tap duration time: %w", err)
	}
	return nil
}

// Enable6DOrientation arms 6D orientation detection with a 60 degree threshold.
func (d *Device) Enable6DOrientation(ctx context.Context, pin InterruptPin) error {
	return d.enableDetector(ctx, sixDDetector, pin)
}

// Disable6DOrientation unroutes 6D orientation and clears its threshold.
func (d *Device) Disable6DOrientation(ctx context.Context) error {
	return d.disableDetector(ctx, sixDDetector)
}
