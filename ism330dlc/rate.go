package ism330dlc

import (
	"context"
	"fmt"
	"log/slog"
)

type odrSetting struct {
	hz   float32
	code byte
}

func (s odrSetting) value() float32 { return s.hz }

// scaleSetting ties a full scale to its register code and its sensitivity in
// micro-units per LSB (µg for the accelerometer, µdps for the gyroscope).
type scaleSetting struct {
	fs    float32
	code  byte
	micro int32
}

func (s scaleSetting) value() float32 { return s.fs }

// ODR_XL[3:0] (CTRL1_XL).
var xlODRs = []odrSetting{
	{12.5, 0x1}, {26, 0x2}, {52, 0x3}, {104, 0x4}, {208, 0x5},
	{416, 0x6}, {833, 0x7}, {1666, 0x8}, {3330, 0x9}, {6660, 0xA},
}

// ODR_G[3:0] (CTRL2_G).
var gyroODRs = []odrSetting{
	{12.5, 0x1}, {26, 0x2}, {52, 0x3}, {104, 0x4}, {208, 0x5},
	{416, 0x6}, {833, 0x7}, {1666, 0x8}, {3330, 0x9}, {6660, 0xA},
}

// FS_XL[1:0]; sensitivities are datasheet table 3 constants.
var xlScales = []scaleSetting{
	{2, 0b00, 61},
	{4, 0b10, 122},
	{8, 0b11, 244},
	{16, 0b01, 488},
}

// FS_G[1:0] followed by FS_125.
var gyroScales = []scaleSetting{
	{125, 0b001, 4375},
	{245, 0b000, 8750},
	{500, 0b010, 17500},
	{1000, 0b100, 35000},
	{2000, 0b110, 70000},
}

// nearest picks the table entry closest to v. Ties at a midpoint go to the
// higher entry; values outside the table clamp to its ends.
func nearest[T interface{ value() float32 }](table []T, v float32) T {
	for i := 0; i < len(table)-1; i++ {
		if v < (table[i].value()+table[i+1].value())/2 {
			return table[i]
		}
	}
	return table[len(table)-1]
}

// unit describes one sub-device.
type unit struct {
	name   string
	odr    field
	fs     field
	out    byte
	odrs   []odrSetting
	scales []scaleSetting
}

var (
	accelerometer = &unit{
		name:   "accelerometer",
		odr:    fieldODRXL,
		fs:     fieldFSXL,
		out:    regOutXLXL,
		odrs:   xlODRs,
		scales: xlScales,
	}
	gyroscope = &unit{
		name:   "gyroscope",
		odr:    fieldODRG,
		fs:     fieldFSG,
		out:    regOutXLG,
		odrs:   gyroODRs,
		scales: gyroScales,
	}
)

func (u *unit) decodeODR(code byte) (float32, error) {
	if code == 0 {
		return 0, nil
	}
	for _, s := range u.odrs {
		if s.code == code {
			return s.hz, nil
		}
	}
	return 0, fmt.Errorf("%w: %s ODR code %#x", ErrUnexpectedValue, u.name, code)
}

func (u *unit) decodeScale(code byte) (scaleSetting, error) {
	for _, s := range u.scales {
		if s.code == code {
			return s, nil
		}
	}
	// FS_125 takes precedence over FS_G
	if u == gyroscope && code&0x1 != 0 {
		return u.scales[0], nil
	}
	return scaleSetting{}, fmt.Errorf("%w: %s full scale code %#x", ErrUnexpectedValue, u.name, code)
}

func (d *Device) enable(ctx context.Context, u *unit, s *state) error {
	if s.enabled {
		return nil
	}
	odr := s.lastODR
	if odr <= 0 {
		odr = defaultODR
	}
	if err := d.setField(ctx, u.odr, nearest(u.odrs, odr).code); err != nil {
		return fmt.Errorf("ism330dlc: could not enable %s: %w", u.name, err)
	}
	s.enabled = true
	slog.DebugContext(ctx, "ism330dlc sub-device enabled", "unit", u.name, "odr", odr)
	return nil
}

func (d *Device) disable(ctx context.Context, u *unit, s *state) error {
	if !s.enabled {
		return nil
	}
	odr, err := d.odr(ctx, u)
	if err != nil {
		return fmt.Errorf("ism330dlc: could not disable %s: %w", u.name, err)
	}
	if err := d.setField(ctx, u.odr, 0); err != nil {
		return fmt.Errorf("ism330dlc: could not disable %s: %w", u.name, err)
	}
	if odr > 0 {
		s.lastODR = odr
	}
	s.enabled = false
	slog.DebugContext(ctx, "ism330dlc sub-device disabled", "unit", u.name, "last_odr", s.lastODR)
	return nil
}

func (d *Device) odr(ctx context.Context, u *unit) (float32, error) {
	code, err := d.getField(ctx, u.odr)
	if err != nil {
		return 0, err
	}
	return u.decodeODR(code)
}

// setODR writes the rate to a running sub-device; a stopped one only
// remembers it so that configuring never powers the sensor on.
func (d *Device) setODR(ctx context.Context, u *unit, s *state, hz float32) error {
	setting := nearest(u.odrs, hz)
	if !s.enabled {
		s.lastODR = setting.hz
		return nil
	}
	if err := d.setField(ctx, u.odr, setting.code); err != nil {
		return fmt.Errorf("ism330dlc: could not set %s ODR: %w", u.name, err)
	}
	return nil
}

func (d *Device) scale(ctx context.Context, u *unit) (scaleSetting, error) {
	code, err := d.getField(ctx, u.fs)
	if err != nil {
		return scaleSetting{}, err
	}
	return u.decodeScale(code)
}

func (d *Device) setScale(ctx context.Context, u *unit, fs float32) error {
	if err := d.setField(ctx, u.fs, nearest(u.scales, fs).code); err != nil {
		return fmt.Errorf("ism330dlc: could not set %s full scale: %w", u.name, err)
	}
	return nil
}

// EnableX starts the accelerometer at its last requested rate.
func (d *Device) EnableX(ctx context.Context) error { return d.enable(ctx, accelerometer, &d.xl) }

// EnableG starts the gyroscope at its last requested rate.
func (d *Device) EnableG(ctx context.Context) error { return d.enable(ctx, gyroscope, &d.gyro) }

// DisableX powers the accelerometer down, remembering its current rate.
func (d *Device) DisableX(ctx context.Context) error { return d.disable(ctx, accelerometer, &d.xl) }

// DisableG powers the gyroscope down, remembering its current rate.
func (d *Device) DisableG(ctx context.Context) error { return d.disable(ctx, gyroscope, &d.gyro) }

// XEnabled reports whether the driver has the accelerometer running.
func (d *Device) XEnabled() bool { return d.xl.enabled }

// GEnabled reports whether the driver has the gyroscope running.
func (d *Device) GEnabled() bool { return d.gyro.enabled }

// XODR returns the live accelerometer rate in Hz, 0 when powered down.
func (d *Device) XODR(ctx context.Context) (float32, error) {
	odr, err := d.odr(ctx, accelerometer)
	if err != nil {
		return 0, fmt.Errorf("ism330dlc: could not get accelerometer ODR: %w", err)
	}
	return odr, nil
}

// GODR returns the live gyroscope rate in Hz, 0 when powered down.
func (d *Device) GODR(ctx context.Context) (float32, error) {
	odr, err := d.odr(ctx, gyroscope)
	if err != nil {
		return 0, fmt.Errorf("ism330dlc: could not get gyroscope ODR: %w", err)
	}
	return odr, nil
}

// SetXODR requests an accelerometer rate, snapped to the nearest supported one.
func (d *Device) SetXODR(ctx context.Context, hz float32) error {
	return d.setODR(ctx, accelerometer, &d.xl, hz)
}

// SetGODR requests a gyroscope rate, snapped to the nearest supported one.
func (d *Device) SetGODR(ctx context.Context, hz float32) error {
	return d.setODR(ctx, gyroscope, &d.gyro, hz)
}

// XFS returns the accelerometer full scale in g.
func (d *Device) XFS(ctx context.Context) (float32, error) {
	s, err := d.scale(ctx, accelerometer)
	if err != nil {
		return 0, fmt.Errorf("ism330dlc: could not get accelerometer full scale: %w", err)
	}
	return s.fs, nil
}

// GFS returns the gyroscope full scale in dps.
func (d *Device) GFS(ctx context.Context) (float32, error) {
	s, err := d.scale(ctx, gyroscope)
	if err != nil {
		return 0, fmt.Errorf("ism330dlc: could not get gyroscope full scale: %w", err)
	}
	return s.fs, nil
}

// SetXFS selects the supported accelerometer scale (2, 4, 8, 16 g) nearest to g.
func (d *Device) SetXFS(ctx context.Context, g float32) error {
	return d.setScale(ctx, accelerometer, g)
}

// SetGFS selects the supported gyroscope scale (125 to 2000 dps) nearest to dps.
func (d *Device) SetGFS(ctx context.Context, dps float32) error {
	return d.setScale(ctx, gyroscope, dps)
}

// XSensitivity returns the accelerometer sensitivity in mg/LSB.
func (d *Device) XSensitivity(ctx context.Context) (float32, error) {
	s, err := d.scale(ctx, accelerometer)
	if err != nil {
		return 0, fmt.Errorf("ism330dlc: could not get accelerometer sensitivity: %w", err)
	}
	return float32(s.micro) / 1000, nil
}

// GSensitivity returns the gyroscope sensitivity in mdps/LSB.
func (d *Device) GSensitivity(ctx context.Context) (float32, error) {
	s, err := d.scale(ctx, gyroscope)
	if err != nil {
		return 0, fmt.Errorf("ism330dlc: could not get gyroscope sensitivity: %w", err)
	}
	return float32(s.micro) / 1000, nil
}
