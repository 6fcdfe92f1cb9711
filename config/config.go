// Package config holds the YAML device profile used by the imu tool.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/imu/ism330dlc"
)

// Version is set at build time.
var Version = "dev"

const (
	BusI2C = "i2c"
	BusSPI = "spi"

	AdapterPeriph  = "periph"
	AdapterMCP2221 = "mcp2221"
	AdapterGobot   = "gobot"
)

var ErrInvalid = errors.New("invalid profile")

type Profile struct {
	Bus           Bus        `yaml:"bus"`
	Accelerometer SubDevice  `yaml:"accelerometer"`
	Gyroscope     SubDevice  `yaml:"gyroscope"`
	Features      Features   `yaml:"features"`
	Thresholds    Thresholds `yaml:"thresholds"`
}

type Bus struct {
	Kind    string `yaml:"kind"`
	Adapter string `yaml:"adapter"`
	// Device is the periph bus or port name; empty selects the first one.
	Device  string `yaml:"device,omitempty"`
	Address uint8  `yaml:"address"`
	CS      int    `yaml:"cs"`
	// CSPin names a GPIO driven as chip select by the periph SPI backend.
	CSPin string `yaml:"cs_pin,omitempty"`
	Speed int64  `yaml:"speed"`
}

type SubDevice struct {
	Enabled   bool    `yaml:"enabled"`
	ODR       float32 `yaml:"odr"`
	FullScale float32 `yaml:"full_scale"`
}

type Feature struct {
	Enabled bool `yaml:"enabled"`
	// Pin is one of none, int1, int2.
	Pin string `yaml:"pin,omitempty"`
}

type Features struct {
	FreeFall      Feature `yaml:"free_fall"`
	Tilt          Feature `yaml:"tilt"`
	WakeUp        Feature `yaml:"wake_up"`
	SingleTap     Feature `yaml:"single_tap"`
	DoubleTap     Feature `yaml:"double_tap"`
	Orientation6D Feature `yaml:"orientation_6d"`
}

// Thresholds are raw register codes; nil leaves the detector default.
type Thresholds struct {
	FreeFall    *uint8 `yaml:"free_fall,omitempty"`
	WakeUp      *uint8 `yaml:"wake_up,omitempty"`
	Tap         *uint8 `yaml:"tap,omitempty"`
	TapShock    *uint8 `yaml:"tap_shock,omitempty"`
	TapQuiet    *uint8 `yaml:"tap_quiet,omitempty"`
	TapDuration *uint8 `yaml:"tap_duration,omitempty"`
}

func Defaults() Profile {
	return Profile{
		Bus: Bus{
			Kind:    BusI2C,
			Adapter: AdapterPeriph,
			Address: ism330dlc.AddressHigh,
			Speed:   ism330dlc.DefaultSPISpeed,
		},
		Accelerometer: SubDevice{Enabled: true, ODR: 104, FullScale: 2},
		Gyroscope:     SubDevice{Enabled: true, ODR: 104, FullScale: 2000},
	}
}

// Load reads the profile at path on top of Defaults.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("could not read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes a profile on top of Defaults and validates it.
func Parse(data []byte) (Profile, error) {
	p := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("could not parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

func (p Profile) Validate() error {
	switch p.Bus.Kind {
	case BusI2C:
		if p.Bus.Adapter != AdapterPeriph && p.Bus.Adapter != AdapterMCP2221 {
			return fmt.Errorf("%w: adapter %q cannot drive an i2c bus", ErrInvalid, p.Bus.Adapter)
		}
		if p.Bus.Address > 0x7F {
			return fmt.Errorf("%w: i2c address %#x is not a 7-bit address", ErrInvalid, p.Bus.Address)
		}
	case BusSPI:
		if p.Bus.Adapter != AdapterPeriph && p.Bus.Adapter != AdapterGobot {
			return fmt.Errorf("%w: adapter %q cannot drive an spi bus", ErrInvalid, p.Bus.Adapter)
		}
		if p.Bus.Speed <= 0 {
			return fmt.Errorf("%w: spi speed must be positive", ErrInvalid)
		}
		if p.Bus.CS < 0 {
			return fmt.Errorf("%w: negative chip select %d", ErrInvalid, p.Bus.CS)
		}
	default:
		return fmt.Errorf("%w: unknown bus kind %q", ErrInvalid, p.Bus.Kind)
	}
	for name, sub := range map[string]SubDevice{"accelerometer": p.Accelerometer, "gyroscope": p.Gyroscope} {
		if sub.ODR < 0 || sub.FullScale < 0 {
			return fmt.Errorf("%w: %s odr and full scale must not be negative", ErrInvalid, name)
		}
	}
	for _, f := range p.Features.list() {
		if _, err := f.feature.InterruptPin(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, f.name, err)
		}
	}
	return nil
}

// InterruptPin parses Pin; an empty pin means no routing.
func (f Feature) InterruptPin() (ism330dlc.InterruptPin, error) {
	switch strings.ToLower(f.Pin) {
	case "", "none":
		return ism330dlc.NoInterrupt, nil
	case "int1":
		return ism330dlc.Int1, nil
	case "int2":
		return ism330dlc.Int2, nil
	default:
		return ism330dlc.NoInterrupt, fmt.Errorf("unknown interrupt pin %q", f.Pin)
	}
}

type namedFeature struct {
	name    string
	feature Feature
	enable  func(*ism330dlc.Device, context.Context, ism330dlc.InterruptPin) error
	disable func(*ism330dlc.Device, context.Context) error
}

func (f Features) list() []namedFeature {
	return []namedFeature{
		{"free_fall", f.FreeFall, (*ism330dlc.Device).EnableFreeFallDetection, (*ism330dlc.Device).DisableFreeFallDetection},
		{"tilt", f.Tilt, (*ism330dlc.Device).EnableTiltDetection, (*ism330dlc.Device).DisableTiltDetection},
		{"wake_up", f.WakeUp, (*ism330dlc.Device).EnableWakeUpDetection, (*ism330dlc.Device).DisableWakeUpDetection},
		{"single_tap", f.SingleTap, (*ism330dlc.Device).EnableSingleTapDetection, (*ism330dlc.Device).DisableSingleTapDetection},
		{"double_tap", f.DoubleTap, (*ism330dlc.Device).EnableDoubleTapDetection, (*ism330dlc.Device).DisableDoubleTapDetection},
		{"orientation_6d", f.Orientation6D, (*ism330dlc.Device).Enable6DOrientation, (*ism330dlc.Device).Disable6DOrientation},
	}
}

// Apply configures a begun device. Profile rates and scales are written first;
// an enabled detector then sets the accelerometer rate and scale it needs.
// Disabled features are torn down before enabled ones are set up, as
// detectors share TAP_CFG and WAKE_UP_DUR.
func (p Profile) Apply(ctx context.Context, dev *ism330dlc.Device) error {
	if err := p.Validate(); err != nil {
		return err
	}
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"accelerometer full scale", func(ctx context.Context) error { return dev.SetXFS(ctx, p.Accelerometer.FullScale) }},
		{"accelerometer odr", func(ctx context.Context) error { return dev.SetXODR(ctx, p.Accelerometer.ODR) }},
		{"gyroscope full scale", func(ctx context.Context) error { return dev.SetGFS(ctx, p.Gyroscope.FullScale) }},
		{"gyroscope odr", func(ctx context.Context) error { return dev.SetGODR(ctx, p.Gyroscope.ODR) }},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("could not apply %s: %w", s.name, err)
		}
	}

	features := p.Features.list()
	for _, f := range features {
		if f.feature.Enabled {
			continue
		}
		if err := f.disable(dev, ctx); err != nil {
			return fmt.Errorf("could not disable %s: %w", f.name, err)
		}
	}
	for _, f := range features {
		if !f.feature.Enabled {
			continue
		}
		pin, _ := f.feature.InterruptPin()
		if err := f.enable(dev, ctx, pin); err != nil {
			return fmt.Errorf("could not enable %s: %w", f.name, err)
		}
		slog.DebugContext(ctx, "detector overrides profile accelerometer rate and scale", "detector", f.name,
			"odr", p.Accelerometer.ODR, "full_scale", p.Accelerometer.FullScale)
	}
	if err := p.Thresholds.apply(ctx, dev); err != nil {
		return err
	}

	for _, s := range []struct {
		name    string
		enabled bool
		enable  func(context.Context) error
		disable func(context.Context) error
	}{
		{"accelerometer", p.Accelerometer.Enabled, dev.EnableX, dev.DisableX},
		{"gyroscope", p.Gyroscope.Enabled, dev.EnableG, dev.DisableG},
	} {
		fn := s.disable
		if s.enabled {
			fn = s.enable
		}
		if err := fn(ctx); err != nil {
			return fmt.Errorf("could not switch %s: %w", s.name, err)
		}
	}
	return nil
}

func (t Thresholds) apply(ctx context.Context, dev *ism330dlc.Device) error {
	for _, s := range []struct {
		name string
		v    *uint8
		set  func(context.Context, byte) error
	}{
		{"free-fall threshold", t.FreeFall, dev.SetFreeFallThreshold},
		{"wake-up threshold", t.WakeUp, dev.SetWakeUpThreshold},
		{"tap threshold", t.Tap, dev.SetTapThreshold},
		{"tap shock time", t.TapShock, dev.SetTapShockTime},
		{"tap quiet time", t.TapQuiet, dev.SetTapQuietTime},
		{"tap duration time", t.TapDuration, dev.SetTapDurationTime},
	} {
		if s.v == nil {
			continue
		}
		if err := s.set(ctx, *s.v); err != nil {
			return fmt.Errorf("could not apply %s: %w", s.name, err)
		}
	}
	return nil
}
