package ism330dlc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/imu"
)

// DefaultSPISpeed is the SPI clock used unless WithSpeed overrides it.
const DefaultSPISpeed = 2_000_000

// defaultODR is applied on enable when no rate was requested yet.
const defaultODR = 104

// Device is an ISM330DLC bound to exactly one bus at construction time.
type Device struct {
	bus  binding
	xl   state
	gyro state
}

// state mirrors what the driver asked of a sub-device. lastODR is the rate
// restored by the next enable.
type state struct {
	enabled bool
	lastODR float32
}

type I2COpts struct {
	Address byte
}

type I2COpt func(*I2COpts)

// WithAddress selects the device address (AddressLow when SA0 is tied low).
func WithAddress(address byte) I2COpt {
	return func(o *I2COpts) {
		o.Address = address
	}
}

type SPIOpts struct {
	Speed int64
}

type SPIOpt func(*SPIOpts)

// WithSpeed sets the SPI clock in Hz.
func WithSpeed(hz int64) SPIOpt {
	return func(o *SPIOpts) {
		o.Speed = hz
	}
}

// NewI2C binds the driver to an I2C bus, at AddressHigh unless overridden.
func NewI2C(bus imu.I2CBus, opts ...I2COpt) *Device {
	config := I2COpts{Address: AddressHigh}
	for _, opt := range opts {
		opt(&config)
	}
	return newDevice(i2cBinding{bus: bus, addr: config.Address & 0x7F})
}

// NewSPI binds the driver to chip select cs of an SPI bus.
func NewSPI(bus imu.SPIBus, cs int, opts ...SPIOpt) *Device {
	config := SPIOpts{Speed: DefaultSPISpeed}
	for _, opt := range opts {
		opt(&config)
	}
	return newDevice(spiBinding{bus: bus, cs: cs, speed: config.Speed})
}

func newDevice(b binding) *Device {
	return &Device{
		bus:  b,
		xl:   state{lastODR: defaultODR},
		gyro: state{lastODR: defaultODR},
	}
}

func (d *Device) String() string {
	if d.bus == nil {
		return "ism330dlc(unbound)"
	}
	return "ism330dlc@" + d.bus.String()
}

// Begin checks the device identity and puts both sub-devices into power-down
// with known full scales.
func (d *Device) Begin(ctx context.Context) error {
	id, err := d.ReadID(ctx)
	if err != nil {
		return err
	}
	if id != WhoAmI {
		return fmt.Errorf("%w: %#02x, expected %#02x", ErrUnknownDevice, id, WhoAmI)
	}
	steps := []struct {
		f   field
		v   byte
		msg string
	}{
		{fieldIFInc, 1, "enable register auto-increment"},
		{fieldBDU, 1, "enable block data update"},
		{fieldFIFOMode, 0, "set FIFO bypass mode"},
		{fieldODRXL, 0, "power down accelerometer"},
		{fieldFSXL, xlScales[0].code, "set accelerometer full scale"},
		{fieldODRG, 0, "power down gyroscope"},
		{fieldFSG, gyroScales[len(gyroScales)-1].code, "set gyroscope full scale"},
	}
	for _, s := range steps {
		if err := d.setField(ctx, s.f, s.v); err != nil {
			return fmt.Errorf("ism330dlc: could not %s: %w", s.msg, err)
		}
	}
	d.xl = state{lastODR: defaultODR}
	d.gyro = state{lastODR: defaultODR}
	slog.DebugContext(ctx, "ism330dlc initialized", "bus", d.bus.String())
	return nil
}

// End powers both sub-devices down and releases the bus.
func (d *Device) End(ctx context.Context) error {
	if d.bus == nil {
		return ErrNoBus
	}
	if err := d.DisableX(ctx); err != nil {
		return err
	}
	if err := d.DisableG(ctx); err != nil {
		return err
	}
	if err := d.bus.release(ctx); err != nil {
		return fmt.Errorf("%w: release: %w", ErrBus, err)
	}
	return nil
}

// ReadID returns the content of the WHO_AM_I register.
func (d *Device) ReadID(ctx context.Context) (byte, error) {
	id, err := d.ReadReg(ctx, regWhoAmI)
	if err != nil {
		return 0, fmt.Errorf("ism330dlc: could not read device id: %w", err)
	}
	return id, nil
}

// ReadReg reads a single register.
func (d *Device) ReadReg(ctx context.Context, reg byte) (byte, error) {
	var buf [1]byte
	if err := d.read(ctx, reg, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteReg writes a single register.
func (d *Device) WriteReg(ctx context.Context, reg, val byte) error {
	return d.write(ctx, reg, []byte{val})
}

func (d *Device) read(ctx context.Context, reg byte, buf []byte) error {
	if d.bus == nil {
		return ErrNoBus
	}
	if err := d.bus.read(ctx, reg, buf); err != nil {
		return fmt.Errorf("%w: read %#02x: %w", ErrBus, reg, err)
	}
	return nil
}

func (d *Device) write(ctx context.Context, reg byte, data []byte) error {
	if d.bus == nil {
		return ErrNoBus
	}
	if err := d.bus.write(ctx, reg, data); err != nil {
		return fmt.Errorf("%w: write %#02x: %w", ErrBus, reg, err)
	}
	return nil
}

// update is the single read-modify-write path: bits outside mask keep their
// current value. Nothing is written when the read fails.
func (d *Device) update(ctx context.Context, reg, mask, val byte) error {
	cur, err := d.ReadReg(ctx, reg)
	if err != nil {
		return err
	}
	return d.WriteReg(ctx, reg, cur&^mask|val&mask)
}

// setField stores v in f; bits of v beyond the field width are dropped.
func (d *Device) setField(ctx context.Context, f field, v byte) error {
	return d.update(ctx, f.reg, f.mask, v<<f.shift)
}

func (d *Device) getField(ctx context.Context, f field) (byte, error) {
	v, err := d.ReadReg(ctx, f.reg)
	if err != nil {
		return 0, err
	}
	return (v & f.mask) >> f.shift, nil
}
