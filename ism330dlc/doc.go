// Package ism330dlc drives the ST ISM330DLC 6-axis inertial measurement unit
// (3-axis accelerometer and 3-axis gyroscope) over I2C or SPI.
//
// The driver is a thin register-level wrapper: every call performs its register
// transactions in line and returns when the last one completes. It keeps no
// background state besides the enable flag and the last requested output data
// rate of each sub-device, and it is not safe for concurrent use.
//
// # Datasheet
//
// https://www.st.com/resource/en/datasheet/ism330dlc.pdf
//
// # Usage
//
//	bus, err := i2c.NewGenericBus("/dev/i2c-1")
//	if err != nil { log.Fatal(err) }
//	dev := ism330dlc.NewI2C(bus)
//	if err := dev.Begin(ctx); err != nil { log.Fatal(err) }
//	_ = dev.SetXODR(ctx, 104)
//	_ = dev.EnableX(ctx)
//	acc, err := dev.XAxes(ctx) // mg
package ism330dlc
