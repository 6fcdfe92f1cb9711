package ism330dlc

// Register map (datasheet section 8).
const (
	regFIFOCtrl5 byte = 0x0A
	regWhoAmI    byte = 0x0F
	regCtrl1XL   byte = 0x10
	regCtrl2G    byte = 0x11
	regCtrl3C    byte = 0x12
	regCtrl10C   byte = 0x19
	regWakeUpSrc byte = 0x1B
	regTapSrc    byte = 0x1C
	regD6DSrc    byte = 0x1D
	regOutXLG    byte = 0x22
	regOutXLXL   byte = 0x28
	regFuncSrc1  byte = 0x53
	regTapCfg    byte = 0x58
	regTapThs6D  byte = 0x59
	regIntDur2   byte = 0x5A
	regWakeUpThs byte = 0x5B
	regWakeUpDur byte = 0x5C
	regFreeFall  byte = 0x5D
	regMD1Cfg    byte = 0x5E
	regMD2Cfg    byte = 0x5F
)

// WhoAmI is the fixed content of the WHO_AM_I register.
const WhoAmI = 0x6A

// 7-bit I2C addresses selected by the SA0 pin.
const (
	AddressLow  byte = 0x6A
	AddressHigh byte = 0x6B
)

// spiRead marks the register address of an SPI read transfer.
const spiRead = 0x80

// field is a contiguous bit range inside a register.
type field struct {
	reg   byte
	mask  byte
	shift uint
}

var (
	// CTRL1_XL / CTRL2_G
	fieldODRXL = field{regCtrl1XL, 0xF0, 4}
	fieldFSXL  = field{regCtrl1XL, 0x0C, 2}
	fieldODRG  = field{regCtrl2G, 0xF0, 4}
	fieldFSG   = field{regCtrl2G, 0x0E, 1} // FS_G[1:0] + FS_125

	// CTRL3_C
	fieldBDU   = field{regCtrl3C, 0x40, 6}
	fieldIFInc = field{regCtrl3C, 0x04, 2}

	fieldFIFOMode = field{regFIFOCtrl5, 0x07, 0}

	// CTRL10_C
	fieldTiltEn = field{regCtrl10C, 0x08, 3}
	fieldFuncEn = field{regCtrl10C, 0x04, 2}

	// TAP_CFG
	fieldIntEnable = field{regTapCfg, 0x80, 7}
	fieldTapAxes   = field{regTapCfg, 0x0E, 1}

	// TAP_THS_6D
	fieldSixDThs = field{regTapThs6D, 0x60, 5}
	fieldTapThs  = field{regTapThs6D, 0x1F, 0}

	// INT_DUR2
	fieldTapDur   = field{regIntDur2, 0xF0, 4}
	fieldTapQuiet = field{regIntDur2, 0x0C, 2}
	fieldTapShock = field{regIntDur2, 0x03, 0}

	// WAKE_UP_THS
	fieldSingleDoubleTap = field{regWakeUpThs, 0x80, 7}
	fieldWakeUpThs       = field{regWakeUpThs, 0x3F, 0}

	// WAKE_UP_DUR
	fieldFFDur5   = field{regWakeUpDur, 0x80, 7}
	fieldWakeDur  = field{regWakeUpDur, 0x60, 5}
	fieldTimerHR  = field{regWakeUpDur, 0x10, 4}
	fieldSleepDur = field{regWakeUpDur, 0x0F, 0}

	// FREE_FALL
	fieldFFDur = field{regFreeFall, 0xF8, 3}
	fieldFFThs = field{regFreeFall, 0x07, 0}
)

// MD1_CFG / MD2_CFG routing bits.
const (
	routeTilt      byte = 0x02
	route6D        byte = 0x04
	routeDoubleTap byte = 0x08
	routeFreeFall  byte = 0x10
	routeWakeUp    byte = 0x20
	routeSingleTap byte = 0x40
)

// Event source bits.
const (
	srcFreeFall  byte = 0x20 // WAKE_UP_SRC.FF_IA
	srcWakeUp    byte = 0x08 // WAKE_UP_SRC.WU_IA
	srcSingleTap byte = 0x20 // TAP_SRC.SINGLE_TAP
	srcDoubleTap byte = 0x10 // TAP_SRC.DOUBLE_TAP
	src6D        byte = 0x40 // D6D_SRC.D6D_IA
	srcTilt      byte = 0x20 // FUNC_SRC1.TILT_IA

	d6dXL byte = 0x01
	d6dXH byte = 0x02
	d6dYL byte = 0x04
	d6dYH byte = 0x08
	d6dZL byte = 0x10
	d6dZH byte = 0x20
)
