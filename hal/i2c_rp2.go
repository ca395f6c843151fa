//go:build rp2040 || rp2350

package hal

import (
	"machine"

	"tinygo.org/x/drivers"

	"powerseq-go/errcode"
	"powerseq-go/types"
)

// expanderHz is standard-mode I²C; the PCF8574 tops out at 100 kHz.
const expanderHz = 100_000

// OpenI2C configures the board's expander bus.
func OpenI2C(b types.BoardConfig) (drivers.I2C, error) {
	var hw *machine.I2C
	switch b.I2CBus {
	case "i2c0", "":
		hw = machine.I2C0
	case "i2c1":
		hw = machine.I2C1
	default:
		return nil, &errcode.E{C: errcode.UnknownPin, Op: "hal.i2c", Msg: b.I2CBus}
	}
	if err := hw.Configure(machine.I2CConfig{
		SDA:       machine.Pin(b.SDA),
		SCL:       machine.Pin(b.SCL),
		Frequency: expanderHz,
	}); err != nil {
		return nil, errcode.Wrap(errcode.BusError, "hal.i2c", err)
	}
	return hw, nil
}
