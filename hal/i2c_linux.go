//go:build linux && !baremetal

package hal

import (
	"tinygo.org/x/drivers"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"powerseq-go/errcode"
	"powerseq-go/types"
)

// I2CBus is an open Linux I²C adapter. periph's Tx already has the
// drivers.I2C signature.
type I2CBus struct {
	i2c.BusCloser
}

var _ drivers.I2C = (*I2CBus)(nil)

// OpenI2C opens the board's expander adapter, e.g. "1" or "/dev/i2c-1". An
// empty name picks the first adapter found.
func OpenI2C(b types.BoardConfig) (*I2CBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, errcode.Wrap(errcode.BusError, "hal.i2c", err)
	}
	bus, err := i2creg.Open(b.I2CBus)
	if err != nil {
		return nil, &errcode.E{C: errcode.UnknownPin, Op: "hal.i2c", Msg: b.I2CBus, Err: err}
	}
	return &I2CBus{BusCloser: bus}, nil
}
