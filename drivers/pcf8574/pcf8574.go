// Package pcf8574 drives a PCF8574/PCF8574A-class 8-bit I²C GPIO expander.
//
// The port is quasi-bidirectional: there is no direction register. A pin
// written high is a weak pull-up that external circuitry can pull low, so it
// doubles as an input; a pin written low is a strong output.
//
//	d := pcf8574.New(bus)
//	_ = d.Configure(pcf8574.Config{Address: 0x20})
//	_ = d.SetPin(3, true)
//	v, err := d.Read()
//
// NOTE: every write sends the whole shadow byte, so inputs must stay high in
// the shadow or they stop reading external levels.
package pcf8574

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// Default I²C address with A0..A2 strapped low (PCF8574; the A variant is 0x38).
const Address = 0x20

// Errors returned by the driver.
var (
	ErrPin = errors.New("pcf8574: pin out of range")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x20 if zero.
	Address uint16
	// Initial shadow value written by Configure. Zero means all pins high
	// (all inputs), which is the power-on state of the part.
	Initial *uint8
}

// Device wraps an I2C connection to a PCF8574.
type Device struct {
	bus     drivers.I2C
	Address uint16

	mu     sync.Mutex
	shadow uint8
	buf    [1]byte
}

// New creates a Device. The I2C bus must already be configured. It does not
// touch the part.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address, shadow: 0xFF}
}

// Configure applies cfg and writes the initial shadow byte.
func (d *Device) Configure(cfg Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
	d.shadow = 0xFF
	if cfg.Initial != nil {
		d.shadow = *cfg.Initial
	}
	return d.writeLocked()
}

func (d *Device) writeLocked() error {
	d.buf[0] = d.shadow
	return d.bus.Tx(d.Address, d.buf[:], nil)
}

// Write replaces the whole port.
func (d *Device) Write(v uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shadow = v
	return d.writeLocked()
}

// Read returns the current electrical level of all eight pins.
func (d *Device) Read() (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.buf[:]
	if err := d.bus.Tx(d.Address, nil, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

// SetPin drives pin n (0..7). Writing high releases it as an input.
func (d *Device) SetPin(n uint8, high bool) error {
	if n > 7 {
		return ErrPin
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if high {
		d.shadow |= 1 << n
	} else {
		d.shadow &^= 1 << n
	}
	return d.writeLocked()
}

// Pin reads a single pin.
func (d *Device) Pin(n uint8) (bool, error) {
	if n > 7 {
		return false, ErrPin
	}
	v, err := d.Read()
	if err != nil {
		return false, err
	}
	return v&(1<<n) != 0, nil
}

// Shadow returns the last value written.
func (d *Device) Shadow() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shadow
}
