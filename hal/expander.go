package hal

import (
	"sync"

	"tinygo.org/x/drivers"

	"powerseq-go/drivers/pcf8574"
	"powerseq-go/types"
)

// NewExpanderFactory exposes the eight pins of a PCF8574 on bus as Pins.
// Pulls are fixed by the part (weak pull-up) and ignored.
func NewExpanderFactory(bus drivers.I2C, addr uint16) (*ExpanderFactory, error) {
	d := pcf8574.New(bus)
	if err := d.Configure(pcf8574.Config{Address: addr}); err != nil {
		return nil, err
	}
	return &ExpanderFactory{dev: d}, nil
}

type ExpanderFactory struct {
	dev *pcf8574.Device

	mu  sync.Mutex
	err error
}

func (f *ExpanderFactory) ByNumber(n int) (Pin, bool) {
	if n < 0 || n > 7 {
		return nil, false
	}
	return &expanderPin{f: f, n: uint8(n)}, true
}

// Err returns the result of the most recent bus transfer by any pin; a
// successful transfer clears it.
func (f *ExpanderFactory) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *ExpanderFactory) note(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type expanderPin struct {
	f *ExpanderFactory
	n uint8
}

// ConfigureInput releases the pin high so the wiring can pull it low.
func (p *expanderPin) ConfigureInput(types.Pull) error {
	return p.f.dev.SetPin(p.n, true)
}

func (p *expanderPin) ConfigureOutput(initial bool) error {
	return p.f.dev.SetPin(p.n, initial)
}

func (p *expanderPin) Set(level bool) { p.f.note(p.f.dev.SetPin(p.n, level)) }

// Get reports low on a bus error, which reads as bus power absent.
func (p *expanderPin) Get() bool {
	v, err := p.f.dev.Pin(p.n)
	p.f.note(err)
	return v
}

func (p *expanderPin) Number() int { return int(p.n) }

func (p *expanderPin) Err() error { return p.f.Err() }
