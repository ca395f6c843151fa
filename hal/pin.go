// Package hal maps the sequencer's five logical signals onto physical lines.
// Backends are selected by build tags (RP2 machine pins, Linux GPIO character
// devices) or by board config (I²C expander); host builds use FakePin.
package hal

import (
	"powerseq-go/errcode"
	"powerseq-go/sequencer"
	"powerseq-go/types"
)

// Pin is one electrical GPIO line.
type Pin interface {
	ConfigureInput(pull types.Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// PinFactory resolves pin numbers for a backend.
type PinFactory interface {
	ByNumber(n int) (Pin, bool)
}

// logical applies a per-line inversion.
type logical struct {
	p      Pin
	invert bool
}

func (l logical) Get() bool      { return l.p.Get() != l.invert }
func (l logical) Set(level bool) { l.p.Set(level != l.invert) }

// Lines is the claimed set of signal lines.
type Lines struct {
	sequencer.Lines
	pins  []Pin
	names []string
}

// Pins returns the claimed pins in bus_power, boot, power_held, power_on,
// power_off order.
func (l *Lines) Pins() []Pin { return l.pins }

// Claim resolves and configures the five lines of a board. Outputs start
// deasserted; the sequencer's first transition drives them explicitly.
func Claim(f PinFactory, b types.BoardConfig) (*Lines, error) {
	type want struct {
		name string
		lc   types.LineConfig
		out  bool
	}
	wants := [...]want{
		{"bus_power", b.BusPower, false},
		{"boot", b.Boot, false},
		{"power_held", b.PowerHeld, false},
		{"power_on", b.PowerOn, true},
		{"power_off", b.PowerOff, true},
	}

	seen := make(map[int]string, len(wants))
	out := &Lines{pins: make([]Pin, 0, len(wants)), names: make([]string, 0, len(wants))}
	sigs := make([]logical, 0, len(wants))
	for _, w := range wants {
		if owner, dup := seen[w.lc.Pin]; dup {
			_ = out.Close()
			return nil, &errcode.E{C: errcode.PinInUse, Op: "hal.claim", Msg: w.name + " shares a pin with " + owner}
		}
		seen[w.lc.Pin] = w.name

		p, ok := f.ByNumber(w.lc.Pin)
		if !ok {
			_ = out.Close()
			return nil, &errcode.E{C: errcode.UnknownPin, Op: "hal.claim", Msg: w.name}
		}
		var err error
		if w.out {
			// Deasserted at the electrical level, honouring inversion.
			err = p.ConfigureOutput(w.lc.Invert)
		} else {
			err = p.ConfigureInput(w.lc.Pull)
		}
		if err != nil {
			// The failed pin may hold a half-requested line too.
			out.pins = append(out.pins, p)
			_ = out.Close()
			return nil, &errcode.E{C: errcode.Of(err), Op: "hal.claim", Msg: w.name, Err: err}
		}
		out.pins = append(out.pins, p)
		out.names = append(out.names, w.name)
		sigs = append(sigs, logical{p: p, invert: w.lc.Invert})
	}

	out.Lines = sequencer.Lines{
		BusPower:  sigs[0],
		Boot:      sigs[1],
		PowerHeld: sigs[2],
		PowerOn:   sigs[3],
		PowerOff:  sigs[4],
	}
	return out, nil
}

// Err returns the last I/O error of the first claimed line whose backend
// reports one, or nil.
func (l *Lines) Err() error {
	for i, p := range l.pins {
		e, ok := p.(interface{ Err() error })
		if !ok {
			continue
		}
		if err := e.Err(); err != nil {
			return &errcode.E{C: errcode.BusError, Op: "hal.io", Msg: l.names[i], Err: err}
		}
	}
	return nil
}

// Close releases pins whose backend holds an OS resource.
func (l *Lines) Close() error {
	var first error
	for _, p := range l.pins {
		if c, ok := p.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
