//go:build linux && !baremetal

package hal

import (
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"powerseq-go/errcode"
	"powerseq-go/types"
)

const consumer = "pwrseq"

// NewChipFactory returns a factory for lines of a GPIO character device such
// as "gpiochip0". Numbers are line offsets on that chip.
func NewChipFactory(chip string) PinFactory {
	return &chipFactory{chip: chip, pins: make(map[int]*chipPin)}
}

type chipFactory struct {
	chip string

	mu   sync.Mutex
	pins map[int]*chipPin
}

func (f *chipFactory) ByNumber(n int) (Pin, bool) {
	if n < 0 {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	if !ok {
		p = &chipPin{chip: f.chip, n: n}
		f.pins[n] = p
	}
	return p, true
}

// chipPin requests its line on first configuration. A failed read reports
// low, which the sequencer treats as bus power absent.
type chipPin struct {
	chip string
	n    int

	mu   sync.Mutex
	line *gpiocdev.Line
	err  error
}

func (p *chipPin) request(opts ...gpiocdev.LineReqOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.line != nil {
		_ = p.line.Close()
		p.line = nil
	}
	opts = append(opts, gpiocdev.WithConsumer(consumer))
	l, err := gpiocdev.RequestLine(p.chip, p.n, opts...)
	if err != nil {
		return &errcode.E{C: errcode.UnknownPin, Op: "gpiocdev.request", Msg: p.chip, Err: err}
	}
	p.line = l
	return nil
}

func (p *chipPin) ConfigureInput(pull types.Pull) error {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	switch pull {
	case types.PullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case types.PullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	default:
		opts = append(opts, gpiocdev.WithBiasDisabled)
	}
	return p.request(opts...)
}

func (p *chipPin) ConfigureOutput(initial bool) error {
	return p.request(gpiocdev.AsOutput(level(initial)))
}

func (p *chipPin) Set(b bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.line == nil {
		return
	}
	p.err = p.line.SetValue(level(b))
}

func (p *chipPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.line == nil {
		return false
	}
	v, err := p.line.Value()
	p.err = err
	if err != nil {
		return false
	}
	return v != 0
}

func (p *chipPin) Number() int { return p.n }

// Err returns the result of the last read or write on the line.
func (p *chipPin) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *chipPin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.line == nil {
		return nil
	}
	err := p.line.Close()
	p.line = nil
	return err
}

func level(b bool) int {
	if b {
		return 1
	}
	return 0
}
