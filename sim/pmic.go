package sim

import "time"

// PMIC models the external power circuit. It latches power-held once the on
// request has been asserted for OnLatch, and releases it once the off request
// has been asserted for OffLatch. A negative latch time never latches, which
// is how a stuck PMIC is simulated.
type PMIC struct {
	OnLatch  time.Duration
	OffLatch time.Duration

	onFor, offFor time.Duration
}

func (p *PMIC) advance(b *Board, d time.Duration) {
	if b.PowerOn.Get() {
		p.onFor += d
	} else {
		p.onFor = 0
	}
	if b.PowerOff.Get() {
		p.offFor += d
	} else {
		p.offFor = 0
	}

	switch {
	case b.PowerOff.Get() && p.OffLatch >= 0 && p.offFor >= p.OffLatch:
		b.PowerHeld.Force(false)
	case b.PowerOn.Get() && p.OnLatch >= 0 && p.onFor >= p.OnLatch:
		b.PowerHeld.Force(true)
	}
}
