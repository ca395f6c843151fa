//go:build rp2040 || rp2350

// Command pwrseq-boardtest is a bench check for a board's power-control
// wiring. It drives the request lines directly, without the sequencer, and
// reports how long power_held takes to follow. Run it with the PMIC on the
// bench supply, never on a deployed unit.
package main

import (
	"time"

	"powerseq-go/hal"
	"powerseq-go/logx"
	"powerseq-go/sequencer"
	"powerseq-go/services/config"
	"powerseq-go/x/fmtx"
)

const (
	profile   = "pico"
	dwellUp   = 2 * time.Second
	dwellDown = 2 * time.Second
	sample    = 5 * time.Millisecond

	// Cycles: 0 = loop forever
	cyclesToRun = 3
)

var log = logx.New("boardtest")

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	p, err := config.Load(profile)
	if err != nil {
		fail(err)
	}
	if u, err := hal.OpenUART(p.Board.Console); err == nil {
		fmtx.DefaultOutput = u
	}
	lines, err := hal.Claim(hal.NewPinFactory(), p.Board)
	if err != nil {
		fail(err)
	}
	l := lines.Lines

	log.Infof("inputs at rest: %s", inputs(l))
	passed := true
	for cycle := 1; cyclesToRun == 0 || cycle <= cyclesToRun; cycle++ {
		l.PowerOff.Set(false)
		l.PowerOn.Set(true)
		up, ok := follow(l, true, dwellUp)
		report(cycle, "power_held asserted", up, ok)
		passed = passed && ok

		l.PowerOn.Set(false)
		l.PowerOff.Set(true)
		down, ok := follow(l, false, dwellDown)
		report(cycle, "power_held released", down, ok)
		passed = passed && ok

		l.PowerOff.Set(false)
		log.Infof("cycle %d inputs: %s", cycle, inputs(l))
		time.Sleep(500 * time.Millisecond)
	}
	if passed {
		log.Infof("PASS")
	} else {
		log.Errorf("FAIL")
	}
	for {
		time.Sleep(time.Second)
	}
}

// follow samples power_held until it reads want or limit passes.
func follow(l sequencer.Lines, want bool, limit time.Duration) (time.Duration, bool) {
	start := time.Now()
	for time.Since(start) < limit {
		if l.PowerHeld.Get() == want {
			return time.Since(start), true
		}
		time.Sleep(sample)
	}
	return limit, false
}

func report(cycle int, what string, d time.Duration, ok bool) {
	if ok {
		log.Infof("cycle %d: %s after %v", cycle, what, d)
		return
	}
	log.Warnf("cycle %d: %s: no change within %v", cycle, what, d)
}

func inputs(l sequencer.Lines) string {
	return fmtx.Sprintf("bus=%t boot=%t held=%t", l.BusPower.Get(), l.Boot.Get(), l.PowerHeld.Get())
}

func fail(err error) {
	for {
		log.Errorf("%v", err)
		time.Sleep(2 * time.Second)
	}
}
