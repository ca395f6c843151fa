// Package sim is a deterministic boolean-signal harness for the sequencer:
// five in-memory lines, a virtual clock that stands in for the delay
// primitive, and an optional PMIC model that latches power-held after the
// request lines have been asserted for a while.
package sim

import (
	"sync"
	"time"

	"powerseq-go/sequencer"
)

// Line is an in-memory logical signal.
type Line struct {
	name string
	b    *Board

	mu     sync.Mutex
	level  bool
	writes int
}

func (l *Line) Get() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Set drives the line and records the write in the board trace.
func (l *Line) Set(level bool) {
	l.mu.Lock()
	l.level = level
	l.writes++
	l.mu.Unlock()
	if l.b != nil {
		l.b.record(l.name, level)
	}
}

// Force changes the level without recording a write; used for inputs.
func (l *Line) Force(level bool) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Writes counts Set calls.
func (l *Line) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}

// Write is one recorded output write.
type Write struct {
	At    time.Duration
	Line  string
	Level bool
}

// Hook runs after every delay step with the step count and virtual time.
type Hook func(step int, now time.Duration)

type Board struct {
	BusPower  *Line
	Boot      *Line
	PowerHeld *Line
	PowerOn   *Line
	PowerOff  *Line

	mu    sync.Mutex
	now   time.Duration
	steps int
	hooks []Hook
	trace []Write
	pmic  *PMIC
}

// NewBoard returns a board with every line low.
func NewBoard() *Board {
	b := &Board{}
	b.BusPower = &Line{name: "bus_power", b: b}
	b.Boot = &Line{name: "boot", b: b}
	b.PowerHeld = &Line{name: "power_held", b: b}
	b.PowerOn = &Line{name: "power_on", b: b}
	b.PowerOff = &Line{name: "power_off", b: b}
	return b
}

// Lines exposes the board to the sequencer.
func (b *Board) Lines() sequencer.Lines {
	return sequencer.Lines{
		BusPower:  b.BusPower,
		Boot:      b.Boot,
		PowerHeld: b.PowerHeld,
		PowerOn:   b.PowerOn,
		PowerOff:  b.PowerOff,
	}
}

// Delay advances virtual time by d, then runs the PMIC model and hooks.
func (b *Board) Delay(d time.Duration) {
	b.mu.Lock()
	b.now += d
	b.steps++
	now, steps := b.now, b.steps
	hooks := append([]Hook(nil), b.hooks...)
	pmic := b.pmic
	b.mu.Unlock()

	if pmic != nil {
		pmic.advance(b, d)
	}
	for _, h := range hooks {
		h(steps, now)
	}
}

// OnDelay registers a hook.
func (b *Board) OnDelay(h Hook) {
	b.mu.Lock()
	b.hooks = append(b.hooks, h)
	b.mu.Unlock()
}

// AfterSteps forces line to level once the delay count reaches n, counted
// from this call.
func (b *Board) AfterSteps(n int, line *Line, level bool) {
	b.mu.Lock()
	base := b.steps
	b.mu.Unlock()
	done := false
	b.OnDelay(func(step int, _ time.Duration) {
		if !done && step-base >= n {
			done = true
			line.Force(level)
		}
	})
}

func (b *Board) Now() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now
}

func (b *Board) Steps() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.steps
}

func (b *Board) record(line string, level bool) {
	b.mu.Lock()
	b.trace = append(b.trace, Write{At: b.now, Line: line, Level: level})
	b.mu.Unlock()
}

// Trace returns a copy of all recorded output writes.
func (b *Board) Trace() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Write(nil), b.trace...)
}

// NowMs returns virtual time in ms, used for payload timestamps.
func (b *Board) NowMs() int64 { return int64(b.Now() / time.Millisecond) }

// AttachPMIC installs a PMIC model driven by the delay steps.
func (b *Board) AttachPMIC(p *PMIC) {
	b.mu.Lock()
	b.pmic = p
	b.mu.Unlock()
}
