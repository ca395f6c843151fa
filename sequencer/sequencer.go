// Package sequencer drives the ON/OFF request lines of an external power
// management circuit from three polled inputs: bus power present, the boot
// switch and the circuit's power-held acknowledgement.
//
// The control loop is single threaded. Each transition writes both outputs,
// then blocks in a fixed-period wait until power-held reaches the requested
// level. Nothing else is sampled while a wait is in progress; when bus power
// disappears mid power-on, the PMIC wiring ends the wait. A wait that never
// ends is left to the hardware watchdog, which the loop feeds between polls
// and never inside a wait.
package sequencer

import (
	"context"
	"runtime"
	"time"

	"powerseq-go/errcode"
	"powerseq-go/types"
)

// Input is a readable logical signal.
type Input interface{ Get() bool }

// Output is a level-driven logical signal.
type Output interface{ Set(level bool) }

// Lines are the five signals of the power-control protocol, already mapped
// to logical polarity (true = asserted).
type Lines struct {
	BusPower  Input
	Boot      Input
	PowerHeld Input
	PowerOn   Output
	PowerOff  Output
}

func (l Lines) validate() error {
	if l.BusPower == nil || l.Boot == nil || l.PowerHeld == nil || l.PowerOn == nil || l.PowerOff == nil {
		return &errcode.E{C: errcode.NotConfigured, Op: "sequencer.new", Msg: "all five lines are required"}
	}
	return nil
}

// Delay blocks for d. It is not cancellable.
type Delay func(d time.Duration)

// Watchdog is fed once per poll.
type Watchdog interface{ Update() }

// Publisher receives transitions and state changes. Calls are made from the
// control loop and must not block.
type Publisher interface {
	PublishState(types.StateValue)
	PublishEvent(types.TransitionEvent)
}

// Options are the sequencer's collaborators. All fields are optional.
type Options struct {
	Timing    types.SequencerConfig // zero poll periods take defaults
	Delay     Delay                 // default time.Sleep
	Watchdog  Watchdog
	Publisher Publisher
	Now       func() int64 // Unix ms for payload timestamps; default time.Now
}

type Sequencer struct {
	lines Lines
	cfg   types.SequencerConfig
	delay Delay
	wd    Watchdog
	pub   Publisher
	now   func() int64

	st State
}

// New builds a sequencer in the reset state (started=false). It does not
// touch the outputs; the first transition drives them.
func New(lines Lines, o Options) (*Sequencer, error) {
	if err := lines.validate(); err != nil {
		return nil, err
	}
	cfg := Normalise(o.Timing)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	s := &Sequencer{
		lines: lines,
		cfg:   cfg,
		delay: o.Delay,
		wd:    o.Watchdog,
		pub:   o.Publisher,
		now:   o.Now,
		st:    State{Phase: types.PhaseOff},
	}
	if s.delay == nil {
		s.delay = time.Sleep
	}
	if s.now == nil {
		s.now = func() int64 { return time.Now().UnixMilli() }
	}
	return s, nil
}

// Config returns the effective timing.
func (s *Sequencer) Config() types.SequencerConfig { return s.cfg }

// Snapshot returns a copy of the current state.
func (s *Sequencer) Snapshot() State { return s.st }

// Sample reads the three inputs into the state.
func (s *Sequencer) Sample() {
	s.st.BusPower = s.lines.BusPower.Get()
	s.st.Boot = s.lines.Boot.Get()
	s.st.PowerHeld = s.lines.PowerHeld.Get()
}

// Poll samples the inputs once and runs the chosen transition to completion.
// A non-nil error is only returned when a wait exceeded MaxWaitSteps.
func (s *Sequencer) Poll() (Action, error) {
	a, _, err := s.poll()
	return a, err
}

// poll reports whether the transition changed anything. A hard power-off
// repeated while bus power stays absent and power_held stays low still
// writes both outputs but is otherwise silent.
func (s *Sequencer) poll() (Action, bool, error) {
	s.Sample()
	a := Decide(&s.st)
	switch a {
	case ActionPowerOff:
		changed, err := s.powerOffHard()
		return a, changed, err
	case ActionPowerOn:
		return a, true, s.PowerOn()
	}
	return a, false, nil
}

// PowerOn asserts the on request, releases the off request, marks the
// sequence started and waits in OnPoll steps for power-held to assert.
func (s *Sequencer) PowerOn() error {
	enterPowerOn(&s.st, s.lines)
	s.emit(types.EventPowerOn, 0)
	s.publishState()

	n, err := s.waitHeld(true, s.cfg.OnPoll())
	s.st.LastSteps = n
	if err != nil {
		return s.hung(n, err)
	}
	s.st.PowerHeld = true
	s.st.Phase = types.PhaseOn
	s.emit(types.EventPowerHeld, n)
	s.publishState()
	return nil
}

// PowerOffHard releases the on request, asserts the off request, clears
// started and waits in OffPoll steps for power-held to release. It runs
// whenever bus power is absent, whatever the current state.
func (s *Sequencer) PowerOffHard() error {
	_, err := s.powerOffHard()
	return err
}

func (s *Sequencer) powerOffHard() (bool, error) {
	settled := s.st.Phase == types.PhaseOff && !s.st.Started &&
		!s.st.PowerOn && s.st.PowerOff && !s.st.PowerHeld
	enterPowerOff(&s.st, s.lines)
	if settled && !s.lines.PowerHeld.Get() {
		s.st.Phase = types.PhaseOff
		return false, nil
	}
	s.st.OffCount++
	s.emit(types.EventPowerOffHard, 0)
	s.publishState()

	n, err := s.waitHeld(false, s.cfg.OffPoll())
	s.st.LastSteps = n
	if err != nil {
		return true, s.hung(n, err)
	}
	s.st.PowerHeld = false
	s.st.Phase = types.PhaseOff
	s.emit(types.EventReleased, n)
	s.publishState()
	return true, nil
}

// waitHeld blocks until power-held reads want. The level is checked before
// every delay step, so an already-settled line costs no delay. It returns the
// number of steps taken.
func (s *Sequencer) waitHeld(want bool, step time.Duration) (uint32, error) {
	var n uint32
	for s.lines.PowerHeld.Get() != want {
		if limit := s.cfg.MaxWaitSteps; limit > 0 && n >= limit {
			op := "sequencer.wait_release"
			if want {
				op = "sequencer.wait_held"
			}
			return n, &errcode.E{C: errcode.Timeout, Op: op, Msg: "power_held did not settle"}
		}
		s.delay(step)
		n++
	}
	return n, nil
}

func (s *Sequencer) hung(n uint32, err error) error {
	s.st.Phase = types.PhaseHung
	s.emit(types.EventHang, n)
	s.publishState()
	return err
}

// Run waits the settle time, then polls until ctx is done or a wait reports
// a hang. Cancellation is only observed between polls.
func (s *Sequencer) Run(ctx context.Context) error {
	if d := s.cfg.Settle(); d > 0 {
		s.delay(d)
	}
	s.emit(types.EventBoot, 0)
	s.Sample()
	s.publishState()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if s.wd != nil {
			s.wd.Update()
		}
		_, changed, err := s.poll()
		if err != nil {
			return err
		}
		if !changed {
			if d := s.cfg.IdleBackoff(); d > 0 {
				s.delay(d)
			} else {
				// Let cooperative schedulers run the console between polls.
				runtime.Gosched()
			}
		}
	}
}

func (s *Sequencer) publishState() {
	if s.pub != nil {
		s.pub.PublishState(s.st.Value(s.now()))
	}
}

func (s *Sequencer) emit(name types.EventName, steps uint32) {
	if s.pub != nil {
		s.pub.PublishEvent(types.TransitionEvent{Name: name, Steps: steps, TS: s.now()})
	}
}
