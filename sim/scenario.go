package sim

import (
	"sync"

	"powerseq-go/errcode"
	"powerseq-go/sequencer"
	"powerseq-go/types"
)

// Recorder is a sequencer.Publisher that keeps everything it is given.
type Recorder struct {
	mu     sync.Mutex
	states []types.StateValue
	events []types.TransitionEvent
}

func (r *Recorder) PublishState(v types.StateValue) {
	r.mu.Lock()
	r.states = append(r.states, v)
	r.mu.Unlock()
}

func (r *Recorder) PublishEvent(e types.TransitionEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) States() []types.StateValue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.StateValue(nil), r.states...)
}

func (r *Recorder) Events() []types.TransitionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.TransitionEvent(nil), r.events...)
}

// New builds a sequencer on b's lines, timed by b's virtual clock.
func (b *Board) New(timing types.SequencerConfig, pub sequencer.Publisher) (*sequencer.Sequencer, error) {
	return sequencer.New(b.Lines(), sequencer.Options{
		Timing:    timing,
		Delay:     b.Delay,
		Publisher: pub,
		Now:       b.NowMs,
	})
}

// ScenarioA idles with bus power present and the switch off for idle polls,
// then closes the boot switch. power_held asserts heldAfter delay steps into
// the power-on wait.
func ScenarioA(s *sequencer.Sequencer, b *Board, idle, heldAfter int) error {
	b.BusPower.Force(true)
	b.Boot.Force(false)
	b.PowerHeld.Force(false)
	for i := 0; i < idle; i++ {
		if err := expect(s, sequencer.ActionNone, "sim.scenario_a"); err != nil {
			return err
		}
	}
	b.Boot.Force(true)
	b.AfterSteps(heldAfter, b.PowerHeld, true)
	return expect(s, sequencer.ActionPowerOn, "sim.scenario_a")
}

// ScenarioB removes bus power from a powered-up board. power_held releases
// releaseAfter delay steps into the power-off wait.
func ScenarioB(s *sequencer.Sequencer, b *Board, releaseAfter int) error {
	b.BusPower.Force(false)
	b.AfterSteps(releaseAfter, b.PowerHeld, false)
	return expect(s, sequencer.ActionPowerOff, "sim.scenario_b")
}

func expect(s *sequencer.Sequencer, want sequencer.Action, op string) error {
	got, err := s.Poll()
	if err != nil {
		return err
	}
	if got != want {
		return &errcode.E{C: errcode.Error, Op: op, Msg: "poll did " + got.String() + ", want " + want.String()}
	}
	return nil
}
