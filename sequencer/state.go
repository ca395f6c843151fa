package sequencer

import "powerseq-go/types"

// State is everything the sequencer knows: the last input sample, the last
// levels written to the outputs, and the started flag.
//
// Started is true from the moment a power-on is requested until a power-off
// is requested. It is not gated on PowerHeld; Phase carries that distinction
// for observers.
type State struct {
	BusPower  bool
	Boot      bool
	PowerHeld bool

	PowerOn  bool
	PowerOff bool

	Started bool
	Phase   types.Phase

	OnCount   uint32
	OffCount  uint32
	LastSteps uint32
}

// Action is what a single poll decided to do.
type Action uint8

const (
	ActionNone Action = iota
	ActionPowerOn
	ActionPowerOff
)

func (a Action) String() string {
	switch a {
	case ActionPowerOn:
		return "power_on"
	case ActionPowerOff:
		return "power_off"
	default:
		return "none"
	}
}

// Decide picks the transition for the sampled inputs in st. Loss of bus power
// is checked first and always wins; power-on needs all four conditions.
func Decide(st *State) Action {
	if !st.BusPower {
		return ActionPowerOff
	}
	if st.Boot && !st.Started && !st.PowerHeld {
		return ActionPowerOn
	}
	return ActionNone
}

// enterPowerOn applies the output levels and flag of the power-on request.
// Both outputs are written every time.
func enterPowerOn(st *State, l Lines) {
	st.PowerOn, st.PowerOff = true, false
	l.PowerOn.Set(true)
	l.PowerOff.Set(false)
	st.Started = true
	st.Phase = types.PhasePoweringOn
	st.OnCount++
}

// enterPowerOff applies the output levels and flag of the hard power-off.
// The caller counts it.
func enterPowerOff(st *State, l Lines) {
	st.PowerOn, st.PowerOff = false, true
	l.PowerOn.Set(false)
	l.PowerOff.Set(true)
	st.Started = false
	st.Phase = types.PhasePoweringOff
}

// Value converts st into the retained bus payload.
func (st State) Value(ts int64) types.StateValue {
	return types.StateValue{
		Phase:   st.Phase,
		Started: st.Started,
		Signals: types.Signals{
			BusPower:  st.BusPower,
			Boot:      st.Boot,
			PowerHeld: st.PowerHeld,
			PowerOn:   st.PowerOn,
			PowerOff:  st.PowerOff,
		},
		OnCount:   st.OnCount,
		OffCount:  st.OffCount,
		LastSteps: st.LastSteps,
		TS:        ts,
	}
}
