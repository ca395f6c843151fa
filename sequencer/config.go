package sequencer

import (
	"time"

	"powerseq-go/errcode"
	"powerseq-go/types"
)

// Defaults match the PMIC's expected latch times: power-up may wait on a slow
// boot negotiation, power-down must be acknowledged quickly.
const (
	DefaultSettle  = 500 * time.Millisecond
	DefaultOnPoll  = 50 * time.Millisecond
	DefaultOffPoll = 5 * time.Millisecond
)

// DefaultConfig returns the reference timing with unbounded waits and no
// watchdog.
func DefaultConfig() types.SequencerConfig {
	return types.SequencerConfig{
		SettleMs:  uint32(DefaultSettle / time.Millisecond),
		OnPollMs:  uint32(DefaultOnPoll / time.Millisecond),
		OffPollMs: uint32(DefaultOffPoll / time.Millisecond),
	}
}

// Normalise fills zero poll periods from DefaultConfig. A zero settle time is
// kept: tests and simulations start polling at once.
func Normalise(c types.SequencerConfig) types.SequencerConfig {
	d := DefaultConfig()
	if c.OnPollMs == 0 {
		c.OnPollMs = d.OnPollMs
	}
	if c.OffPollMs == 0 {
		c.OffPollMs = d.OffPollMs
	}
	return c
}

// Validate rejects timings that would make the watchdog fire during a
// legitimate wait step.
func Validate(c types.SequencerConfig) error {
	if c.WatchdogMs == 0 {
		return nil
	}
	if c.WatchdogMs <= c.OnPollMs || c.WatchdogMs <= c.OffPollMs || c.WatchdogMs <= c.IdleBackoffMs {
		return &errcode.E{C: errcode.InvalidParams, Op: "sequencer.config", Msg: "watchdog_ms must exceed every poll period"}
	}
	return nil
}
