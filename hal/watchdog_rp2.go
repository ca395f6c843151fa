//go:build rp2040 || rp2350

package hal

import "machine"

type rp2Watchdog struct{}

// NewWatchdog configures the RP2 watchdog. It is not started until Start.
func NewWatchdog(timeoutMs uint32) (Watchdog, error) {
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: timeoutMs}); err != nil {
		return nil, err
	}
	return rp2Watchdog{}, nil
}

func (rp2Watchdog) Start() error { return machine.Watchdog.Start() }
func (rp2Watchdog) Update()      { machine.Watchdog.Update() }
