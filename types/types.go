package types

// ------------------------
// Sequencer state (retained on pwrseq/state)
// ------------------------

// Phase refines the started flag for observers. It never gates a transition.
type Phase string

func (p Phase) String() string { return string(p) }

const (
	PhaseOff         Phase = "off"          // started=false, power_held released
	PhasePoweringOn  Phase = "powering_on"  // on requested, awaiting power_held
	PhaseOn          Phase = "on"           // power_held confirmed
	PhasePoweringOff Phase = "powering_off" // off requested, awaiting release
	PhaseHung        Phase = "hung"         // a wait exceeded its step cap
)

// Signals is one sample of the three inputs plus the two driven outputs.
type Signals struct {
	BusPower  bool `json:"bus_power"`
	Boot      bool `json:"boot"`
	PowerHeld bool `json:"power_held"`
	PowerOn   bool `json:"power_on"`
	PowerOff  bool `json:"power_off"`
}

type StateValue struct {
	Phase     Phase   `json:"phase"`
	Started   bool    `json:"started"`
	Signals   Signals `json:"signals"`
	OnCount   uint32  `json:"on_count"`
	OffCount  uint32  `json:"off_count"`
	LastSteps uint32  `json:"last_wait_steps"`
	TS        int64   `json:"ts_ms"`
}

// ------------------------
// Transition events (pwrseq/event/<name>)
// ------------------------

type EventName string

func (e EventName) String() string { return string(e) }

const (
	EventPowerOn      EventName = "power_on"   // on requested
	EventPowerHeld    EventName = "power_held" // on wait finished
	EventPowerOffHard EventName = "power_off"  // hard off requested
	EventReleased     EventName = "released"   // off wait finished
	EventHang         EventName = "hang"       // wait step cap exceeded
	EventBoot         EventName = "boot"       // loop started after settle
)

type TransitionEvent struct {
	Name  EventName `json:"name"`
	Steps uint32    `json:"steps,omitempty"` // delay steps taken by the wait
	TS    int64     `json:"ts_ms"`
}

// ------------------------
// Line I/O faults (retained on pwrseq/fault)
// ------------------------

// HALFault reports the current I/O error on the signal lines. An empty Error
// means the lines recovered.
type HALFault struct {
	Error string `json:"error,omitempty"`
	TS    int64  `json:"ts_ms"`
}

// ------------------------
// Info envelope (retained on pwrseq/info)
// ------------------------

type Info struct {
	SchemaVersion int    `json:"schema_version"`
	Firmware      string `json:"firmware"`
	Board         string `json:"board"`
	Backend       string `json:"backend"`
}

// ------------------------
// Link state (retained on link/state)
// ------------------------

type LinkLevel string

func (l LinkLevel) String() string { return string(l) }

const (
	LinkIdle     LinkLevel = "idle"
	LinkUp       LinkLevel = "up"
	LinkDegraded LinkLevel = "degraded"
	LinkError    LinkLevel = "error"
)

type LinkState struct {
	Level  LinkLevel `json:"level"`
	Status string    `json:"status"` // short machine string
	Error  string    `json:"error,omitempty"`
	TS     int64     `json:"ts_ms"`
}

// ------------------------
// Telemetry (config/telemetry)
// ------------------------

type TelemetryConfig struct {
	IntervalS uint32 `json:"interval_s"` // periodic state line; 0 = off
}

// Status answers pwrseq/status/get.
type Status struct {
	Info     Info       `json:"info"`
	State    StateValue `json:"state"`
	HasState bool       `json:"has_state"`
}
