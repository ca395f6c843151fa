package types

import (
	"errors"
	"time"

	"powerseq-go/x/timex"
)

// ------------------------
// Sequencer configuration (config/pwrseq)
// ------------------------

// SequencerConfig tunes timing. sequencer.Normalise fills zero poll periods
// from sequencer.DefaultConfig; a zero SettleMs is kept and means no settle
// delay. config.Decode starts from DefaultConfig, so profiles that omit
// settle_ms still get 500 ms.
type SequencerConfig struct {
	SettleMs      uint32 `json:"settle_ms"`       // delay before the first poll (500)
	OnPollMs      uint32 `json:"on_poll_ms"`      // power-on wait step (50)
	OffPollMs     uint32 `json:"off_poll_ms"`     // power-off wait step (5)
	MaxWaitSteps  uint32 `json:"max_wait_steps"`  // 0 = unbounded
	WatchdogMs    uint32 `json:"watchdog_ms"`     // 0 = no watchdog
	IdleBackoffMs uint32 `json:"idle_backoff_ms"` // 0 = re-poll immediately
}

func (c SequencerConfig) Settle() time.Duration      { return timex.Ms(c.SettleMs) }
func (c SequencerConfig) OnPoll() time.Duration      { return timex.Ms(c.OnPollMs) }
func (c SequencerConfig) OffPoll() time.Duration     { return timex.Ms(c.OffPollMs) }
func (c SequencerConfig) IdleBackoff() time.Duration { return timex.Ms(c.IdleBackoffMs) }

// ------------------------
// Board pinout (config/board)
// ------------------------

// Backend selects where the five signal lines live.
type Backend string

func (b Backend) String() string { return string(b) }

const (
	BackendGPIO     Backend = "gpio"     // MCU or host GPIO, numbers are GPIO/line offsets
	BackendExpander Backend = "expander" // PCF8574-class I²C expander, numbers are P0..P7
)

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	default:
		return "none"
	}
}

func (p Pull) MarshalJSON() ([]byte, error) { return []byte(`"` + p.String() + `"`), nil }

func (p *Pull) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"none"`, `""`, "null":
		*p = PullNone
	case `"up"`:
		*p = PullUp
	case `"down"`:
		*p = PullDown
	default:
		return errors.New("pull: want none, up or down")
	}
	return nil
}

// LineConfig maps one logical signal to a physical line.
type LineConfig struct {
	Pin    int  `json:"pin"`
	Pull   Pull `json:"pull,omitempty"`   // inputs only
	Invert bool `json:"invert,omitempty"` // logical = !electrical
}

type BoardConfig struct {
	Name    string  `json:"name"`
	Backend Backend `json:"backend"`

	// Linux character device (gpiocdev backend only), e.g. "gpiochip0".
	Chip string `json:"chip,omitempty"`

	// Expander wiring (expander backend only). On Linux I2CBus is the
	// adapter number of /dev/i2c-N; on RP2 it selects i2c0 or i2c1.
	I2CBus  string `json:"i2c_bus,omitempty"`
	I2CAddr uint16 `json:"i2c_addr,omitempty"`
	SDA     int    `json:"sda,omitempty"`
	SCL     int    `json:"scl,omitempty"`

	BusPower  LineConfig `json:"bus_power"`
	Boot      LineConfig `json:"boot"`
	PowerHeld LineConfig `json:"power_held"`
	PowerOn   LineConfig `json:"power_on"`
	PowerOff  LineConfig `json:"power_off"`

	Console SerialConfig `json:"console"`
	Link    SerialConfig `json:"link,omitempty"` // framed telemetry; empty Port disables
}

// ------------------------
// Serial console
// ------------------------

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

func (p Parity) MarshalJSON() ([]byte, error) { return []byte(`"` + p.String() + `"`), nil }

func (p *Parity) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"none"`, `""`, "null":
		*p = ParityNone
	case `"even"`:
		*p = ParityEven
	case `"odd"`:
		*p = ParityOdd
	default:
		return errors.New("parity: want none, even or odd")
	}
	return nil
}

type SerialConfig struct {
	Port   string `json:"port,omitempty"` // "uart0", "uart1", "/dev/ttyACM0"
	Baud   uint32 `json:"baud,omitempty"`
	TX     int    `json:"tx,omitempty"`
	RX     int    `json:"rx,omitempty"`
	Parity Parity `json:"parity,omitempty"`
}
