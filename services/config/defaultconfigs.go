package config

// Embedded device profiles, keyed by the device ID passed in the context.
// Each top-level key is published on config/<key>.

const cfgPico = `{
  "board": {
    "name": "pico",
    "backend": "gpio",
    "bus_power":  {"pin": 2, "pull": "down"},
    "boot":       {"pin": 3, "pull": "up", "invert": true},
    "power_held": {"pin": 4, "pull": "down"},
    "power_on":   {"pin": 5},
    "power_off":  {"pin": 6},
    "console": {"port": "uart0", "baud": 115200, "tx": 0, "rx": 1},
    "link":    {"port": "uart1", "baud": 115200, "tx": 8, "rx": 9}
  },
  "pwrseq": {
    "settle_ms": 500,
    "on_poll_ms": 50,
    "off_poll_ms": 5,
    "watchdog_ms": 2000
  },
  "telemetry": {
    "interval_s": 10
  }
}`

const cfgPicoExpander = `{
  "board": {
    "name": "pico-pcf8574",
    "backend": "expander",
    "i2c_bus": "i2c0",
    "i2c_addr": 32,
    "sda": 16,
    "scl": 17,
    "bus_power":  {"pin": 0},
    "boot":       {"pin": 1, "invert": true},
    "power_held": {"pin": 2},
    "power_on":   {"pin": 3},
    "power_off":  {"pin": 4},
    "console": {"port": "uart0", "baud": 115200, "tx": 0, "rx": 1}
  },
  "pwrseq": {
    "settle_ms": 500,
    "on_poll_ms": 50,
    "off_poll_ms": 5,
    "watchdog_ms": 2000
  },
  "telemetry": {
    "interval_s": 10
  }
}`

const cfgRPi = `{
  "board": {
    "name": "rpi",
    "backend": "gpio",
    "chip": "gpiochip0",
    "bus_power":  {"pin": 17, "pull": "down"},
    "boot":       {"pin": 27, "pull": "up", "invert": true},
    "power_held": {"pin": 22, "pull": "down"},
    "power_on":   {"pin": 23},
    "power_off":  {"pin": 24}
  },
  "pwrseq": {
    "settle_ms": 500,
    "on_poll_ms": 50,
    "off_poll_ms": 5,
    "idle_backoff_ms": 1
  },
  "telemetry": {
    "interval_s": 60
  }
}`

const cfgRPiExpander = `{
  "board": {
    "name": "rpi-pcf8574",
    "backend": "expander",
    "i2c_bus": "1",
    "i2c_addr": 32,
    "bus_power":  {"pin": 0},
    "boot":       {"pin": 1, "invert": true},
    "power_held": {"pin": 2},
    "power_on":   {"pin": 3},
    "power_off":  {"pin": 4}
  },
  "pwrseq": {
    "settle_ms": 500,
    "on_poll_ms": 50,
    "off_poll_ms": 5,
    "idle_backoff_ms": 2
  },
  "telemetry": {
    "interval_s": 60
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico":          []byte(cfgPico),
	"pico_expander": []byte(cfgPicoExpander),
	"rpi":           []byte(cfgRPi),
	"rpi_expander":  []byte(cfgRPiExpander),
}
