package hal

// Watchdog resets the device unless Update is called within its timeout.
type Watchdog interface {
	Start() error
	Update()
}

// NopWatchdog is used where no hardware watchdog exists.
type NopWatchdog struct{}

func (NopWatchdog) Start() error { return nil }
func (NopWatchdog) Update()      {}
