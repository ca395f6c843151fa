//go:build rp2040 || rp2350

// Command pwrseq-pico is the power sequencer firmware for RP2040/RP2350
// boards. Build with -tags board_expander for the PCF8574 wiring.
package main

import (
	"context"
	"device/arm"
	"io"
	"time"

	"powerseq-go/bus"
	"powerseq-go/hal"
	"powerseq-go/logx"
	"powerseq-go/sequencer"
	"powerseq-go/services/bridge"
	"powerseq-go/services/config"
	"powerseq-go/services/console"
	"powerseq-go/services/telemetry"
	"powerseq-go/types"
	"powerseq-go/x/fmtx"
	"powerseq-go/x/timex"
)

const firmware = "pwrseq-pico 0.3.0"

var log = logx.New("main")

func main() {
	defer resetOnPanic()

	p, err := config.Load(profile)
	if err != nil {
		halt(err)
	}

	// Console first so bring-up errors are visible.
	var term io.ReadWriter
	if p.Board.Console.Port != "" {
		rw, err := hal.OpenUART(p.Board.Console)
		if err != nil {
			halt(err)
		}
		fmtx.DefaultOutput = rw
		term = rw
	}
	log.Infof("%s board=%s backend=%s", firmware, p.Board.Name, p.Board.Backend)

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, profile)
	b := bus.NewBus(8)

	config.NewConfigService().Start(ctx, b.NewConnection("config"))
	telemetry.NewService().Start(ctx, b.NewConnection("telemetry"))
	bridge.Dial = func(_ context.Context, c types.SerialConfig) (io.ReadWriteCloser, error) {
		return hal.OpenUART(c)
	}
	go bridge.Start(ctx, b.NewConnection("link"))

	f, err := pinFactory(p.Board)
	if err != nil {
		halt(err)
	}
	lines, err := hal.Claim(f, p.Board)
	if err != nil {
		halt(err)
	}

	var wd hal.Watchdog = hal.NopWatchdog{}
	if p.Sequencer.WatchdogMs > 0 {
		if wd, err = hal.NewWatchdog(p.Sequencer.WatchdogMs); err != nil {
			halt(err)
		}
	}

	pub := telemetry.NewPublisher(b.NewConnection("pwrseq"))
	pub.PublishInfo(types.Info{SchemaVersion: 1, Firmware: firmware, Board: p.Board.Name, Backend: string(p.Board.Backend)})
	go hal.WatchErrors(ctx, lines, time.Second, pub.FaultReporter(timex.NowMs))

	seq, err := sequencer.New(lines.Lines, sequencer.Options{
		Timing:    p.Sequencer,
		Watchdog:  wd,
		Publisher: pub,
		Now:       timex.NowMs,
	})
	if err != nil {
		halt(err)
	}

	if term != nil {
		go func() {
			err := console.New(term, b.NewConnection("console")).Run(ctx)
			log.Warnf("console stopped: %v", err)
		}()
	}

	if err := wd.Start(); err != nil {
		halt(err)
	}
	err = seq.Run(ctx)

	// Run only returns on a hang. Stop feeding and let the watchdog reset us;
	// without one, reset directly.
	log.Errorf("%v", err)
	if p.Sequencer.WatchdogMs == 0 {
		time.Sleep(100 * time.Millisecond)
		arm.SystemReset()
	}
	for {
		time.Sleep(time.Second)
	}
}

func pinFactory(b types.BoardConfig) (hal.PinFactory, error) {
	switch b.Backend {
	case types.BackendExpander:
		i2c, err := hal.OpenI2C(b)
		if err != nil {
			return nil, err
		}
		ef, err := hal.NewExpanderFactory(i2c, b.I2CAddr)
		if err != nil {
			return nil, err
		}
		return ef, nil
	default:
		return hal.NewPinFactory(), nil
	}
}

// halt reports a bring-up failure forever. The watchdog is not running yet,
// so the board stays up for inspection.
func halt(err error) {
	for {
		log.Errorf("bring-up failed: %v", err)
		time.Sleep(2 * time.Second)
	}
}

func resetOnPanic() {
	if r := recover(); r != nil {
		println("[main] PANIC")
		time.Sleep(time.Second)
		arm.SystemReset()
	}
}
