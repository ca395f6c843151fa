//go:build linux && !baremetal

// Command pwrseqd runs the power sequencer on a Linux board using GPIO
// character-device lines, or a PCF8574 expander on an I²C adapter.
//
//	pwrseqd -profile rpi
//	pwrseqd -config /etc/pwrseq.json -link /dev/ttyAMA1 -console
//
// A hung wait exits with status 2 so a supervisor can restart the daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"powerseq-go/bus"
	"powerseq-go/errcode"
	"powerseq-go/hal"
	"powerseq-go/host/serial"
	"powerseq-go/logx"
	"powerseq-go/sequencer"
	"powerseq-go/services/bridge"
	"powerseq-go/services/config"
	"powerseq-go/services/console"
	"powerseq-go/services/telemetry"
	"powerseq-go/types"
)

const (
	firmware    = "pwrseqd 0.3.0"
	faultPeriod = time.Second
)

var log = logx.New("main")

func main() {
	profile := flag.String("profile", "rpi", "embedded device profile")
	cfgPath := flag.String("config", "", "JSON profile file; overrides -profile")
	chip := flag.String("chip", "", "GPIO chip, overrides the profile")
	link := flag.String("link", "", "serial port for framed telemetry")
	withConsole := flag.Bool("console", false, "serve console commands on stdin")
	debug := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *debug {
		logx.SetLevel(logx.Debug)
	}
	if err := run(*profile, *cfgPath, *chip, *link, *withConsole); err != nil {
		log.Errorf("%v", err)
		if errcode.Of(err) == errcode.Timeout {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(profile, cfgPath, chip, link string, withConsole bool) error {
	raw, p, err := loadProfile(profile, cfgPath)
	if err != nil {
		return err
	}
	if chip != "" {
		p.Board.Chip = chip
	}
	if link != "" {
		p.Board.Link = types.SerialConfig{Port: link, Baud: serial.DefaultBaud}
	}
	if p.Board.Chip == "" {
		p.Board.Chip = "gpiochip0"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(16)
	cfgConn := b.NewConnection("config")
	if err := config.PublishRaw(cfgConn, raw); err != nil {
		return err
	}
	// Flag overrides win over the file.
	cfgConn.Publish(cfgConn.NewMessage(bus.T("config", "board"), p.Board, true))

	telemetry.NewService().Start(ctx, b.NewConnection("telemetry"))
	bridge.Dial = serial.Dial
	go bridge.Start(ctx, b.NewConnection("link"))

	f, closeFactory, err := pinFactory(p.Board)
	if err != nil {
		return err
	}
	defer closeFactory()
	lines, err := hal.Claim(f, p.Board)
	if err != nil {
		return err
	}
	defer lines.Close()

	pub := telemetry.NewPublisher(b.NewConnection("pwrseq"))
	pub.PublishInfo(types.Info{SchemaVersion: 1, Firmware: firmware, Board: p.Board.Name, Backend: string(p.Board.Backend)})
	go hal.WatchErrors(ctx, lines, faultPeriod, pub.FaultReporter(func() int64 { return time.Now().UnixMilli() }))

	seq, err := sequencer.New(lines.Lines, sequencer.Options{Timing: p.Sequencer, Publisher: pub})
	if err != nil {
		return err
	}
	log.Infof("%s board=%s backend=%s", firmware, p.Board.Name, p.Board.Backend)

	if withConsole {
		go func() {
			err := console.New(stdio{}, b.NewConnection("console")).Run(ctx)
			if !errors.Is(err, io.EOF) {
				log.Warnf("console stopped: %v", err)
			}
		}()
	}

	err = seq.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Infof("stopping")
		return nil
	}
	return err
}

func pinFactory(b types.BoardConfig) (hal.PinFactory, func(), error) {
	switch b.Backend {
	case types.BackendGPIO, "":
		return hal.NewChipFactory(b.Chip), func() {}, nil
	case types.BackendExpander:
		adapter, err := hal.OpenI2C(b)
		if err != nil {
			return nil, nil, err
		}
		f, err := hal.NewExpanderFactory(adapter, b.I2CAddr)
		if err != nil {
			_ = adapter.Close()
			return nil, nil, err
		}
		return f, func() { _ = adapter.Close() }, nil
	}
	return nil, nil, &errcode.E{C: errcode.Unsupported, Op: "pwrseqd", Msg: "backend " + string(b.Backend)}
}

func loadProfile(name, path string) ([]byte, config.Profile, error) {
	if path == "" {
		raw, ok := config.EmbeddedConfigLookup(name)
		if !ok {
			return nil, config.Profile{}, &errcode.E{C: errcode.NotConfigured, Op: "pwrseqd", Msg: "no profile " + name}
		}
		p, err := config.Decode(raw)
		return raw, p, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, config.Profile{}, errcode.Wrap(errcode.NotConfigured, "pwrseqd", err)
	}
	p, err := config.Decode(raw)
	return raw, p, err
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
