//go:build !(rp2040 || rp2350)

// Package serial opens host serial ports for the link monitor and for the
// Linux daemon's telemetry link.
package serial

import (
	"context"
	"io"
	"time"

	"github.com/tarm/serial"

	"powerseq-go/errcode"
	"powerseq-go/types"
)

// Port is an open serial port.
type Port interface {
	io.ReadWriteCloser
	Flush() error
}

// DefaultBaud matches the firmware UARTs.
const DefaultBaud = 115200

// Open opens c.Port. readTimeout of zero blocks until data arrives.
func Open(c types.SerialConfig, readTimeout time.Duration) (Port, error) {
	if c.Port == "" {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "serial.open", Msg: "no port"}
	}
	cfg := &serial.Config{
		Name:        c.Port,
		Baud:        int(c.Baud),
		ReadTimeout: readTimeout,
		Parity:      parity(c.Parity),
	}
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, &errcode.E{C: errcode.BusError, Op: "serial.open", Msg: c.Port, Err: err}
	}
	return &nativePort{p: p}, nil
}

// Dial has the signature of bridge.Dial.
func Dial(_ context.Context, c types.SerialConfig) (io.ReadWriteCloser, error) {
	return Open(c, 0)
}

func parity(p types.Parity) serial.Parity {
	switch p {
	case types.ParityEven:
		return serial.ParityEven
	case types.ParityOdd:
		return serial.ParityOdd
	default:
		return serial.ParityNone
	}
}

type nativePort struct{ p *serial.Port }

func (n *nativePort) Read(b []byte) (int, error)  { return n.p.Read(b) }
func (n *nativePort) Write(b []byte) (int, error) { return n.p.Write(b) }
func (n *nativePort) Close() error                { return n.p.Close() }
func (n *nativePort) Flush() error                { return n.p.Flush() }
