//go:build rp2040 || rp2350

package hal

import (
	"context"
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"powerseq-go/errcode"
	"powerseq-go/types"
)

// OpenUART configures uart0 or uart1 from c and returns it as a stream.
// Close ends the stream and unblocks a pending Read; the UART stays
// configured and can be opened again.
func OpenUART(c types.SerialConfig) (io.ReadWriteCloser, error) {
	var hw *uartx.UART
	switch c.Port {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, &errcode.E{C: errcode.UnknownPin, Op: "hal.uart", Msg: c.Port}
	}
	// Defaults inside uartx apply to a zero baud.
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: c.Baud,
		TX:       machine.Pin(c.TX),
		RX:       machine.Pin(c.RX),
	}); err != nil {
		return nil, errcode.Wrap(errcode.BusError, "hal.uart", err)
	}
	if c.Parity != types.ParityNone {
		par := uartx.ParityEven
		if c.Parity == types.ParityOdd {
			par = uartx.ParityOdd
		}
		if err := hw.SetFormat(8, 1, par); err != nil {
			return nil, errcode.Wrap(errcode.BusError, "hal.uart", err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &uartStream{u: hw, ctx: ctx, cancel: cancel}, nil
}

type uartStream struct {
	u      *uartx.UART
	ctx    context.Context
	cancel context.CancelFunc
}

// Read blocks until at least one byte arrives or the stream is closed.
func (s *uartStream) Read(p []byte) (int, error) {
	n, err := s.u.RecvSomeContext(s.ctx, p)
	if err != nil && s.ctx.Err() != nil {
		return n, io.ErrClosedPipe
	}
	return n, err
}

func (s *uartStream) Write(p []byte) (int, error) {
	if s.ctx.Err() != nil {
		return 0, io.ErrClosedPipe
	}
	return s.u.Write(p)
}

func (s *uartStream) Close() error {
	s.cancel()
	return nil
}
