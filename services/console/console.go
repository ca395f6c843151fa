// Package console is a read-only line console. It reports state and never
// drives the power lines.
package console

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"powerseq-go/bus"
	"powerseq-go/errcode"
	"powerseq-go/services/telemetry"
	"powerseq-go/types"
	"powerseq-go/x/fmtx"
)

const (
	prompt         = "> "
	requestTimeout = 500 * time.Millisecond
	maxLine        = 128
)

type Console struct {
	rw   io.ReadWriter
	conn *bus.Connection
}

func New(rw io.ReadWriter, conn *bus.Connection) *Console {
	return &Console{rw: rw, conn: conn}
}

// Run serves commands until the reader fails or ctx is cancelled. A cancelled
// ctx is only seen after the current read returns.
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.rw)
	sc.Buffer(make([]byte, 0, maxLine), maxLine)
	c.write(prompt)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Exec(ctx, sc.Text())
		c.write(prompt)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Exec runs one command line and writes its output.
func (c *Console) Exec(ctx context.Context, line string) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return
	}
	switch strings.ToLower(f[0]) {
	case "help", "?":
		c.write("status   phase, signals and counters\n" +
			"version  firmware and board\n" +
			"help     this text\n")
	case "status":
		st, err := c.status(ctx)
		if err != nil {
			c.writef("error: %s\n", errcode.Of(err))
			return
		}
		if !st.HasState {
			c.write("no state yet\n")
			return
		}
		v := st.State
		c.writef("%s\n", telemetry.StateLine(v))
		c.writef("on_count=%d off_count=%d last_wait_steps=%d\n", v.OnCount, v.OffCount, v.LastSteps)
	case "version":
		st, err := c.status(ctx)
		if err != nil {
			c.writef("error: %s\n", errcode.Of(err))
			return
		}
		i := st.Info
		c.writef("%s board=%s backend=%s schema=%d\n", i.Firmware, i.Board, i.Backend, i.SchemaVersion)
	default:
		c.writef("unknown command %q, try help\n", f[0])
	}
}

func (c *Console) status(ctx context.Context) (types.Status, error) {
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	m, err := c.conn.RequestWait(rctx, c.conn.NewMessage(telemetry.TopicStatusGet, nil, false))
	if err != nil {
		return types.Status{}, err
	}
	st, ok := m.Payload.(types.Status)
	if !ok {
		return types.Status{}, &errcode.E{C: errcode.Error, Op: "console.status", Msg: "unexpected reply"}
	}
	return st, nil
}

func (c *Console) write(s string) { _, _ = io.WriteString(c.rw, s) }

func (c *Console) writef(format string, a ...any) { _, _ = fmtx.Fprintf(c.rw, format, a...) }
