package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"powerseq-go/errcode"
	"powerseq-go/logx"
	"powerseq-go/services/bridge"
	"powerseq-go/types"
)

type fakePort struct {
	in      io.Reader
	out     bytes.Buffer
	flushed bool
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if !p.flushed {
		return 0, errors.New("read before flush")
	}
	return p.in.Read(b)
}
func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *fakePort) Close() error                { p.closed = true; return nil }
func (p *fakePort) Flush() error                { p.flushed = true; return nil }

func frames(t *testing.T, fs ...bridge.Frame) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := bridge.NewFrameWriter(&buf)
	for _, f := range fs {
		if err := w.WriteFrame(f); err != nil {
			t.Fatal(err)
		}
	}
	return &buf
}

func pub(t *testing.T, topic string, v any) bridge.Frame {
	t.Helper()
	f, err := bridge.EncodePub(topic, v, true)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestMonitorFlushesThenPrints(t *testing.T) {
	logx.SetOutput(io.Discard)
	t.Cleanup(func() { logx.SetOutput(nil) })

	p := &fakePort{in: frames(t,
		pub(t, "pwrseq/state", types.StateValue{Phase: types.PhaseOn, Started: true}),
		pub(t, "pwrseq/fault", types.HALFault{Error: "hal.io: bus_error: boot: nack"}),
		bridge.Frame{Type: bridge.FrameClose},
	)}
	var out bytes.Buffer
	if err := monitor(p, false, &out); err != nil {
		t.Fatalf("monitor() = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"pwrseq/state phase=on started=1",
		"pwrseq/fault hal.io: bus_error: boot: nack",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	f, err := bridge.NewFrameReader(&p.out).ReadFrame()
	if err != nil || f.Type != bridge.FramePing {
		t.Fatalf("first frame sent = %+v, %v; want ping", f, err)
	}
}

func TestMonitorReportsLinkLoss(t *testing.T) {
	p := &fakePort{in: strings.NewReader("")}
	if err := monitor(p, false, io.Discard); errcode.Of(err) != errcode.BusError {
		t.Fatalf("monitor() = %v, want bus_error", err)
	}
}
