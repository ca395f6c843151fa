package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"powerseq-go/bus"
	"powerseq-go/logx"
	"powerseq-go/types"
)

type syncBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuf) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuf) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func captureLog(t *testing.T) *syncBuf {
	t.Helper()
	buf := &syncBuf{}
	logx.SetOutput(buf)
	t.Cleanup(func() { logx.SetOutput(nil) })
	return buf
}

func waitFor(t *testing.T, buf *syncBuf, want string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("log never contained %q; got:\n%s", want, buf.String())
}

func TestPublisherTopics(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	p := NewPublisher(conn)

	p.PublishState(types.StateValue{Phase: types.PhaseOn, Started: true})
	p.PublishEvent(types.TransitionEvent{Name: types.EventPowerHeld, Steps: 4})

	// State is retained, events are not.
	st := conn.Subscribe(TopicState)
	select {
	case m := <-st.Channel():
		if v := m.Payload.(types.StateValue); v.Phase != types.PhaseOn || !m.Retained {
			t.Fatalf("state = %+v retained=%v", v, m.Retained)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no retained state")
	}

	ev := conn.Subscribe(bus.T("pwrseq", "event", bus.Single))
	select {
	case m := <-ev.Channel():
		t.Fatalf("event replayed: %v", m.Topic)
	case <-time.After(20 * time.Millisecond):
	}
	p.PublishEvent(types.TransitionEvent{Name: types.EventPowerOffHard})
	select {
	case m := <-ev.Channel():
		if got := m.Topic.String(); got != "pwrseq/event/power_off" {
			t.Fatalf("topic = %s", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no event")
	}
}

func TestServiceLogsTransitions(t *testing.T) {
	buf := captureLog(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	NewService().Start(ctx, b.NewConnection("telemetry"))
	p := NewPublisher(b.NewConnection("seq"))

	p.PublishEvent(types.TransitionEvent{Name: types.EventPowerOn})
	p.PublishState(types.StateValue{Phase: types.PhasePoweringOn, Started: true,
		Signals: types.Signals{BusPower: true, Boot: true, PowerOn: true}})
	p.PublishEvent(types.TransitionEvent{Name: types.EventPowerHeld, Steps: 4})
	p.PublishEvent(types.TransitionEvent{Name: types.EventHang, Steps: 10})

	waitFor(t, buf, "[seq] power_on\n")
	waitFor(t, buf, "[seq] phase=powering_on started=1 bus=1 boot=1 held=0 on=1 off=0\n")
	waitFor(t, buf, "[seq] power_held after 4 steps\n")
	waitFor(t, buf, "[seq] error: hang: power_held did not settle after 10 steps\n")
}

func TestStatusRequest(t *testing.T) {
	captureLog(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	NewService().Start(ctx, b.NewConnection("telemetry"))
	p := NewPublisher(b.NewConnection("seq"))
	p.PublishInfo(types.Info{SchemaVersion: 1, Firmware: "test", Board: "sim", Backend: "gpio"})
	p.PublishState(types.StateValue{Phase: types.PhaseOn, Started: true, OnCount: 1})

	cli := b.NewConnection("cli")
	deadline := time.Now().Add(time.Second)
	for {
		rctx, rcancel := context.WithTimeout(ctx, 100*time.Millisecond)
		m, err := cli.RequestWait(rctx, cli.NewMessage(TopicStatusGet, nil, false))
		rcancel()
		if err != nil {
			t.Fatalf("RequestWait: %v", err)
		}
		st := m.Payload.(types.Status)
		if st.HasState && st.Info.Board == "sim" {
			if st.State.Phase != types.PhaseOn || st.State.OnCount != 1 {
				t.Fatalf("status = %+v", st)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("status never caught up: %+v", st)
		}
	}
}

func TestPeriodicStateLine(t *testing.T) {
	buf := captureLog(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	conn := b.NewConnection("telemetry")
	conn.Publish(conn.NewMessage(TopicConfig, types.TelemetryConfig{IntervalS: 1}, true))
	NewService().Start(ctx, conn)
	NewPublisher(conn).PublishState(types.StateValue{Phase: types.PhaseOff})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), "[telemetry] phase=off") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("no periodic line; got:\n%s", buf.String())
}

func TestFaultReporterLogsAndRetains(t *testing.T) {
	buf := captureLog(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	NewService().Start(ctx, b.NewConnection("telemetry"))
	conn := b.NewConnection("seq")
	report := NewPublisher(conn).FaultReporter(func() int64 { return 42 })

	report(errors.New("hal.io: bus_error: power_held: nack"))
	waitFor(t, buf, "[seq] error: line i/o: hal.io: bus_error: power_held: nack\n")

	report(nil)
	waitFor(t, buf, "[seq] line i/o recovered\n")

	sub := conn.Subscribe(TopicFault)
	select {
	case m := <-sub.Channel():
		f := m.Payload.(types.HALFault)
		if !m.Retained || f.Error != "" || f.TS != 42 {
			t.Fatalf("retained fault = %+v retained=%v", f, m.Retained)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no retained fault")
	}
}
