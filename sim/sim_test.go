package sim

import (
	"testing"
	"time"

	"powerseq-go/types"
)

func TestAfterStepsIsRelative(t *testing.T) {
	b := NewBoard()
	b.Delay(time.Millisecond)
	b.Delay(time.Millisecond)
	b.AfterSteps(2, b.PowerHeld, true)
	b.Delay(time.Millisecond)
	if b.PowerHeld.Get() {
		t.Fatal("forced one step early")
	}
	b.Delay(time.Millisecond)
	if !b.PowerHeld.Get() {
		t.Fatal("not forced after two steps")
	}
	if b.Now() != 4*time.Millisecond || b.NowMs() != 4 || b.Steps() != 4 {
		t.Fatalf("clock = %v/%d steps", b.Now(), b.Steps())
	}
}

func TestTraceRecordsOnlySets(t *testing.T) {
	b := NewBoard()
	b.Boot.Force(true)
	b.Delay(5 * time.Millisecond)
	b.PowerOn.Set(true)
	tr := b.Trace()
	if len(tr) != 1 || tr[0] != (Write{At: 5 * time.Millisecond, Line: "power_on", Level: true}) {
		t.Fatalf("trace = %+v", tr)
	}
	if b.PowerOn.Writes() != 1 || b.Boot.Writes() != 0 {
		t.Fatal("write counters wrong")
	}
}

func TestStuckPMICNeverLatches(t *testing.T) {
	b := NewBoard()
	b.AttachPMIC(&PMIC{OnLatch: -1, OffLatch: time.Millisecond})
	b.PowerOn.Set(true)
	for i := 0; i < 100; i++ {
		b.Delay(50 * time.Millisecond)
	}
	if b.PowerHeld.Get() {
		t.Fatal("stuck PMIC latched")
	}
}

func TestScenarios(t *testing.T) {
	b := NewBoard()
	rec := &Recorder{}
	s, err := b.New(types.SequencerConfig{}, rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := ScenarioA(s, b, 5, 3); err != nil {
		t.Fatalf("A: %v", err)
	}
	if st := s.Snapshot(); !st.Started || st.Phase != types.PhaseOn || st.LastSteps != 3 {
		t.Fatalf("after A: %+v", st)
	}
	if b.Now() != 150*time.Millisecond {
		t.Fatalf("A took %v, want 150ms", b.Now())
	}

	if err := ScenarioB(s, b, 2); err != nil {
		t.Fatalf("B: %v", err)
	}
	if st := s.Snapshot(); st.Started || st.Phase != types.PhaseOff || st.LastSteps != 2 {
		t.Fatalf("after B: %+v", st)
	}
	if b.Now() != 160*time.Millisecond {
		t.Fatalf("A+B took %v, want 160ms", b.Now())
	}

	ev := rec.Events()
	names := make([]types.EventName, len(ev))
	for i, e := range ev {
		names[i] = e.Name
	}
	want := []types.EventName{types.EventPowerOn, types.EventPowerHeld, types.EventPowerOffHard, types.EventReleased}
	if len(names) != len(want) {
		t.Fatalf("events = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}
	if ev[1].TS != 150 {
		t.Fatalf("power_held ts = %d, want 150", ev[1].TS)
	}
}

func TestScenarioAFailsWhenAlreadyStarted(t *testing.T) {
	b := NewBoard()
	s, err := b.New(types.SequencerConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ScenarioA(s, b, 0, 0); err != nil {
		t.Fatal(err)
	}
	// started is still set, so the switch is ignored.
	if err := ScenarioA(s, b, 0, 0); err == nil {
		t.Fatal("second power-on accepted")
	}
}
