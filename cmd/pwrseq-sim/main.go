// Command pwrseq-sim runs the sequencer against the simulated board and
// prints the output trace: scenario A (boot switch, power-on) followed by
// scenario B (bus power lost, hard power-off).
//
//	pwrseq-sim -idle 3 -held-after 4 -release-after 2
//	pwrseq-sim -pmic-on 200ms -pmic-off 15ms
//	pwrseq-sim -pmic-on -1ns -max-steps 20    # stuck PMIC, reported as a hang
package main

import (
	"flag"
	"os"
	"time"

	"powerseq-go/logx"
	"powerseq-go/sim"
	"powerseq-go/types"
	"powerseq-go/x/fmtx"
)

var log = logx.New("sim")

func main() {
	idle := flag.Int("idle", 3, "no-op polls before the boot switch closes")
	heldAfter := flag.Int("held-after", 4, "power-on wait steps before power_held asserts")
	releaseAfter := flag.Int("release-after", 2, "power-off wait steps before power_held releases")
	pmicOn := flag.Duration("pmic-on", 0, "use the PMIC model: on latch time (negative never latches)")
	pmicOff := flag.Duration("pmic-off", 10*time.Millisecond, "PMIC model off latch time")
	maxSteps := flag.Uint("max-steps", 0, "wait step cap, 0 = unbounded")
	flag.Parse()

	b := sim.NewBoard()
	rec := &sim.Recorder{}
	s, err := b.New(types.SequencerConfig{MaxWaitSteps: uint32(*maxSteps)}, rec)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	ha, ra := *heldAfter, *releaseAfter
	if *pmicOn != 0 {
		b.AttachPMIC(&sim.PMIC{OnLatch: *pmicOn, OffLatch: *pmicOff})
		// The PMIC drives power_held; keep the scripted edges out of reach.
		ha, ra = 1<<30, 1<<30
	}

	err = sim.ScenarioA(s, b, *idle, ha)
	if err == nil {
		err = sim.ScenarioB(s, b, ra)
	}

	for _, w := range b.Trace() {
		fmtx.Printf("%8s  %-9s %t\n", w.At, w.Line, w.Level)
	}
	for _, e := range rec.Events() {
		fmtx.Printf("%6dms  event %s steps=%d\n", e.TS, e.Name, e.Steps)
	}
	st := s.Snapshot()
	fmtx.Printf("final: phase=%s started=%t on=%d off=%d\n", st.Phase, st.Started, st.OnCount, st.OffCount)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
