package lithium

import (
	"fmt"
	"time"

	"github.com/MozillaSecurity/lithium/internal/strategy"
)

// ReductionReport is the controller's final account of a run, built from
// the strategy's [strategy.Report] plus the wallclock the controller alone
// can measure (spec §4.4 step 8: "initial atoms, final atoms, oracle call
// count, wallclock").
type ReductionReport struct {
	Strategy     string
	InitialAtoms int
	FinalAtoms   int
	OracleCalls  int
	Elapsed      time.Duration
}

// Summary renders the single-line summary emitted at the end of every run.
func (r ReductionReport) Summary() string {
	return fmt.Sprintf(
		"%s: %d -> %d atoms, %d oracle calls, %s",
		r.Strategy, r.InitialAtoms, r.FinalAtoms, r.OracleCalls, r.Elapsed.Round(time.Millisecond),
	)
}

func newReductionReport(sr strategy.Report, elapsed time.Duration) ReductionReport {
	return ReductionReport{
		Strategy:     sr.Strategy,
		InitialAtoms: sr.InitialAtoms,
		FinalAtoms:   sr.FinalAtoms,
		OracleCalls:  sr.OracleCalls,
		Elapsed:      elapsed,
	}
}

// ProgressLine renders one oracle-call progress line (spec §7: "chunk
// size, position, verdict"), shown at verbose level.
func ProgressLine(ev strategy.ProgressEvent) string {
	return fmt.Sprintf("[chunk %d @ %d] %s", ev.ChunkSize, ev.Position, ev.Verdict)
}
