// Package report renders the per-instruction life-cycle table and the
// aggregate statistics summary that accompany a simulation run. Both are
// presentation only: the derived figures here (averages, prediction
// accuracy) are computed at print time from engine.Statistics, exactly as
// the original implementation's printStatistics does, and are never stored
// on Statistics itself.
package report

import (
	"fmt"
	"io"

	"github.com/sarchlab/tomasim/engine"
)

// WriteInstructionLives writes one line per instruction: its 1-based
// position in trace, ingestion order, then its five stage cycles.
func WriteInstructionLives(w io.Writer, trace []*engine.Instruction) error {
	if _, err := fmt.Fprintln(w, "INST\tFETCH\tDISP\tSCHED\tEXEC\tSTATE"); err != nil {
		return fmt.Errorf("report: failed to write header: %w", err)
	}

	for i, instr := range trace {
		life := instr.Life
		_, err := fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\n",
			i+1, life.FetchCycle, life.DispatchCycle, life.ScheduleCycle, life.ExecuteCycle, life.StateUpdateCycle)
		if err != nil {
			return fmt.Errorf("report: failed to write instruction %d: %w", i+1, err)
		}
	}
	return nil
}

// WriteStatistics writes the aggregate run summary, including derived
// metrics (prediction accuracy, average dispatch/fire/retire rates) that
// exist only as presentation-layer divisions over Statistics' raw counters.
func WriteStatistics(w io.Writer, stats engine.Statistics) error {
	avgDispatchSize := safeDiv(float64(stats.DispatchSizeSum), float64(stats.ClockCycles))
	avgFiredInstr := safeDiv(float64(stats.InstrFired), float64(stats.ClockCycles))
	avgRetiredInstr := safeDiv(float64(stats.InstrRetired), float64(stats.ClockCycles))
	predAccuracy := safeDiv(float64(stats.CorrectBranches), float64(stats.Branches))

	lines := []string{
		"",
		"Processor stats:",
		fmt.Sprintf("Total branch instructions: %d", stats.Branches),
		fmt.Sprintf("Total correct predicted branch instructions: %d", stats.CorrectBranches),
		fmt.Sprintf("prediction accuracy: %v", predAccuracy),
		fmt.Sprintf("Avg Dispatch queue size: %v", avgDispatchSize),
		fmt.Sprintf("Maximum Dispatch queue size: %d", stats.PeakDispatchSize),
		fmt.Sprintf("Avg inst Issue per cycle: %v", avgFiredInstr),
		fmt.Sprintf("Avg inst retired per cycle: %v", avgRetiredInstr),
		fmt.Sprintf("Total run time (cycles): %d", stats.ClockCycles),
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("report: failed to write statistics: %w", err)
		}
	}
	return nil
}

// safeDiv returns 0 for a zero denominator rather than NaN, since an
// all-zero statistics set (e.g. a trace with no branches) is a normal
// input, not an error.
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
