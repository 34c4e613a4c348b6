package report_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/engine"
	"github.com/sarchlab/tomasim/report"
)

var _ = Describe("WriteInstructionLives", func() {
	It("writes a header and one row per instruction, 1-based", func() {
		trace := []*engine.Instruction{
			{Life: engine.InstructionLife{FetchCycle: 1, DispatchCycle: 2, ScheduleCycle: 3, ExecuteCycle: 4, StateUpdateCycle: 5}},
			{Life: engine.InstructionLife{FetchCycle: 2, DispatchCycle: 3, ScheduleCycle: 4, ExecuteCycle: 5, StateUpdateCycle: 6}},
		}

		var buf strings.Builder
		Expect(report.WriteInstructionLives(&buf, trace)).To(Succeed())

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[0]).To(Equal("INST\tFETCH\tDISP\tSCHED\tEXEC\tSTATE"))
		Expect(lines[1]).To(Equal("1\t1\t2\t3\t4\t5"))
		Expect(lines[2]).To(Equal("2\t2\t3\t4\t5\t6"))
	})

	It("writes only the header for an empty trace", func() {
		var buf strings.Builder
		Expect(report.WriteInstructionLives(&buf, nil)).To(Succeed())
		Expect(buf.String()).To(Equal("INST\tFETCH\tDISP\tSCHED\tEXEC\tSTATE\n"))
	})
})

var _ = Describe("WriteStatistics", func() {
	It("reports a zero prediction accuracy when no branches ran, without dividing by zero", func() {
		var buf strings.Builder
		stats := engine.Statistics{ClockCycles: 10, InstrFired: 5, InstrRetired: 5}
		Expect(report.WriteStatistics(&buf, stats)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("prediction accuracy: 0"))
		Expect(out).To(ContainSubstring("Total branch instructions: 0"))
	})

	It("computes the derived rates from raw statistics", func() {
		var buf strings.Builder
		stats := engine.Statistics{
			ClockCycles:      4,
			InstrFired:       8,
			InstrRetired:     4,
			DispatchSizeSum:  12,
			PeakDispatchSize: 3,
			Branches:         4,
			CorrectBranches:  3,
		}
		Expect(report.WriteStatistics(&buf, stats)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("prediction accuracy: 0.75"))
		Expect(out).To(ContainSubstring("Avg Dispatch queue size: 3"))
		Expect(out).To(ContainSubstring("Avg inst Issue per cycle: 2"))
		Expect(out).To(ContainSubstring("Avg inst retired per cycle: 1"))
		Expect(out).To(ContainSubstring("Maximum Dispatch queue size: 3"))
		Expect(out).To(ContainSubstring("Total run time (cycles): 4"))
	})
})
