package trace_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/trace"
)

var _ = Describe("Load", func() {
	Context("with a non-branch line", func() {
		It("parses all five fields and assigns Number in file order", func() {
			instrs, err := trace.Load(strings.NewReader("100 0 1 2 3\n104 2 4 5 6\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(instrs).To(HaveLen(2))

			Expect(instrs[0].Number).To(BeEquivalentTo(1))
			Expect(instrs[0].Address).To(BeEquivalentTo(0x100))
			Expect(instrs[0].FuncType).To(BeEquivalentTo(0))
			Expect(instrs[0].DstReg).To(BeEquivalentTo(1))
			Expect(instrs[0].SrcRegs).To(Equal([]int32{2, 3}))
			Expect(instrs[0].IsBranch).To(BeFalse())

			Expect(instrs[1].Number).To(BeEquivalentTo(2))
		})

		It("normalizes func_type -1 to 1", func() {
			instrs, err := trace.Load(strings.NewReader("100 -1 1 2 3\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(instrs[0].FuncType).To(BeEquivalentTo(1))
		})

		It("skips blank lines without counting them toward Number", func() {
			instrs, err := trace.Load(strings.NewReader("100 0 1 2 3\n\n   \n104 0 4 5 6\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(instrs).To(HaveLen(2))
			Expect(instrs[1].Number).To(BeEquivalentTo(2))
		})
	})

	Context("with a branch line", func() {
		It("parses the branch target and taken flag", func() {
			instrs, err := trace.Load(strings.NewReader("200 1 -1 4 5 300 1\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(instrs).To(HaveLen(1))

			i := instrs[0]
			Expect(i.IsBranch).To(BeTrue())
			Expect(i.BranchAddress).To(BeEquivalentTo(0x300))
			Expect(i.BranchTaken).To(BeTrue())
			Expect(i.DstReg).To(BeEquivalentTo(-1))
		})

		It("accepts a not-taken branch", func() {
			instrs, err := trace.Load(strings.NewReader("200 1 -1 4 5 300 0\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(instrs[0].BranchTaken).To(BeFalse())
		})
	})

	Context("with malformed input", func() {
		It("rejects a line with the wrong field count", func() {
			_, err := trace.Load(strings.NewReader("100 0 1 2\n"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("line 1"))
		})

		It("rejects a non-numeric field", func() {
			_, err := trace.Load(strings.NewReader("100 0 x 2 3\n"))
			Expect(err).To(HaveOccurred())
		})

		It("rejects a branch_taken value outside 0/1", func() {
			_, err := trace.Load(strings.NewReader("200 1 -1 4 5 300 2\n"))
			Expect(err).To(HaveOccurred())
		})
	})
})
