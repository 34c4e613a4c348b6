package engine

// RegNo is a signed architectural register index. A negative value means
// "no register" (no destination, or an unused source slot).
type RegNo = int32

// ClockCycle counts simulated cycles from 1.
type ClockCycle = uint64

// tag identifies a dynamic instance of an instruction's result. Zero and
// negative values are reserved: -1 means "none / already ready".
type tag = int64

const noTag tag = -1

// InstructionLife records the cycle at which an instruction entered each of
// the five pipeline stages. It is owned by the Instruction and each field
// is written exactly once, by the stage that reaches it.
type InstructionLife struct {
	FetchCycle       ClockCycle
	DispatchCycle    ClockCycle
	ScheduleCycle    ClockCycle
	ExecuteCycle     ClockCycle
	StateUpdateCycle ClockCycle
}

// Instruction is immutable after ingestion except for its Life, which the
// engine populates as the instruction advances through the pipeline.
type Instruction struct {
	// Number is the 1-based ingestion index, assigned by the external
	// trace reader before the instruction reaches the engine.
	Number uint64

	// Address is the 64-bit program counter.
	Address uint64

	// FuncType selects a function-unit bank. A trace value of -1 is
	// normalized to 1 by the ingestor before reaching the engine.
	FuncType int16

	// DstReg is the destination register, or a negative value if the
	// instruction has no destination.
	DstReg RegNo

	// SrcRegs lists source register indices in order; a negative entry
	// is ignored during wakeup (treated as already satisfied).
	SrcRegs []RegNo

	// IsBranch, BranchTaken, and BranchAddress describe branch metadata.
	IsBranch      bool
	BranchTaken   bool
	BranchAddress uint64

	// Life is populated once per stage as the instruction advances.
	Life InstructionLife
}

// Statistics accumulates simulation-wide counters, populated over the
// course of a Run.
type Statistics struct {
	Instructions uint64
	ClockCycles  ClockCycle

	InstrDispatched uint64
	InstrScheduled  uint64
	InstrFired      uint64
	InstrExecuted   uint64
	InstrRetired    uint64

	PeakDispatchSize  uint64
	DispatchSizeSum   uint64

	Branches        uint64
	CorrectBranches uint64
}
