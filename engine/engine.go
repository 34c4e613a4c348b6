package engine

import (
	"container/heap"

	"github.com/sirupsen/logrus"
)

// EngineOption configures an Engine at construction time, following the
// teacher's functional-options convention (PipelineOption).
type EngineOption func(*Engine)

// WithLogger overrides the engine's logrus logger. The default is a
// logrus.New() instance at InfoLevel, which emits nothing at the Debug
// level diagnostics the engine uses internally, so logging costs nothing
// unless the caller lowers the level.
func WithLogger(logger *logrus.Logger) EngineOption {
	return func(e *Engine) {
		e.log = logger
	}
}

// Engine is the per-cycle Tomasulo pipeline driver: it owns the fetch,
// dispatch, and schedule queues, the function-unit banks, the result
// buses, the retirement buffer, the register alias table, and the branch
// predictor, and advances them all in the fixed intra-cycle order defined
// by spec.md §4.5.
type Engine struct {
	settings Settings
	stats    Statistics
	log      *logrus.Logger

	predictor *gselectPredictor
	rat       *registerAliasTable
	tags      *tagAllocator

	fetchQ     []*Instruction
	dispatchQ  []*Instruction
	scheduleQ  []*station
	funcUnits  [][]*functionUnitEntry
	busyBuses  []resultBusSlot
	retireBuf  []resultBusSlot

	scheduleQLimit int
	currentClock   ClockCycle
	badBranch      *Instruction
}

// New builds an Engine from settings. Settings are not validated here;
// callers that accept settings from an external source should call
// Settings.Validate first.
func New(settings Settings, opts ...EngineOption) *Engine {
	e := &Engine{
		settings: settings.Clone(),
		log:      logrus.New(),
	}
	e.funcUnits = make([][]*functionUnitEntry, len(settings.FunctionUnitsCount))
	e.scheduleQLimit = settings.ScheduleQueueLimit()

	for _, opt := range opts {
		opt(e)
	}

	e.Reset()
	return e
}

// Settings returns a copy of the engine's configuration.
func (e *Engine) Settings() Settings {
	return e.settings.Clone()
}

// Statistics returns the accumulated run statistics.
func (e *Engine) Statistics() Statistics {
	return e.stats
}

// Reset clears all simulation state: statistics, the clock, the tag
// counter, the RAT, every queue, every function-unit bank, the predictor,
// and the mispredict stall. It does not change Settings.
func (e *Engine) Reset() {
	e.stats = Statistics{}
	e.currentClock = 0
	e.tags = newTagAllocator()
	e.rat = newRegisterAliasTable(e.settings.RegisterCount)
	e.predictor = newGselectPredictor(
		e.settings.GHRBits, e.settings.GHRInitVal,
		e.settings.PredictorBits, e.settings.PredictorInitVal,
		e.settings.PredictorTableSize,
	)

	e.fetchQ = nil
	e.dispatchQ = nil
	e.scheduleQ = nil
	e.busyBuses = nil
	e.retireBuf = nil
	e.badBranch = nil

	for i := range e.funcUnits {
		e.funcUnits[i] = nil
	}
}

// Run consumes trace in order and returns the instructions in the same
// (ingestion) order, each carrying its populated Life. The trace slice
// itself is not modified, but each Instruction it points to has its Life
// written in place; the returned slice is a fresh, ingestion-ordered copy
// of the pointers the engine processed.
func (e *Engine) Run(trace []*Instruction) []*Instruction {
	pending := append([]*Instruction(nil), trace...)
	result := make([]*Instruction, 0, len(trace))

	for len(pending) > 0 || !e.isPipelineEmpty() {
		e.currentClock++

		e.updateState()

		e.busyBuses, e.retireBuf = e.retireBuf, e.busyBuses

		e.retireInstructions()
		e.fireInstructions()
		e.scheduleInstructions()
		e.dispatchInstructions()
		pending = e.fetchInstructions(pending, &result)

		e.sweepRetirementBuffer()

		e.stats.ClockCycles++
	}

	e.currentClock--
	e.stats.ClockCycles--

	return result
}

func (e *Engine) isPipelineEmpty() bool {
	return len(e.fetchQ) == 0 && len(e.dispatchQ) == 0 && len(e.scheduleQ) == 0 && len(e.busyBuses) == 0
}

// updateState is step 2 of the per-cycle order: it consumes last cycle's
// broadcasts. It runs before the busy/retire-buffer swap, so busyBuses
// still holds the buses populated by the PREVIOUS cycle's retire, which is
// exactly the broadcast this cycle's consumers must observe.
func (e *Engine) updateState() {
	for _, bus := range e.busyBuses {
		e.rat.clearIfStillOwner(bus.reg, bus.t)

		for _, st := range e.scheduleQ {
			st.wake(bus.t)
		}
	}
}

// retireInstructions is step 4: select up to ResultBusCount retirable
// function-unit entries, ordered by (enterCycle, targetTag), broadcast
// them onto busyBuses, and update the predictor for any retiring branch.
func (e *Engine) retireInstructions() {
	var candidates retireCandidateHeap
	for bank := range e.funcUnits {
		for _, entry := range e.funcUnits[bank] {
			if entry.retirable(e.currentClock) {
				candidates = append(candidates, entry)
			}
		}
	}
	heap.Init(&candidates)

	for i := uint64(0); i < e.settings.ResultBusCount && candidates.Len() > 0; i++ {
		entry := heap.Pop(&candidates).(*functionUnitEntry)
		st := entry.station
		instr := st.instr

		e.busyBuses = append(e.busyBuses, resultBusSlot{
			reg:     instr.DstReg,
			t:       st.targetTag,
			station: st,
		})
		instr.Life.StateUpdateCycle = e.currentClock

		bank := int(instr.FuncType)
		e.funcUnits[bank] = removeFuncUnitEntry(e.funcUnits[bank], entry)

		e.stats.InstrExecuted++
	}

	for _, bus := range e.busyBuses {
		instr := bus.station.instr
		if !instr.IsBranch {
			continue
		}
		e.predictor.update(hashAddress(instr.Address), instr.BranchTaken)
		if e.badBranch == instr {
			e.log.WithField("addr", instr.Address).Debug("engine: mispredict stall resolved")
			e.badBranch = nil
		}
	}
}

func removeFuncUnitEntry(bank []*functionUnitEntry, target *functionUnitEntry) []*functionUnitEntry {
	for i, entry := range bank {
		if entry == target {
			return append(bank[:i], bank[i+1:]...)
		}
	}
	panic("engine: retiring function unit not found in its bank")
}

// fireInstructions is step 5: fire every unfired, ready station whose bank
// has a free slot, in schedule-queue (insertion) order.
func (e *Engine) fireInstructions() {
	for _, st := range e.scheduleQ {
		if st.fired {
			continue
		}
		instr := st.instr
		bank := int(instr.FuncType)

		if uint16(len(e.funcUnits[bank])) >= e.settings.FunctionUnitsCount[bank] {
			continue
		}
		if !st.allSourcesReady() {
			continue
		}

		e.funcUnits[bank] = append(e.funcUnits[bank], &functionUnitEntry{
			latency:    e.settings.FunctionUnitsLatency[bank],
			enterCycle: e.currentClock,
			station:    st,
		})
		st.fired = true
		instr.Life.ExecuteCycle = e.currentClock

		e.stats.InstrFired++
	}
}

// scheduleInstructions is step 6: move instructions from the dispatch
// queue into the schedule queue while there is room, allocating a tag and
// building a reservation station for each.
func (e *Engine) scheduleInstructions() {
	for len(e.scheduleQ) < e.scheduleQLimit && len(e.dispatchQ) > 0 {
		instr := e.dispatchQ[0]
		e.dispatchQ = e.dispatchQ[1:]

		instr.Life.ScheduleCycle = e.currentClock

		st := &station{instr: instr}
		for _, src := range instr.SrcRegs {
			producer := e.rat.tagFor(src)
			if producer == noTag {
				st.sourceTags = append(st.sourceTags, noTag)
				st.sourcesReady = append(st.sourcesReady, true)
			} else {
				st.sourceTags = append(st.sourceTags, producer)
				st.sourcesReady = append(st.sourcesReady, false)
			}
		}

		newTag := e.tags.newTag()
		st.targetTag = newTag
		if instr.DstReg >= 0 {
			e.rat.setProducer(instr.DstReg, newTag)
		}

		e.scheduleQ = append(e.scheduleQ, st)
		e.stats.InstrScheduled++
	}
}

// dispatchInstructions is step 7: move up to FetchRate instructions from
// fetch to dispatch, gated by the absence of an unresolved mispredict.
func (e *Engine) dispatchInstructions() {
	for i := uint64(0); i < e.settings.FetchRate && e.badBranch == nil && len(e.fetchQ) > 0; i++ {
		instr := e.fetchQ[0]
		e.fetchQ = e.fetchQ[1:]

		instr.Life.DispatchCycle = e.currentClock

		if instr.IsBranch {
			e.stats.Branches++
			predictedTaken := e.predictor.predict(hashAddress(instr.Address))
			if predictedTaken != instr.BranchTaken {
				e.badBranch = instr
				e.log.WithField("addr", instr.Address).Debug("engine: mispredict, stalling dispatch")
			} else {
				e.stats.CorrectBranches++
			}
		}

		e.dispatchQ = append(e.dispatchQ, instr)
		e.stats.InstrDispatched++
	}

	size := uint64(len(e.dispatchQ))
	if size > e.stats.PeakDispatchSize {
		e.stats.PeakDispatchSize = size
	}
	e.stats.DispatchSizeSum += size
}

// fetchInstructions is step 8: pull up to FetchRate instructions from
// pending, stamp their fetch cycle, and append them to both the fetch
// queue and the ingestion-ordered result accumulator.
func (e *Engine) fetchInstructions(pending []*Instruction, result *[]*Instruction) []*Instruction {
	for i := uint64(0); i < e.settings.FetchRate && len(pending) > 0; i++ {
		instr := pending[0]
		pending = pending[1:]

		instr.Life = InstructionLife{FetchCycle: e.currentClock}

		e.fetchQ = append(e.fetchQ, instr)
		*result = append(*result, instr)

		e.stats.Instructions++
	}
	return pending
}

// sweepRetirementBuffer is step 9: remove from the schedule queue every
// station whose bus was carried in the retirement buffer (populated by the
// PREVIOUS cycle's retire into busyBuses, and swapped from busyBuses into
// retireBuf at the top of this cycle).
func (e *Engine) sweepRetirementBuffer() {
	for _, bus := range e.retireBuf {
		e.scheduleQ = removeStation(e.scheduleQ, bus.station)
		e.stats.InstrRetired++
	}
	e.retireBuf = e.retireBuf[:0]
}

func removeStation(q []*station, target *station) []*station {
	for i, st := range q {
		if st == target {
			return append(q[:i], q[i+1:]...)
		}
	}
	panic("engine: swept station not found in schedule queue")
}
