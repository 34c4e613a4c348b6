package engine

import "container/heap"

// station is the scheduling-window entry for one in-flight instruction
// awaiting its source operands. Stations are referenced simultaneously
// from the schedule queue, a function-unit bank entry, a result-bus slot,
// and the retirement buffer; identity (pointer equality), not structural
// equality, is what sweep and retire use to find and remove them.
type station struct {
	fired        bool
	targetTag    tag
	sourceTags   []tag
	sourcesReady []bool
	instr        *Instruction
}

// allSourcesReady reports whether every operand this station awaits has
// been broadcast.
func (s *station) allSourcesReady() bool {
	for _, ready := range s.sourcesReady {
		if !ready {
			return false
		}
	}
	return true
}

// wake marks any source slot waiting on t as satisfied. A station may have
// more than one source slot waiting on the same tag (e.g. add r, r, r).
func (s *station) wake(t tag) {
	for i, srcTag := range s.sourceTags {
		if srcTag == t {
			s.sourcesReady[i] = true
		}
	}
}

// functionUnitEntry is one occupied slot in a function-unit bank: a
// station currently executing, timestamped by the cycle it fired.
type functionUnitEntry struct {
	latency    uint16
	enterCycle ClockCycle
	station    *station
}

// retirable reports whether this entry may retire at the given cycle.
func (e *functionUnitEntry) retirable(clock ClockCycle) bool {
	return clock-e.enterCycle >= uint64(e.latency)
}

// resultBusSlot is a populated result (common data) bus: a producer's tag
// broadcast to every waiting consumer for one cycle, then carried one more
// cycle in the retirement buffer before its station is swept.
type resultBusSlot struct {
	reg     RegNo
	t       tag
	station *station
}

// retireCandidateHeap is a min-heap over function-unit entries ordered by
// (enterCycle, targetTag) ascending — the documented retire tie-break.
// Selecting the smallest element result_bus_count times reproduces the
// original implementation's std::priority_queue<FunctionUnit,
// greater<FunctionUnit>> pop loop.
type retireCandidateHeap []*functionUnitEntry

func (h retireCandidateHeap) Len() int { return len(h) }

func (h retireCandidateHeap) Less(i, j int) bool {
	if h[i].enterCycle != h[j].enterCycle {
		return h[i].enterCycle < h[j].enterCycle
	}
	return h[i].station.targetTag < h[j].station.targetTag
}

func (h retireCandidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *retireCandidateHeap) Push(x any) {
	*h = append(*h, x.(*functionUnitEntry))
}

func (h *retireCandidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*retireCandidateHeap)(nil)
