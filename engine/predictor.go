package engine

// gselectPredictor is a two-level dynamic branch predictor: a global
// history register (GHR) selects a column within a per-address row of
// saturating counters. Predict is pure; Update is the only mutator.
//
// The engine calls Predict at dispatch and Update at retire (state-update
// timing), so a later dispatch of the same branch within the mispredict
// stall window still observes pre-resolution predictor state.
type gselectPredictor struct {
	ghrBits   uint
	ghrMask   uint64
	ghr       uint64
	predBits  uint
	predMax   uint64
	predMSB   uint64
	tableSize uint64

	// rows holds, for each address-hashed row, one saturating counter
	// per GHR value.
	rows [][]uint64
}

// newGselectPredictor builds a predictor table of tableSize rows, each with
// 2^ghrBits saturating counters of predBits width, all initialized to
// predInitVal (masked to predBits). The GHR starts at ghrInitVal (masked
// to ghrBits).
func newGselectPredictor(ghrBits uint, ghrInitVal uint64, predBits uint, predInitVal uint64, tableSize uint64) *gselectPredictor {
	ghrMask := (uint64(1) << ghrBits) - 1
	predMax := (uint64(1) << predBits) - 1
	predMSB := uint64(1) << (predBits - 1)

	columns := uint64(1) << ghrBits
	rows := make([][]uint64, tableSize)
	initVal := predInitVal & predMax
	for i := range rows {
		row := make([]uint64, columns)
		for j := range row {
			row[j] = initVal
		}
		rows[i] = row
	}

	return &gselectPredictor{
		ghrBits:   ghrBits,
		ghrMask:   ghrMask,
		ghr:       ghrInitVal & ghrMask,
		predBits:  predBits,
		predMax:   predMax,
		predMSB:   predMSB,
		tableSize: tableSize,
		rows:      rows,
	}
}

// predict returns the taken/not-taken prediction for hash, reading the
// counter at (hash mod tableSize, current GHR). It does not mutate state.
func (p *gselectPredictor) predict(hash uint64) bool {
	row := hash % p.tableSize
	counter := p.rows[row][p.ghr]
	return counter >= p.predMSB
}

// update records the actual outcome for hash at the same cell predict used,
// saturating the counter toward taken or not-taken, then shifts taken into
// the GHR.
func (p *gselectPredictor) update(hash uint64, taken bool) {
	row := hash % p.tableSize
	counter := p.rows[row][p.ghr]

	if taken {
		if counter < p.predMax {
			p.rows[row][p.ghr] = counter + 1
		}
	} else {
		if counter > 0 {
			p.rows[row][p.ghr] = counter - 1
		}
	}

	next := p.ghr << 1
	if taken {
		next |= 1
	}
	p.ghr = next & p.ghrMask
}

// hashAddress fingerprints a program counter for predictor indexing. The
// same hash must be used for both predict and the matching update.
func hashAddress(addr uint64) uint64 {
	return addr >> 2
}
