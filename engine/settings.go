// Package engine implements the core of a cycle-accurate out-of-order
// pipeline simulator based on Tomasulo's algorithm: register renaming over
// a shared tag space, a unified reservation-station scheduling queue,
// heterogeneous function-unit banks, a fixed number of result (common data)
// buses, and a gselect dynamic branch predictor.
package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings configures an Engine. Field names mirror the ProcessorSettings
// schema from the original simulator, translated to Go naming.
type Settings struct {
	// ResultBusCount is the maximum number of instructions that can
	// retire (broadcast a result) per cycle.
	ResultBusCount uint64 `json:"result_bus_count"`

	// FetchRate is the maximum number of instructions fetched, and
	// separately the maximum dispatched, per cycle.
	FetchRate uint64 `json:"fetch_rate"`

	// FunctionUnitsCount is the capacity of each function-unit bank,
	// indexed by func_type.
	FunctionUnitsCount []uint16 `json:"function_units_count"`

	// FunctionUnitsLatency is the fire-to-retirable latency of each
	// function-unit bank, indexed by func_type.
	FunctionUnitsLatency []uint16 `json:"function_units_latency"`

	// RegisterCount is the number of architectural registers (RAT length).
	RegisterCount uint64 `json:"register_count"`

	// GHRBits is the width, in bits, of the predictor's global history
	// register.
	GHRBits uint `json:"ghr_bits"`

	// GHRInitVal is the initial GHR value, masked to GHRBits.
	GHRInitVal uint64 `json:"ghr_init_val"`

	// PredictorBits is the width, in bits, of each saturating counter.
	PredictorBits uint `json:"predictor_bits"`

	// PredictorInitVal is the initial counter value, masked to PredictorBits.
	PredictorInitVal uint64 `json:"predictor_init_val"`

	// PredictorTableSize is the number of rows in the predictor table.
	PredictorTableSize uint64 `json:"predictor_table_size"`
}

// DefaultSettings returns reasonable defaults: a 3-bank processor with one
// unit of latency 1 per bank, single-wide fetch/dispatch/retire, 128
// registers, and a 3-bit-history 128-row gselect predictor whose 2-bit
// counters start at 1 (weakly not-taken).
func DefaultSettings() Settings {
	return Settings{
		ResultBusCount:       1,
		FetchRate:            1,
		FunctionUnitsCount:   []uint16{1, 1, 1},
		FunctionUnitsLatency: []uint16{1, 1, 1},
		RegisterCount:        128,
		GHRBits:              3,
		GHRInitVal:           0,
		PredictorBits:        2,
		PredictorInitVal:     1,
		PredictorTableSize:   128,
	}
}

// Validate checks that Settings describes a simulatable processor. It
// rejects the configurations the original implementation would otherwise
// mishandle silently (zero-width predictor fields, mismatched bank slices).
func (s Settings) Validate() error {
	if s.ResultBusCount == 0 {
		return fmt.Errorf("engine: result_bus_count must be > 0")
	}
	if s.FetchRate == 0 {
		return fmt.Errorf("engine: fetch_rate must be > 0")
	}
	if len(s.FunctionUnitsCount) == 0 {
		return fmt.Errorf("engine: function_units_count must have at least one bank")
	}
	if len(s.FunctionUnitsCount) != len(s.FunctionUnitsLatency) {
		return fmt.Errorf("engine: function_units_count and function_units_latency must have the same length, got %d and %d",
			len(s.FunctionUnitsCount), len(s.FunctionUnitsLatency))
	}
	for i, count := range s.FunctionUnitsCount {
		if count == 0 {
			return fmt.Errorf("engine: function_units_count[%d] must be > 0", i)
		}
	}
	if s.RegisterCount == 0 {
		return fmt.Errorf("engine: register_count must be > 0")
	}
	if s.GHRBits == 0 || s.GHRBits > 31 {
		return fmt.Errorf("engine: ghr_bits must be in [1, 31], got %d", s.GHRBits)
	}
	if s.PredictorBits == 0 || s.PredictorBits > 31 {
		return fmt.Errorf("engine: predictor_bits must be in [1, 31], got %d", s.PredictorBits)
	}
	if s.PredictorTableSize == 0 {
		return fmt.Errorf("engine: predictor_table_size must be > 0")
	}
	return nil
}

// Clone returns a deep copy of Settings.
func (s Settings) Clone() Settings {
	clone := s
	clone.FunctionUnitsCount = append([]uint16(nil), s.FunctionUnitsCount...)
	clone.FunctionUnitsLatency = append([]uint16(nil), s.FunctionUnitsLatency...)
	return clone
}

// ScheduleQueueLimit returns 2 * sum(FunctionUnitsCount), the reservation
// station pool's capacity (spec invariant: schedule_q_limit_).
func (s Settings) ScheduleQueueLimit() int {
	limit := 0
	for _, count := range s.FunctionUnitsCount {
		limit += int(count)
	}
	return limit * 2
}

// LoadSettings reads Settings from a JSON file, starting from
// DefaultSettings so unspecified fields keep their defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("engine: failed to read settings file: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("engine: failed to parse settings: %w", err)
	}

	return settings, nil
}

// SaveSettings writes Settings to path as indented JSON.
func (s Settings) SaveSettings(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: failed to serialize settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("engine: failed to write settings file: %w", err)
	}
	return nil
}
