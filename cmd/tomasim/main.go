// Command tomasim runs a Tomasulo out-of-order pipeline simulation over an
// instruction trace and prints the per-instruction life-cycle table and
// aggregate statistics.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/tomasim/engine"
	"github.com/sarchlab/tomasim/report"
	"github.com/sarchlab/tomasim/trace"
)

var (
	configPath = flag.String("config", "", "Path to a JSON settings file (overrides DefaultSettings before the flags below are applied)")
	verbose    = flag.Bool("v", false, "Print the resolved settings before running")

	resultBusCount     = flag.Uint64("result-bus-count", 0, "Max retires per cycle (0 = use config/default)")
	fetchRate          = flag.Uint64("fetch-rate", 0, "Max fetches and dispatches per cycle (0 = use config/default)")
	registerCount      = flag.Uint64("register-count", 0, "Number of architectural registers (0 = use config/default)")
	ghrBits            = flag.Uint("ghr-bits", 0, "Global history register width in bits (0 = use config/default)")
	ghrInitVal         = flag.Uint64("ghr-init", 0, "Initial GHR value")
	predictorBits      = flag.Uint("predictor-bits", 0, "Saturating counter width in bits (0 = use config/default)")
	predictorInitVal   = flag.Uint64("predictor-init", 0, "Initial saturating counter value")
	predictorTableSize = flag.Uint64("predictor-table-size", 0, "Rows in the predictor table (0 = use config/default)")
	funcUnitsCounts    = flag.String("fu-counts", "", "Comma-separated per-bank function-unit capacity, e.g. 2,1,1")
	funcUnitsLatencies = flag.String("fu-latencies", "", "Comma-separated per-bank function-unit latency, e.g. 3,1,1")
)

func main() {
	flag.Parse()

	settings, err := resolveSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tomasim: %v\n", err)
		os.Exit(1)
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "tomasim: invalid settings: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "tomasim: settings: %+v\n", settings)
	}

	in := os.Stdin
	if flag.NArg() >= 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "tomasim: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	program, err := trace.Load(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tomasim: %v\n", err)
		os.Exit(1)
	}

	e := engine.New(settings)
	result := e.Run(program)

	if err := report.WriteInstructionLives(os.Stdout, result); err != nil {
		fmt.Fprintf(os.Stderr, "tomasim: %v\n", err)
		os.Exit(1)
	}
	if err := report.WriteStatistics(os.Stdout, e.Statistics()); err != nil {
		fmt.Fprintf(os.Stderr, "tomasim: %v\n", err)
		os.Exit(1)
	}
}

func resolveSettings() (engine.Settings, error) {
	settings := engine.DefaultSettings()
	if *configPath != "" {
		var err error
		settings, err = engine.LoadSettings(*configPath)
		if err != nil {
			return engine.Settings{}, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if *resultBusCount != 0 {
		settings.ResultBusCount = *resultBusCount
	}
	if *fetchRate != 0 {
		settings.FetchRate = *fetchRate
	}
	if *registerCount != 0 {
		settings.RegisterCount = *registerCount
	}
	if *ghrBits != 0 {
		settings.GHRBits = *ghrBits
	}
	if *ghrInitVal != 0 {
		settings.GHRInitVal = *ghrInitVal
	}
	if *predictorBits != 0 {
		settings.PredictorBits = *predictorBits
	}
	if *predictorInitVal != 0 {
		settings.PredictorInitVal = *predictorInitVal
	}
	if *predictorTableSize != 0 {
		settings.PredictorTableSize = *predictorTableSize
	}
	if *funcUnitsCounts != "" {
		counts, err := parseUint16List(*funcUnitsCounts)
		if err != nil {
			return engine.Settings{}, fmt.Errorf("fu-counts: %w", err)
		}
		settings.FunctionUnitsCount = counts
	}
	if *funcUnitsLatencies != "" {
		latencies, err := parseUint16List(*funcUnitsLatencies)
		if err != nil {
			return engine.Settings{}, fmt.Errorf("fu-latencies: %w", err)
		}
		settings.FunctionUnitsLatency = latencies
	}

	return settings, nil
}

func parseUint16List(s string) ([]uint16, error) {
	fields := strings.Split(s, ",")
	values := make([]uint16, len(fields))
	for i, field := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, field, err)
		}
		values[i] = uint16(n)
	}
	return values, nil
}
