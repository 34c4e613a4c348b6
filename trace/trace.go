// Package trace parses the external instruction-trace text format consumed
// by the simulator: one instruction per line, whitespace-separated, a
// 5-field line for a non-branch and a 7-field line for a branch. This is
// ingestion, not part of the simulator core: it assigns each instruction its
// 1-based number in file order and normalizes func_type == -1 to 1, so the
// engine itself never special-cases the trace's on-disk encoding.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/tomasim/engine"
)

// Load reads a trace from r, one instruction per non-blank line in the
// format `addr_hex func_type_dec dst_dec src1_dec src2_dec [branch_target_hex
// branch_taken_01]`. Instructions are returned in file order with Number
// assigned 1, 2, 3, ....
func Load(r io.Reader) ([]*engine.Instruction, error) {
	scanner := bufio.NewScanner(r)
	var trace []*engine.Instruction
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		instr, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("trace: line %d: %w", lineNo, err)
		}
		instr.Number = uint64(len(trace) + 1)
		trace = append(trace, instr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: failed to read: %w", err)
	}

	return trace, nil
}

func parseLine(line string) (*engine.Instruction, error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 5:
		return parseNonBranch(fields)
	case 7:
		return parseBranch(fields)
	default:
		return nil, fmt.Errorf("expected 5 fields (non-branch) or 7 fields (branch), got %d", len(fields))
	}
}

func parseNonBranch(fields []string) (*engine.Instruction, error) {
	addr, err := parseHex(fields[0])
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	funcType, dst, src1, src2, err := parseCommon(fields[1:5])
	if err != nil {
		return nil, err
	}

	return &engine.Instruction{
		Address:  addr,
		FuncType: funcType,
		DstReg:   dst,
		SrcRegs:  []int32{src1, src2},
	}, nil
}

func parseBranch(fields []string) (*engine.Instruction, error) {
	instr, err := parseNonBranch(fields[:5])
	if err != nil {
		return nil, err
	}

	target, err := parseHex(fields[5])
	if err != nil {
		return nil, fmt.Errorf("branch target: %w", err)
	}
	taken, err := strconv.ParseUint(fields[6], 10, 8)
	if err != nil || taken > 1 {
		return nil, fmt.Errorf("branch_taken must be 0 or 1, got %q", fields[6])
	}

	instr.IsBranch = true
	instr.BranchAddress = target
	instr.BranchTaken = taken == 1

	return instr, nil
}

func parseCommon(fields []string) (funcType int16, dst, src1, src2 int32, err error) {
	ft, err := strconv.ParseInt(fields[0], 10, 16)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("func_type: %w", err)
	}
	funcType = int16(ft)
	if funcType == -1 {
		funcType = 1
	}

	d, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("dst_reg: %w", err)
	}
	s1, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("src_reg[0]: %w", err)
	}
	s2, err := strconv.ParseInt(fields[3], 10, 32)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("src_reg[1]: %w", err)
	}

	return funcType, int32(d), int32(s1), int32(s2), nil
}

func parseHex(field string) (uint64, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
	return strconv.ParseUint(trimmed, 16, 64)
}
