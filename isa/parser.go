package isa

import (
	"fmt"
	"strconv"
	"strings"
)

var mnemonics = map[string]Op{
	"ADD": OpADD, "SUB": OpSUB, "MUL": OpMUL,
	"AND": OpAND, "OR": OpOR, "XOR": OpXOR,
	"ADDL": OpADDL, "SUBL": OpSUBL,
	"LOAD": OpLOAD, "LOADP": OpLOADP,
	"STORE": OpSTORE, "STOREP": OpSTOREP,
	"MOVC": OpMOVC,
	"JUMP":  OpJUMP,
	"JALR":  OpJALR,
	"BZ":    OpBZ,
	"BNZ":   OpBNZ,
	"BP":    OpBP,
	"BNP":   OpBNP,
	"BN":    OpBN,
	"BNN":   OpBNN,
	"CMP":   OpCMP,
	"CML":   OpCML,
	"HALT":  OpHALT,
	"NOP":   OpNOP,
}

// Parse reads a full assembly listing (one instruction per line) and
// returns the decoded instructions in program order. Blank lines and
// lines starting with ';' are skipped. Fields may be separated by
// whitespace and/or commas; register operands are written "R<n>" and
// immediates as "#<signed integer>", tolerating surrounding spaces and a
// leading '#' the way original_source/main.c's get_num_from_string does.
func Parse(text string) ([]Instruction, error) {
	var out []Instruction

	for i, raw := range strings.Split(text, "\n") {
		line := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}

		inst, err := parseLine(trimmed, line)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}

	return out, nil
}

func parseLine(line string, lineNo int) (Instruction, error) {
	fields := splitFields(line)
	if len(fields) == 0 {
		return Instruction{}, fmt.Errorf("apex: empty instruction at line %d", lineNo)
	}

	mnemonic := strings.ToUpper(fields[0])
	op, ok := mnemonics[mnemonic]
	if !ok {
		return Instruction{}, fmt.Errorf("apex: unknown opcode %q at line %d", fields[0], lineNo)
	}

	operands := fields[1:]
	inst := Instruction{Op: op, Rd: RegNone, Rs1: RegNone, Rs2: RegNone, Line: lineNo, Text: line}

	var err error
	switch op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR:
		err = fillRegs(operands, lineNo, &inst.Rd, &inst.Rs1, &inst.Rs2)
	case OpADDL, OpSUBL, OpLOAD, OpLOADP, OpJALR:
		err = fillRegsImm(operands, lineNo, &inst.Rd, &inst.Rs1, &inst.Imm)
	case OpSTORE, OpSTOREP:
		err = fillRegsImm(operands, lineNo, &inst.Rs1, &inst.Rs2, &inst.Imm)
	case OpMOVC:
		err = fillRegImm(operands, lineNo, &inst.Rd, &inst.Imm)
	case OpJUMP:
		err = fillRegImm(operands, lineNo, &inst.Rs1, &inst.Imm)
	case OpBZ, OpBNZ, OpBP, OpBNP, OpBN, OpBNN:
		err = fillImmOnly(operands, lineNo, &inst.Imm)
	case OpCMP:
		err = fillRegs2(operands, lineNo, &inst.Rs1, &inst.Rs2)
	case OpCML:
		err = fillRegImm(operands, lineNo, &inst.Rs1, &inst.Imm)
	case OpHALT, OpNOP:
		// No operands.
	}
	if err != nil {
		return Instruction{}, err
	}

	return inst, nil
}

// splitFields breaks an instruction line into the mnemonic and its
// operands, accepting both "ADD R1,R2,R3" and "ADD,R1,R2,R3" styles.
func splitFields(line string) []string {
	replaced := strings.ReplaceAll(line, ",", " ")
	return strings.Fields(replaced)
}

func parseReg(tok string, lineNo int) (int8, error) {
	t := strings.TrimSpace(tok)
	t = strings.TrimPrefix(strings.ToUpper(t), "R")
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("apex: bad register operand %q at line %d", tok, lineNo)
	}
	if n < 0 || n >= ARCount {
		return 0, fmt.Errorf("apex: register R%d out of range at line %d", n, lineNo)
	}
	return int8(n), nil
}

func parseImm(tok string, lineNo int) (int32, error) {
	t := strings.TrimSpace(tok)
	t = strings.TrimPrefix(t, "#")
	n, err := strconv.ParseInt(t, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("apex: bad immediate operand %q at line %d", tok, lineNo)
	}
	return int32(n), nil
}

func fillRegs(operands []string, lineNo int, rd, rs1, rs2 *int8) error {
	if len(operands) != 3 {
		return fmt.Errorf("apex: expected 3 register operands at line %d, got %d", lineNo, len(operands))
	}
	var err error
	if *rd, err = parseReg(operands[0], lineNo); err != nil {
		return err
	}
	if *rs1, err = parseReg(operands[1], lineNo); err != nil {
		return err
	}
	if *rs2, err = parseReg(operands[2], lineNo); err != nil {
		return err
	}
	return nil
}

func fillRegs2(operands []string, lineNo int, rs1, rs2 *int8) error {
	if len(operands) != 2 {
		return fmt.Errorf("apex: expected 2 register operands at line %d, got %d", lineNo, len(operands))
	}
	var err error
	if *rs1, err = parseReg(operands[0], lineNo); err != nil {
		return err
	}
	if *rs2, err = parseReg(operands[1], lineNo); err != nil {
		return err
	}
	return nil
}

func fillRegsImm(operands []string, lineNo int, r1, r2 *int8, imm *int32) error {
	if len(operands) != 3 {
		return fmt.Errorf("apex: expected 2 registers and an immediate at line %d, got %d operands", lineNo, len(operands))
	}
	var err error
	if *r1, err = parseReg(operands[0], lineNo); err != nil {
		return err
	}
	if *r2, err = parseReg(operands[1], lineNo); err != nil {
		return err
	}
	if *imm, err = parseImm(operands[2], lineNo); err != nil {
		return err
	}
	return nil
}

func fillRegImm(operands []string, lineNo int, r *int8, imm *int32) error {
	if len(operands) != 2 {
		return fmt.Errorf("apex: expected a register and an immediate at line %d, got %d operands", lineNo, len(operands))
	}
	var err error
	if *r, err = parseReg(operands[0], lineNo); err != nil {
		return err
	}
	if *imm, err = parseImm(operands[1], lineNo); err != nil {
		return err
	}
	return nil
}

func fillImmOnly(operands []string, lineNo int, imm *int32) error {
	if len(operands) != 1 {
		return fmt.Errorf("apex: expected a single immediate at line %d, got %d operands", lineNo, len(operands))
	}
	var err error
	if *imm, err = parseImm(operands[0], lineNo); err != nil {
		return err
	}
	return nil
}
