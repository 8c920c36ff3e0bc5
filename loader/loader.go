// Package loader reads an APEX assembly listing into code memory.
package loader

import (
	"fmt"
	"os"

	"github.com/apex/apexsim/isa"
)

// CodeBase is the base address of code memory; instructions are packed
// four bytes apart starting here (spec.md §6).
const CodeBase = 4000

// InstructionSize is the fixed size, in bytes, of one code-memory slot.
const InstructionSize = 4

// Program is a loaded APEX assembly listing, ready to drive a CPU.
type Program struct {
	// Instructions holds the decoded program in order; Instructions[i]
	// lives at PC = CodeBase + i*InstructionSize.
	Instructions []isa.Instruction
}

// PCToIndex converts a program counter to a code-memory index. The
// second return value is false when pc falls outside the loaded program.
func (p *Program) PCToIndex(pc int) (int, bool) {
	if pc < CodeBase || (pc-CodeBase)%InstructionSize != 0 {
		return 0, false
	}
	idx := (pc - CodeBase) / InstructionSize
	if idx < 0 || idx >= len(p.Instructions) {
		return 0, false
	}
	return idx, true
}

// InstructionAt returns the instruction at pc, or false if pc is out of
// range (fetch must stop once HALT has been fetched, so this should only
// ever be probed within the loaded program).
func (p *Program) InstructionAt(pc int) (isa.Instruction, bool) {
	idx, ok := p.PCToIndex(pc)
	if !ok {
		return isa.Instruction{}, false
	}
	return p.Instructions[idx], true
}

// Load reads path as an APEX assembly listing and decodes it into a
// Program. A missing or unreadable file is a BadFile error; an
// unparseable line is a BadInstruction error (spec.md §7), both reported
// as wrapped errors rather than raw panics.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("apex: cannot open program %q: %w", path, err)
	}

	insts, err := isa.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("apex: cannot load program %q: %w", path, err)
	}

	return &Program{Instructions: insts}, nil
}
