// Package rename implements the rename table (C2): the current mapping
// from each architectural register to the physical register that will
// produce its value.
package rename

import "github.com/apex/apexsim/core/prf"

// Table maps each architectural register to its current producing
// physical register (spec.md §4.2).
type Table struct {
	current []prf.ID
	regs    *prf.PRF
}

// New creates a rename table over regs with every architectural register
// initially unmapped.
func New(regs *prf.PRF, arCount int) *Table {
	t := &Table{
		current: make([]prf.ID, arCount),
		regs:    regs,
	}
	for i := range t.current {
		t.current[i] = prf.None
	}
	return t
}

// LookupSrc returns the physical register currently producing ar. If ar
// has never been written, a physical register is allocated and bound to
// seed it, and that PR is marked ready with the sentinel value -1, so
// reading it yields -1 (UndefinedRead, preserved per §9 Open Question
// 1). The second return value is false on FreeListEmpty.
func (t *Table) LookupSrc(ar int) (prf.ID, bool) {
	if t.current[ar].Valid() {
		return t.current[ar], true
	}
	pr, ok := t.regs.Allocate()
	if !ok {
		return prf.None, false
	}
	// No instruction will ever produce this register, so seed it directly
	// with the UndefinedRead sentinel rather than leaving it not-ready.
	t.regs.Write(pr, -1)
	t.current[ar] = pr
	return pr, true
}

// RenameDst allocates a fresh physical register for a write to ar. It
// returns the new register and the architectural register's previous
// producer (prf.None if ar has no prior producer), which the caller must
// free exactly once, at the commit point of this instruction (§4.2). The
// new register is not-ready until its producing functional unit
// broadcasts. ok is false on FreeListEmpty, in which case no renaming
// took place.
func (t *Table) RenameDst(ar int) (newPR prf.ID, overwritten prf.ID, ok bool) {
	pr, allocated := t.regs.Allocate()
	if !allocated {
		return prf.None, prf.None, false
	}
	overwritten = t.current[ar]
	t.current[ar] = pr
	return pr, overwritten, true
}

// Current returns the physical register presently mapped to ar, or
// prf.None if ar has never been renamed.
func (t *Table) Current(ar int) prf.ID {
	return t.current[ar]
}
