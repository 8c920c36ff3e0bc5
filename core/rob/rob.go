// Package rob implements the Reorder Buffer (C5): the program-order FIFO
// that retires instructions, releases overwritten physical registers,
// and writes back architectural state.
package rob

import (
	"github.com/apex/apexsim/core/prf"
	"github.com/apex/apexsim/isa"
)

// Kind classifies how a ROB entry completes and retires (spec.md §3).
type Kind uint8

// ROB entry kinds.
const (
	KindArith Kind = iota
	KindMem
	KindHalt
	KindBranch
)

// Writeback describes one architectural register write performed at
// commit: the new value comes from PR, and Overwritten (if HasOverwritten)
// must be freed back to the PRF free list.
type Writeback struct {
	AR             int
	PR             prf.ID
	Overwritten    prf.ID
	HasOverwritten bool
}

// Entry is one Reorder Buffer slot (spec.md §3, ROB Entry). An entry
// carries up to two Writebacks: Primary is the normal destination (for a
// load, the loaded register), Extra is the post-increment base-register
// write for LOADP/STOREP (§3, Post-increment). MEM entries also carry
// LSQIndex and retire only once that LSQ entry has finished its memory
// access, so a load's Primary PR is ready by then. Flag-setting
// ops (CMP/CML) carry no Writeback and complete via NeedsFlags/FlagsReady
// instead, since they have nothing to broadcast through the PRF.
type Entry struct {
	Valid bool
	Kind  Kind
	PC    int

	HasPrimary bool
	Primary    Writeback
	HasExtra   bool
	Extra      Writeback

	HasLSQ   bool
	LSQIndex int

	// NeedsFlags/FlagsReady/Zero/Positive/Negative carry CMP/CML results,
	// routed here directly by the INT FU (no PR to broadcast) — see
	// DESIGN.md for why this needs explicit routing.
	NeedsFlags               bool
	FlagsReady               bool
	Zero, Positive, Negative bool

	// ReadyAtDispatch covers HALT (and NOP), which complete immediately
	// per spec.md §4.8 ("halt: HALT dispatched") without waiting on any
	// functional unit.
	ReadyAtDispatch bool

	// Branch-only fields. Resolution happens entirely at commit — see
	// SPEC_FULL.md §10 and isa.Op.IsBranch.
	BranchOp  isa.Op
	BranchImm int32
	HasSrcPR  bool
	SrcPR     prf.ID // Rs1, renamed, for JUMP/JALR's target computation
}

// ROB is the fixed-capacity circular FIFO described in spec.md §4.6.
type ROB struct {
	entries []Entry
	head    int
	tail    int
	count   int
}

// New creates a ROB with the given number of slots.
func New(size int) *ROB {
	return &ROB{entries: make([]Entry, size)}
}

// Size returns the total number of ROB slots.
func (r *ROB) Size() int { return len(r.entries) }

// Full reports whether the ROB has no room for another dispatch.
func (r *ROB) Full() bool { return r.count == len(r.entries) }

// Empty reports whether the ROB holds no in-flight instructions.
func (r *ROB) Empty() bool { return r.count == 0 }

// Dispatch appends e at the tail and returns its index (used by the LSQ
// to cross-reference its matching memory ROB entry). Returns false
// (StructuralStall) if the ROB is full.
func (r *ROB) Dispatch(e Entry) (int, bool) {
	if r.Full() {
		return 0, false
	}
	idx := r.tail
	e.Valid = true
	r.entries[idx] = e
	r.tail = (r.tail + 1) % len(r.entries)
	r.count++
	return idx, true
}

// HeadIndex returns the index of the oldest in-flight entry.
func (r *ROB) HeadIndex() int { return r.head }

// Head returns a pointer to the oldest in-flight entry. Valid only when
// !Empty().
func (r *ROB) Head() *Entry { return &r.entries[r.head] }

// Entry returns a pointer to the entry at idx, for routing a functional
// unit's result (e.g. CMP/CML flags) back to its originating instruction.
func (r *ROB) Entry(idx int) *Entry { return &r.entries[idx] }

// Retire pops the head entry (spec.md §4.8, Retired).
func (r *ROB) Retire() {
	r.entries[r.head] = Entry{}
	r.head = (r.head + 1) % len(r.entries)
	r.count--
}

// Entries returns a snapshot of all in-flight entries in program order,
// for inspection and property tests (P1, P2).
func (r *ROB) Entries() []Entry {
	out := make([]Entry, 0, r.count)
	for i, n := r.head, 0; n < r.count; i, n = (i+1)%len(r.entries), n+1 {
		out = append(out, r.entries[i])
	}
	return out
}
