// Package iq implements the Issue Queue (C3): an unordered table of
// dispatched-but-not-yet-issued instructions awaiting operand readiness,
// and the wake-up/select logic that picks what executes each cycle.
package iq

import (
	"github.com/apex/apexsim/core/prf"
	"github.com/apex/apexsim/isa"
)

// FUKind identifies which functional unit an entry targets.
type FUKind uint8

// Functional unit kinds, per spec.md §2 (C6).
const (
	FUInt FUKind = iota
	FUMul
	FUAgen
)

// DestKind distinguishes a PR destination from an LSQ-index destination
// (AGEN writes an address into an LSQ entry, not a physical register).
type DestKind uint8

// Destination kinds for an IQ entry.
const (
	DestNone DestKind = iota
	DestPR
	DestLSQ
)

// Entry is one Issue Queue slot (spec.md §3, IQ Entry).
type Entry struct {
	Valid bool
	FU    FUKind
	Op    isa.Op

	Imm int32

	Src1Tag   prf.ID
	Src1Ready bool
	Src2Tag   prf.ID
	Src2Ready bool

	DestKind DestKind
	Dest     int // a prf.ID (DestKind==DestPR) or LSQ ring index (DestKind==DestLSQ)

	// ExtraDest is the post-increment base-register PR for LOADP/STOREP,
	// produced by the AGEN FU alongside the address (§4.2, §4.7).
	HasExtraDest bool
	ExtraDest    prf.ID

	// ROBIndex routes a functional unit's result back to the ROB entry
	// that needs it directly (flags for CMP/CML; nothing register-shaped
	// to broadcast). Most entries never need this — see DESIGN.md.
	ROBIndex int

	// DispatchCycle orders entries for oldest-first selection (§4.4).
	DispatchCycle uint64
}

// IQ is the fixed-capacity, unordered table of in-flight entries
// described in spec.md §4.4.
type IQ struct {
	entries []Entry
}

// New creates an IQ with the given number of slots.
func New(size int) *IQ {
	return &IQ{entries: make([]Entry, size)}
}

// Size returns the total number of IQ slots.
func (q *IQ) Size() int { return len(q.entries) }

// HasFreeSlot reports whether Dispatch would currently succeed.
func (q *IQ) HasFreeSlot() bool {
	for i := range q.entries {
		if !q.entries[i].Valid {
			return true
		}
	}
	return false
}

// Dispatch inserts e into the first free slot. It returns false
// (StructuralStall, spec.md §7) if the IQ is full; the caller must check
// HasFreeSlot as part of dispatch admission before attempting this.
func (q *IQ) Dispatch(e Entry) bool {
	for i := range q.entries {
		if !q.entries[i].Valid {
			e.Valid = true
			q.entries[i] = e
			return true
		}
	}
	return false
}

// WakeUp marks any source operand tagged with tag as ready. Called once
// per broadcast slot, each cycle (§4.4).
func (q *IQ) WakeUp(tag prf.ID) {
	if !tag.Valid() {
		return
	}
	for i := range q.entries {
		e := &q.entries[i]
		if !e.Valid {
			continue
		}
		if e.Src1Tag == tag {
			e.Src1Ready = true
		}
		if e.Src2Tag == tag {
			e.Src2Ready = true
		}
	}
}

// Select picks the oldest ready entry targeting fu (smallest
// DispatchCycle, ties broken by slot index) and invalidates its slot. At
// most one entry is selected per FU kind per cycle (§4.4, I5).
func (q *IQ) Select(fu FUKind) (Entry, bool) {
	best := -1
	for i := range q.entries {
		e := &q.entries[i]
		if !e.Valid || e.FU != fu {
			continue
		}
		if !e.Src1Ready || !e.Src2Ready {
			continue
		}
		if best == -1 || e.DispatchCycle < q.entries[best].DispatchCycle {
			best = i
		}
	}
	if best == -1 {
		return Entry{}, false
	}
	picked := q.entries[best]
	q.entries[best] = Entry{}
	return picked, true
}

// Entries returns a snapshot of all slots, valid or not, for inspection
// (the shell's display command, and property tests).
func (q *IQ) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}
