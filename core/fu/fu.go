// Package fu implements the pipelined functional units that execute
// selected Issue Queue entries: INT (ALU/compare/move), MUL (integer
// multiply), and AGEN (load/store address generation). Each unit holds
// one operation at a time: a multi-cycle operation occupies its unit
// until it completes, and no new entry is issued to that unit meanwhile
// (spec.md §2, C6).
package fu

import (
	"github.com/apex/apexsim/core/iq"
	"github.com/apex/apexsim/isa"
)

// Result is what a functional unit produces once an entry's latency has
// elapsed: a value to broadcast on the PR tag bus, and/or flags and an
// LSQ address to route to the ROB and LSQ respectively.
type Result struct {
	Entry iq.Entry
	Value int32

	HasFlags                 bool
	Zero, Positive, Negative bool

	// ExtraValue is the post-increment base+4 result for LOADP/STOREP,
	// broadcast on Entry.ExtraDest alongside the Addr result.
	HasExtraValue bool
	ExtraValue    int32

	// Addr is the AGEN-resolved effective address; only meaningful for
	// the AGEN unit's results.
	Addr int32
}

// stage is one slot of a functional unit's latency shift register.
type stage struct {
	valid        bool
	entry        iq.Entry
	src1, src2   int32
	cyclesLeft   uint64
}

// Unit is a pipelined functional unit with a fixed execute latency. Slots
// advance one cycle at a time; Issue admits a new operation only when the
// unit isn't already occupied by one still in flight that would collide
// with it (a single unit here executes at most one operation at a time,
// matching IQ.Select's one-pick-per-kind-per-cycle rule), so capacity is
// just whatever the latency requires for one in-flight operation.
type Unit struct {
	latency uint64
	slot    stage
	compute func(entry iq.Entry, src1, src2 int32) Result
}

// NewUnit creates a functional unit with the given execute latency and
// compute function.
func NewUnit(latency uint64, compute func(entry iq.Entry, src1, src2 int32) Result) *Unit {
	if latency == 0 {
		latency = 1
	}
	return &Unit{latency: latency, compute: compute}
}

// Busy reports whether the unit is currently occupied.
func (u *Unit) Busy() bool { return u.slot.valid }

// Issue admits e with its resolved source operand values. Returns false
// if the unit is already occupied (the caller must not Select from the
// IQ for this FU kind while Busy).
func (u *Unit) Issue(e iq.Entry, src1, src2 int32) bool {
	if u.slot.valid {
		return false
	}
	u.slot = stage{valid: true, entry: e, src1: src1, src2: src2, cyclesLeft: u.latency}
	return true
}

// Tick advances the in-flight operation by one cycle. It returns a
// Result, true once the operation's latency has fully elapsed, freeing
// the unit for the next Issue.
func (u *Unit) Tick() (Result, bool) {
	if !u.slot.valid {
		return Result{}, false
	}
	u.slot.cyclesLeft--
	if u.slot.cyclesLeft > 0 {
		return Result{}, false
	}
	result := u.compute(u.slot.entry, u.slot.src1, u.slot.src2)
	u.slot = stage{}
	return result, true
}

// ComputeInt evaluates an INT-unit opcode against resolved operands and
// the immediate carried on the entry. It never sets Addr; AGEN handles
// address arithmetic separately.
func ComputeInt(op isa.Op, src1, src2, imm int32) (value int32, zero, positive, negative bool) {
	switch op {
	case isa.OpADD:
		value = src1 + src2
	case isa.OpSUB:
		value = src1 - src2
	case isa.OpAND:
		value = src1 & src2
	case isa.OpOR:
		value = src1 | src2
	case isa.OpXOR:
		value = src1 ^ src2
	case isa.OpADDL:
		value = src1 + imm
	case isa.OpSUBL:
		value = src1 - imm
	case isa.OpMOVC:
		value = imm
	case isa.OpCMP:
		value = src1 - src2
	case isa.OpCML:
		value = src1 - imm
	case isa.OpJALR:
		value = src1 + imm
	default:
		value = src1 + src2
	}
	zero = value == 0
	positive = value > 0
	negative = value < 0
	return value, zero, positive, negative
}

// ComputeAddr evaluates the effective address for a load or store: base
// register value plus the immediate displacement (spec.md §6).
func ComputeAddr(base, imm int32) int32 {
	return base + imm
}

// NewIntUnit builds the INT functional unit (spec.md §4.7): ALU, compare,
// and move ops.
func NewIntUnit(latency uint64) *Unit {
	return NewUnit(latency, func(e iq.Entry, src1, src2 int32) Result {
		value, zero, positive, negative := ComputeInt(e.Op, src1, src2, e.Imm)
		r := Result{Entry: e, Value: value}
		if e.Op.SetsFlags() {
			r.HasFlags = true
			r.Zero, r.Positive, r.Negative = zero, positive, negative
		}
		return r
	})
}

// NewMulUnit builds the MUL functional unit.
func NewMulUnit(latency uint64) *Unit {
	return NewUnit(latency, func(e iq.Entry, src1, src2 int32) Result {
		return Result{Entry: e, Value: src1 * src2}
	})
}

// NewAgenUnit builds the AGEN functional unit, which resolves load/store
// addresses and, for post-increment forms, the base+4 writeback.
func NewAgenUnit(latency uint64) *Unit {
	return NewUnit(latency, func(e iq.Entry, src1, src2 int32) Result {
		addr := ComputeAddr(src1, e.Imm)
		r := Result{Entry: e, Addr: addr}
		if e.HasExtraDest {
			r.HasExtraValue = true
			r.ExtraValue = src1 + 4
		}
		return r
	})
}
