// Package cpu implements the Dispatch ("Godzilla") stage (C7) and the
// Fetch/Decode-Rename front-end (C8): the top-level CPU that ties the PRF,
// rename table, Issue Queue, Load/Store Queue, Reorder Buffer, and
// functional units together into a single-stepped, cycle-accurate
// out-of-order core.
package cpu

import (
	"github.com/apex/apexsim/core/fu"
	"github.com/apex/apexsim/core/iq"
	"github.com/apex/apexsim/core/lsq"
	"github.com/apex/apexsim/core/prf"
	"github.com/apex/apexsim/core/rename"
	"github.com/apex/apexsim/core/rob"
	"github.com/apex/apexsim/isa"
	"github.com/apex/apexsim/loader"
	"github.com/apex/apexsim/timing/latency"
)

// Default structural sizes (spec.md §3): A=16 architectural registers,
// P=40 physical registers, 12 IQ slots, 8 LSQ slots, 12 ROB slots.
const (
	PRFSize        = 40
	IQSize         = 12
	LSQSize        = 8
	ROBSize        = 12
	DataMemorySize = 4096
)

// Flags holds the architectural condition flags set by CMP/CML and
// consumed by the conditional branches (§10 supplement).
type Flags struct {
	Zero, Positive, Negative bool
}

// Stats mirrors timing/pipeline.Pipeline's Stats shape: counters an
// operator or test can read after driving the CPU for a number of cycles.
type Stats struct {
	Cycles           uint64
	Dispatched       uint64
	Retired          uint64
	StructuralStalls uint64
	FreeListStalls   uint64
}

// broadcast is one value going out on the PR tag bus this cycle, whether
// produced by a functional unit or by a completed LSQ memory access.
type broadcast struct {
	tag   prf.ID
	value int32
}

// fetchSlot is the single-entry latch between Fetch and Decode/Rename.
type fetchSlot struct {
	Valid bool
	PC    int
	Inst  isa.Instruction
}

func (f *fetchSlot) Clear() { *f = fetchSlot{} }

// decodeSlot is the single-entry latch between Decode/Rename and Allocate.
type decodeSlot struct {
	Valid   bool
	Pending pendingDispatch
}

func (d *decodeSlot) Clear() { *d = decodeSlot{} }

// pendingDispatch is a decoded-and-renamed instruction waiting for room in
// the IQ/ROB/LSQ. Source/destination fields already carry physical
// register tags; nothing here still needs the rename table.
type pendingDispatch struct {
	pc  int
	op  isa.Op
	imm int32

	isBranch     bool
	hasBranchSrc bool
	branchSrcTag prf.ID

	isMemOp bool
	isLoad  bool

	fuKind    iq.FUKind
	src1Tag   prf.ID
	src1Ready bool
	src2Tag   prf.ID
	src2Ready bool

	dataTag   prf.ID
	dataReady bool

	hasExtraDest bool
	extraDestPR  prf.ID

	needsFlags bool

	hasPrimary bool
	primary    rob.Writeback
	hasExtra   bool
	extra      rob.Writeback
}

// CPU is the out-of-order core: PRF, rename table, IQ, LSQ, ROB, the three
// functional units, and the two-latch Fetch/Decode-Rename front-end.
type CPU struct {
	prog *loader.Program
	pc   int

	halted         bool
	fetchStopped   bool
	branchInFlight bool

	prfSize, iqSize, lsqSize, robSize int
	latency                           *latency.Table

	prf    *prf.PRF
	rename *rename.Table
	iq     *iq.IQ
	lsq    *lsq.LSQ
	rob    *rob.ROB

	intUnit, mulUnit, agenUnit *fu.Unit

	dataMem []int32
	arf     [isa.ARCount]int32
	flags   Flags

	fetchLatch  fetchSlot
	decodeLatch decodeSlot

	stats Stats
}

// Option configures a CPU at construction time (functional options, per
// the teacher's PipelineOption pattern).
type Option func(*CPU)

// WithPRFSize overrides the physical register file size.
func WithPRFSize(n int) Option { return func(c *CPU) { c.prfSize = n } }

// WithIQSize overrides the Issue Queue capacity (e.g. IQ_SIZE=1 for
// boundary tests, spec.md §8).
func WithIQSize(n int) Option { return func(c *CPU) { c.iqSize = n } }

// WithLSQSize overrides the Load/Store Queue capacity.
func WithLSQSize(n int) Option { return func(c *CPU) { c.lsqSize = n } }

// WithROBSize overrides the Reorder Buffer capacity.
func WithROBSize(n int) Option { return func(c *CPU) { c.robSize = n } }

// WithLatencyTable overrides the default per-FU latency table (e.g. to
// test a 3-cycle MUL boundary against a custom depth).
func WithLatencyTable(t *latency.Table) Option { return func(c *CPU) { c.latency = t } }

// New creates a CPU ready to run prog, fetching from loader.CodeBase.
func New(prog *loader.Program, opts ...Option) *CPU {
	c := &CPU{
		prog:    prog,
		pc:      loader.CodeBase,
		prfSize: PRFSize,
		iqSize:  IQSize,
		lsqSize: LSQSize,
		robSize: ROBSize,
		latency: latency.NewTable(),
		dataMem: make([]int32, DataMemorySize),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.prf = prf.New(c.prfSize)
	c.rename = rename.New(c.prf, isa.ARCount)
	c.iq = iq.New(c.iqSize)
	c.lsq = lsq.New(c.lsqSize)
	c.rob = rob.New(c.robSize)
	c.intUnit = fu.NewIntUnit(c.latency.Latency(isa.OpADD))
	c.mulUnit = fu.NewMulUnit(c.latency.Latency(isa.OpMUL))
	c.agenUnit = fu.NewAgenUnit(c.latency.Latency(isa.OpLOAD))

	return c
}

// PC returns the current fetch program counter.
func (c *CPU) PC() int { return c.pc }

// Halted reports whether a HALT has retired.
func (c *CPU) Halted() bool { return c.halted }

// RegFile returns a snapshot of the 16 architectural registers.
func (c *CPU) RegFile() [isa.ARCount]int32 { return c.arf }

// ConditionFlags returns the architectural condition flags.
func (c *CPU) ConditionFlags() Flags { return c.flags }

// Stats returns the cycle/dispatch/retire/stall counters accumulated so far.
func (c *CPU) Stats() Stats { return c.stats }

// DataWord reads one word of data memory, for the shell's `m` command.
// An out-of-range addr reads as 0 rather than panicking.
func (c *CPU) DataWord(addr int32) int32 {
	if addr < 0 || int(addr) >= len(c.dataMem) {
		return 0
	}
	return c.dataMem[addr]
}

// SetDataWord writes one word of data memory, e.g. for seeding a test.
// An out-of-range addr is a no-op.
func (c *CPU) SetDataWord(addr int32, value int32) {
	if addr < 0 || int(addr) >= len(c.dataMem) {
		return
	}
	c.dataMem[addr] = value
}

// IQEntries returns a snapshot of the Issue Queue, for the shell's `d`
// command and inspection-based tests.
func (c *CPU) IQEntries() []iq.Entry { return c.iq.Entries() }

// LSQEntries returns a snapshot of the Load/Store Queue.
func (c *CPU) LSQEntries() []lsq.Entry { return c.lsq.Entries() }

// ROBEntries returns a snapshot of the Reorder Buffer, in program order.
func (c *CPU) ROBEntries() []rob.Entry { return c.rob.Entries() }

// FreeRegisters returns the number of physical registers not currently
// mapped to any architectural or in-flight value (P1, SPEC_FULL.md §9).
func (c *CPU) FreeRegisters() int { return c.prf.FreeCount() }

// Run ticks the CPU until a HALT retires.
func (c *CPU) Run() {
	for !c.halted {
		c.Tick()
	}
}

// RunCycles ticks the CPU up to n times, stopping early if it halts.
// Returns true if the CPU is still running (CycleLimitReached without a
// HALT), false if it halted.
func (c *CPU) RunCycles(n uint64) bool {
	for i := uint64(0); i < n && !c.halted; i++ {
		c.Tick()
	}
	return !c.halted
}

// Tick advances the CPU by exactly one cycle, running the seven steps of
// spec.md §5 in order: FU execute, Dispatch-stage commit (ROB drain + LSQ
// mem-stage advance, using ready bits from the previous cycle's wake-up),
// wake-up (this cycle's broadcasts), select, allocate, decode/rename, and
// fetch.
func (c *CPU) Tick() {
	if c.halted {
		return
	}
	c.stats.Cycles++

	results := c.fuExecute()
	memBroadcasts := c.commitStep()

	for _, r := range results {
		c.applyResult(r)
	}
	for _, b := range memBroadcasts {
		c.broadcast(b.tag, b.value)
	}

	c.selectStep()
	c.allocateStep()
	c.decodeRenameStep()
	c.fetchStep()
}

// fuExecute advances all three functional units by one cycle, returning
// whichever complete this cycle.
func (c *CPU) fuExecute() []fu.Result {
	var results []fu.Result
	if r, ok := c.intUnit.Tick(); ok {
		results = append(results, r)
	}
	if r, ok := c.mulUnit.Tick(); ok {
		results = append(results, r)
	}
	if r, ok := c.agenUnit.Tick(); ok {
		results = append(results, r)
	}
	return results
}

// commitStep retires the ROB head if it's ready (per last cycle's
// wake-up), then advances the LSQ memory stage for the (possibly new)
// head, returning any value a completed load must broadcast this cycle.
func (c *CPU) commitStep() []broadcast {
	if !c.rob.Empty() && c.retireReady(c.rob.Head()) {
		c.retireHead()
	}
	return c.advanceMemStage()
}

// retireReady reports whether e, the ROB head, can retire now using
// state already committed by a previous cycle's wake-up/mem-stage-advance.
func (c *CPU) retireReady(e *rob.Entry) bool {
	switch e.Kind {
	case rob.KindHalt:
		return true
	case rob.KindArith:
		if e.ReadyAtDispatch {
			return true
		}
		if e.NeedsFlags {
			return e.FlagsReady
		}
		if e.HasPrimary {
			return c.prf.Ready(e.Primary.PR)
		}
		return true
	case rob.KindMem:
		return e.HasLSQ && !c.lsq.Empty() &&
			c.lsq.HeadIndex() == e.LSQIndex && c.lsq.Head().Stage == lsq.StageMem2
	case rob.KindBranch:
		// Every older instruction has already retired in program order,
		// so any flags or SrcPR this branch needs are already correct.
		return true
	}
	return false
}

// retireHead commits the ROB head's architectural writes and pops it.
func (c *CPU) retireHead() {
	head := c.rob.Head()
	switch head.Kind {
	case rob.KindHalt:
		c.halted = true
	case rob.KindArith:
		if head.HasPrimary {
			c.commitWriteback(head.Primary)
		}
		if head.NeedsFlags {
			c.flags = Flags{Zero: head.Zero, Positive: head.Positive, Negative: head.Negative}
		}
	case rob.KindMem:
		if head.HasPrimary {
			c.commitWriteback(head.Primary)
		}
		if head.HasExtra {
			c.commitWriteback(head.Extra)
		}
		if head.HasLSQ {
			c.lsq.AdvanceHead()
		}
	case rob.KindBranch:
		c.resolveBranch(head)
		c.branchInFlight = false
	}
	c.rob.Retire()
	c.stats.Retired++
}

// commitWriteback applies one architectural register write and frees the
// physical register it superseded.
func (c *CPU) commitWriteback(wb rob.Writeback) {
	_, value := c.prf.Read(wb.PR)
	c.arf[wb.AR] = value
	if wb.HasOverwritten {
		c.prf.Free(wb.Overwritten)
	}
}

// resolveBranch computes the taken/not-taken outcome and target for a
// branch ROB entry and redirects fetch if taken. JUMP/JALR target off the
// renamed Rs1 value (guaranteed ready, per retireReady); the conditional
// branches target PC+imm and read the architectural flags committed by an
// earlier CMP/CML. JALR's link register is written directly here (never
// through a functional unit, since branches never enter the IQ).
func (c *CPU) resolveBranch(head *rob.Entry) {
	var taken bool
	var target int32

	switch head.BranchOp {
	case isa.OpJUMP, isa.OpJALR:
		_, base := c.prf.Read(head.SrcPR)
		target = base + head.BranchImm
		taken = true
		if head.BranchOp == isa.OpJALR && head.HasPrimary {
			c.prf.Write(head.Primary.PR, int32(head.PC+loader.InstructionSize))
			c.commitWriteback(head.Primary)
		}
	case isa.OpBZ:
		taken = c.flags.Zero
	case isa.OpBNZ:
		taken = !c.flags.Zero
	case isa.OpBP:
		taken = c.flags.Positive
	case isa.OpBNP:
		taken = !c.flags.Positive
	case isa.OpBN:
		taken = c.flags.Negative
	case isa.OpBNN:
		taken = !c.flags.Negative
	}
	if !taken {
		return
	}
	if head.BranchOp != isa.OpJUMP && head.BranchOp != isa.OpJALR {
		target = int32(head.PC) + head.BranchImm
	}
	c.pc = int(target)
}

// advanceMemStage drives the LSQ head's drain state machine one step,
// gated on it also being the ROB head (§4.5): address-ready entries enter
// the 2-cycle memory stage, and a completed load's value is returned as a
// broadcast for this cycle's wake-up.
func (c *CPU) advanceMemStage() []broadcast {
	if c.rob.Empty() {
		return nil
	}
	head := c.rob.Head()
	if head.Kind != rob.KindMem || !head.HasLSQ || c.lsq.Empty() || c.lsq.HeadIndex() != head.LSQIndex {
		return nil
	}

	entry := c.lsq.Head()
	switch entry.Stage {
	case lsq.StageAddrReady:
		if entry.IsLoad || entry.DataReady {
			entry.Stage = lsq.StageMem1
			entry.MemCyclesLeft = int(c.latency.MemStageLatency())
		}
	case lsq.StageMem1:
		entry.MemCyclesLeft--
		if entry.MemCyclesLeft <= 0 {
			if entry.IsLoad {
				value := c.dataMem[entry.Addr]
				entry.Stage = lsq.StageMem2
				return []broadcast{{tag: entry.DestPR, value: value}}
			}
			_, value := c.prf.Read(entry.DataTag)
			c.dataMem[entry.Addr] = value
			entry.Stage = lsq.StageMem2
		}
	}
	return nil
}

// broadcast writes value to pr and wakes every IQ/LSQ consumer waiting on
// it. A prf.None tag (a constant operand already marked ready) is a no-op.
func (c *CPU) broadcast(tag prf.ID, value int32) {
	if !tag.Valid() {
		return
	}
	c.prf.Write(tag, value)
	c.iq.WakeUp(tag)
	c.lsq.WakeData(tag)
}

// applyResult routes one functional unit's result: AGEN results set the
// LSQ address (and, for post-increment forms, broadcast the new base
// value); INT/MUL results broadcast their destination and, for CMP/CML,
// route flags directly to the waiting ROB entry.
func (c *CPU) applyResult(r fu.Result) {
	if r.Entry.FU == iq.FUAgen {
		c.lsq.SetAddr(r.Entry.Dest, r.Addr)
		if r.HasExtraValue {
			c.broadcast(r.Entry.ExtraDest, r.ExtraValue)
		}
		return
	}
	if r.Entry.DestKind == iq.DestPR {
		c.broadcast(prf.ID(r.Entry.Dest), r.Value)
	}
	if r.HasFlags {
		e := c.rob.Entry(r.Entry.ROBIndex)
		e.FlagsReady = true
		e.Zero, e.Positive, e.Negative = r.Zero, r.Positive, r.Negative
	}
}

// selectStep fills any free functional unit with the oldest ready IQ
// entry of its kind (at most one per unit per cycle, I5).
func (c *CPU) selectStep() {
	if !c.intUnit.Busy() {
		if e, ok := c.iq.Select(iq.FUInt); ok {
			c.intUnit.Issue(e, c.readSrc(e.Src1Tag), c.readSrc(e.Src2Tag))
		}
	}
	if !c.mulUnit.Busy() {
		if e, ok := c.iq.Select(iq.FUMul); ok {
			c.mulUnit.Issue(e, c.readSrc(e.Src1Tag), c.readSrc(e.Src2Tag))
		}
	}
	if !c.agenUnit.Busy() {
		if e, ok := c.iq.Select(iq.FUAgen); ok {
			c.agenUnit.Issue(e, c.readSrc(e.Src1Tag), c.readSrc(e.Src2Tag))
		}
	}
}

// readSrc resolves a source tag to its current value. Select only ever
// hands out entries whose source tags are already ready.
func (c *CPU) readSrc(tag prf.ID) int32 {
	if !tag.Valid() {
		return 0
	}
	_, v := c.prf.Read(tag)
	return v
}

// readyFor reports whether tag's value is already available; a prf.None
// tag (no producer, a constant operand) is trivially ready.
func (c *CPU) readyFor(tag prf.ID) bool {
	if !tag.Valid() {
		return true
	}
	return c.prf.Ready(tag)
}

// allocateStep inserts the decode latch's pending instruction into the
// ROB (and the IQ and/or LSQ, as its kind requires), refusing admission
// atomically if any needed structure is full (StructuralStall, §7).
func (c *CPU) allocateStep() {
	if !c.decodeLatch.Valid {
		return
	}
	d := c.decodeLatch.Pending

	// Readiness was sampled at decode; a producer may have broadcast while
	// d sat in the decode latch, and no later wake-up would reach it.
	d.src1Ready = d.src1Ready || c.readyFor(d.src1Tag)
	d.src2Ready = d.src2Ready || c.readyFor(d.src2Tag)
	d.dataReady = d.dataReady || c.readyFor(d.dataTag)

	switch {
	case d.op.IsHalt():
		if _, ok := c.rob.Dispatch(rob.Entry{Kind: rob.KindHalt, PC: d.pc, ReadyAtDispatch: true}); !ok {
			c.stats.StructuralStalls++
			return
		}

	case d.op.IsNop():
		if _, ok := c.rob.Dispatch(rob.Entry{Kind: rob.KindArith, PC: d.pc, ReadyAtDispatch: true}); !ok {
			c.stats.StructuralStalls++
			return
		}

	case d.isBranch:
		if _, ok := c.rob.Dispatch(rob.Entry{
			Kind: rob.KindBranch, PC: d.pc,
			HasPrimary: d.hasPrimary, Primary: d.primary,
			BranchOp: d.op, BranchImm: d.imm,
			HasSrcPR: d.hasBranchSrc, SrcPR: d.branchSrcTag,
		}); !ok {
			c.stats.StructuralStalls++
			return
		}

	case d.isMemOp:
		if c.rob.Full() || c.lsq.Full() || !c.iq.HasFreeSlot() {
			c.stats.StructuralStalls++
			return
		}
		robIdx, _ := c.rob.Dispatch(rob.Entry{
			Kind: rob.KindMem, PC: d.pc,
			HasPrimary: d.hasPrimary, Primary: d.primary,
			HasExtra: d.hasExtra, Extra: d.extra,
			HasLSQ: true,
		})
		lsqDest := prf.None
		if d.isLoad {
			lsqDest = d.primary.PR
		}
		lsqIdx, _ := c.lsq.Dispatch(lsq.Entry{
			IsLoad: d.isLoad, DataTag: d.dataTag, DataReady: d.dataReady,
			DestPR: lsqDest, ROBIndex: robIdx,
		})
		c.rob.Entry(robIdx).LSQIndex = lsqIdx
		c.iq.Dispatch(iq.Entry{
			FU: iq.FUAgen, Op: d.op, Imm: d.imm,
			Src1Tag: d.src1Tag, Src1Ready: d.src1Ready,
			Src2Tag: prf.None, Src2Ready: true,
			DestKind: iq.DestLSQ, Dest: lsqIdx,
			HasExtraDest: d.hasExtraDest, ExtraDest: d.extraDestPR,
			DispatchCycle: c.stats.Cycles,
		})

	default: // CMP/CML and ordinary arithmetic/MUL.
		if c.rob.Full() || !c.iq.HasFreeSlot() {
			c.stats.StructuralStalls++
			return
		}
		robIdx, _ := c.rob.Dispatch(rob.Entry{
			Kind: rob.KindArith, PC: d.pc,
			HasPrimary: d.hasPrimary, Primary: d.primary,
			NeedsFlags: d.needsFlags,
		})
		destKind, dest := iq.DestNone, 0
		if d.hasPrimary {
			destKind, dest = iq.DestPR, int(d.primary.PR)
		}
		c.iq.Dispatch(iq.Entry{
			FU: d.fuKind, Op: d.op, Imm: d.imm,
			Src1Tag: d.src1Tag, Src1Ready: d.src1Ready,
			Src2Tag: d.src2Tag, Src2Ready: d.src2Ready,
			DestKind: destKind, Dest: dest,
			ROBIndex:      robIdx,
			DispatchCycle: c.stats.Cycles,
		})
	}

	c.decodeLatch.Clear()
	c.stats.Dispatched++
}

// decodeRenameStep decodes the fetch latch's instruction and renames its
// operands, producing the next decode latch entry. It stalls (leaving
// both latches untouched) if the decode latch hasn't drained yet or if
// renaming would need more physical registers than are free
// (FreeListEmpty, §7) — checked before any allocation so a stall never
// leaves a partial rename behind.
func (c *CPU) decodeRenameStep() {
	if c.decodeLatch.Valid || !c.fetchLatch.Valid {
		return
	}
	inst := c.fetchLatch.Inst
	pc := c.fetchLatch.PC
	op := inst.Op

	var readsRs1, readsRs2, writesRd, hasPostInc bool
	switch op {
	case isa.OpADD, isa.OpSUB, isa.OpAND, isa.OpOR, isa.OpXOR, isa.OpMUL:
		readsRs1, readsRs2, writesRd = true, true, true
	case isa.OpADDL, isa.OpSUBL, isa.OpLOAD, isa.OpJALR:
		readsRs1, writesRd = true, true
	case isa.OpLOADP:
		readsRs1, writesRd, hasPostInc = true, true, true
	case isa.OpMOVC:
		writesRd = true
	case isa.OpCMP:
		readsRs1, readsRs2 = true, true
	case isa.OpCML, isa.OpJUMP:
		readsRs1 = true
	case isa.OpSTORE:
		readsRs1, readsRs2 = true, true // Rs1 = data, Rs2 = base (spec.md §6)
	case isa.OpSTOREP:
		readsRs1, readsRs2, hasPostInc = true, true, true
	}

	// Rs1 and Rs2 can name the same architectural register (e.g. CMP R1,R1);
	// LookupSrc only allocates once for it, so needed must not double-count.
	sameSrc := readsRs1 && readsRs2 && inst.Rs1 == inst.Rs2

	needed := 0
	if readsRs1 && !c.rename.Current(int(inst.Rs1)).Valid() {
		needed++
	}
	if readsRs2 && !sameSrc && !c.rename.Current(int(inst.Rs2)).Valid() {
		needed++
	}
	if writesRd {
		needed++
	}
	if hasPostInc {
		needed++
	}
	if needed > c.prf.FreeCount() {
		c.stats.FreeListStalls++
		return
	}

	rs1PR, rs2PR := prf.None, prf.None
	if readsRs1 {
		rs1PR, _ = c.rename.LookupSrc(int(inst.Rs1))
	}
	if readsRs2 {
		rs2PR, _ = c.rename.LookupSrc(int(inst.Rs2))
	}

	destPR, overwritten, hasOverwritten := prf.None, prf.None, false
	if writesRd {
		destPR, overwritten, _ = c.rename.RenameDst(int(inst.Rd))
		hasOverwritten = overwritten.Valid()
	}

	extraAR := -1
	extraDestPR, extraOverwritten, extraHasOverwritten := prf.None, prf.None, false
	if hasPostInc {
		extraAR = int(inst.Rs1)
		if op == isa.OpSTOREP {
			extraAR = int(inst.Rs2)
		}
		extraDestPR, extraOverwritten, _ = c.rename.RenameDst(extraAR)
		extraHasOverwritten = extraOverwritten.Valid()
	}

	d := pendingDispatch{pc: pc, op: op, imm: inst.Imm}

	switch {
	case op.IsBranch():
		d.isBranch = true
		if op == isa.OpJUMP || op == isa.OpJALR {
			d.hasBranchSrc = true
			d.branchSrcTag = rs1PR
		}
		if writesRd { // JALR's link register
			d.hasPrimary = true
			d.primary = rob.Writeback{AR: int(inst.Rd), PR: destPR, Overwritten: overwritten, HasOverwritten: hasOverwritten}
		}

	case op.IsMemory():
		d.isMemOp = true
		d.isLoad = op.IsLoad()
		d.fuKind = iq.FUAgen
		if d.isLoad {
			d.src1Tag, d.src1Ready = rs1PR, c.readyFor(rs1PR)
			d.hasPrimary = true
			d.primary = rob.Writeback{AR: int(inst.Rd), PR: destPR, Overwritten: overwritten, HasOverwritten: hasOverwritten}
		} else {
			d.src1Tag, d.src1Ready = rs2PR, c.readyFor(rs2PR) // base register
			d.dataTag, d.dataReady = rs1PR, c.readyFor(rs1PR) // value to store
		}
		if hasPostInc {
			d.hasExtraDest, d.extraDestPR = true, extraDestPR
			d.hasExtra = true
			d.extra = rob.Writeback{AR: extraAR, PR: extraDestPR, Overwritten: extraOverwritten, HasOverwritten: extraHasOverwritten}
		}

	case op.SetsFlags():
		d.fuKind = iq.FUInt
		d.needsFlags = true
		d.src1Tag, d.src1Ready = rs1PR, c.readyFor(rs1PR)
		if readsRs2 {
			d.src2Tag, d.src2Ready = rs2PR, c.readyFor(rs2PR)
		} else {
			d.src2Tag, d.src2Ready = prf.None, true
		}

	default: // ADD/SUB/AND/OR/XOR/ADDL/SUBL/MOVC/MUL, and HALT/NOP (ignored below).
		d.fuKind = iq.FUInt
		if op == isa.OpMUL {
			d.fuKind = iq.FUMul
		}
		d.src1Tag, d.src1Ready = prf.None, true
		if readsRs1 {
			d.src1Tag, d.src1Ready = rs1PR, c.readyFor(rs1PR)
		}
		d.src2Tag, d.src2Ready = prf.None, true
		if readsRs2 {
			d.src2Tag, d.src2Ready = rs2PR, c.readyFor(rs2PR)
		}
		if writesRd {
			d.hasPrimary = true
			d.primary = rob.Writeback{AR: int(inst.Rd), PR: destPR, Overwritten: overwritten, HasOverwritten: hasOverwritten}
		}
	}

	c.decodeLatch = decodeSlot{Valid: true, Pending: d}
	c.fetchLatch.Clear()
}

// fetchStep fetches the next instruction into the fetch latch, unless the
// latch is still occupied, HALT or end-of-program has already been seen,
// or a branch is outstanding anywhere in the pipeline (the non-speculative
// control-hazard stall of SPEC_FULL.md §10).
func (c *CPU) fetchStep() {
	if c.fetchLatch.Valid || c.fetchStopped || c.branchInFlight {
		return
	}
	inst, ok := c.prog.InstructionAt(c.pc)
	if !ok {
		c.fetchStopped = true
		return
	}

	c.fetchLatch = fetchSlot{Valid: true, PC: c.pc, Inst: inst}
	c.pc += loader.InstructionSize

	if inst.Op.IsBranch() {
		c.branchInFlight = true
	}
	if inst.Op.IsHalt() {
		c.fetchStopped = true
	}
}
