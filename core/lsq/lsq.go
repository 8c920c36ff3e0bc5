// Package lsq implements the Load/Store Queue (C4): a program-order FIFO
// of in-flight memory operations, their resolved addresses, and their
// source data.
package lsq

import "github.com/apex/apexsim/core/prf"

// Stage is where an LSQ entry sits in its drain state machine (spec.md
// §4.8).
type Stage uint8

// LSQ entry stages.
const (
	StageAddrPending Stage = iota
	StageAddrReady
	StageMem1
	StageMem2
)

// Entry is one Load/Store Queue slot (spec.md §3, LSQ Entry).
type Entry struct {
	Valid  bool
	IsLoad bool

	AddrReady bool
	Addr      int32

	// DataTag/DataReady track readiness of the value to store (STORE,
	// STOREP); unused for loads. prf.None means the value was a constant
	// available at dispatch (never happens for stores in this ISA, but
	// kept symmetric with IQ's source tracking).
	DataTag   prf.ID
	DataReady bool

	// DestPR is the physical register a load writes.
	DestPR prf.ID

	ROBIndex int
	Stage    Stage

	// MemCyclesLeft counts down the 2-cycle memory stage once this entry
	// reaches the LSQ head and its ROB entry is also the ROB head
	// (spec.md §4.5).
	MemCyclesLeft int
}

// LSQ is the fixed-capacity ring buffer described in spec.md §4.5.
type LSQ struct {
	entries []Entry
	head    int
	tail    int
	count   int
}

// New creates an LSQ with the given number of slots.
func New(size int) *LSQ {
	return &LSQ{entries: make([]Entry, size)}
}

// Size returns the total number of LSQ slots.
func (l *LSQ) Size() int { return len(l.entries) }

// Full reports whether the LSQ has no room for another dispatch.
func (l *LSQ) Full() bool { return l.count == len(l.entries) }

// Empty reports whether the LSQ holds no in-flight memory operations.
func (l *LSQ) Empty() bool { return l.count == 0 }

// Dispatch appends e at the tail and returns its ring index, which
// doubles as the AGEN broadcast tag for this entry (§4.5). Returns false
// (StructuralStall) if the LSQ is full.
func (l *LSQ) Dispatch(e Entry) (int, bool) {
	if l.Full() {
		return 0, false
	}
	idx := l.tail
	e.Valid = true
	e.Stage = StageAddrPending
	l.entries[idx] = e
	l.tail = (l.tail + 1) % len(l.entries)
	l.count++
	return idx, true
}

// SetAddr records the AGEN-resolved address for the entry at idx and
// advances its stage (§4.4, AGEN broadcast).
func (l *LSQ) SetAddr(idx int, addr int32) {
	e := &l.entries[idx]
	e.Addr = addr
	e.AddrReady = true
	if e.Stage == StageAddrPending {
		e.Stage = StageAddrReady
	}
}

// WakeData marks the store-data source ready if it matches tag (§4.5).
func (l *LSQ) WakeData(tag prf.ID) {
	if !tag.Valid() {
		return
	}
	for i := range l.entries {
		e := &l.entries[i]
		if e.Valid && !e.IsLoad && e.DataTag == tag {
			e.DataReady = true
		}
	}
}

// HeadIndex returns the ring index of the oldest in-flight entry.
func (l *LSQ) HeadIndex() int { return l.head }

// Head returns a pointer to the oldest in-flight entry so the caller can
// advance its drain state machine in place. Valid only when !Empty().
func (l *LSQ) Head() *Entry { return &l.entries[l.head] }

// AdvanceHead pops the head entry once its memory stage has completed
// and the matching ROB entry has also reached the ROB head (§4.5 drain).
func (l *LSQ) AdvanceHead() {
	l.entries[l.head] = Entry{}
	l.head = (l.head + 1) % len(l.entries)
	l.count--
}

// Entries returns a snapshot of the in-flight entries in ring order
// starting at head, for inspection.
func (l *LSQ) Entries() []Entry {
	out := make([]Entry, 0, l.count)
	for i, n := l.head, 0; n < l.count; i, n = (i+1)%len(l.entries), n+1 {
		out = append(out, l.entries[i])
	}
	return out
}
