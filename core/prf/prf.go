// Package prf implements the physical register file and free list (C1):
// the pool of physical registers that back every architectural register
// rename, plus the circular free list that tracks which ids are
// available to allocate.
package prf

// ID identifies a physical register in [0, Size). Call Valid before
// treating it as a real index — the zero value of ID is a real register
// (0), so the sentinel is a dedicated negative constant rather than the
// zero value, matching the source CPU's -1-means-none convention but
// typed so a sentinel can never be mistaken for a valid id (§9,
// "Re-architecting C patterns").
type ID int32

// None represents the absence of a physical register: no producer for an
// architectural register, or no overwritten register to free.
const None ID = -1

// Valid reports whether id identifies a real physical register.
func (id ID) Valid() bool { return id >= 0 }

type entry struct {
	ready bool
	value int32
}

// PRF is the physical register file described in spec.md §4.1: P
// registers, each with a ready bit and a value, plus the free list that
// hands out ids at rename time and reclaims them at commit time.
type PRF struct {
	entries []entry
	free    []ID
	head    int // next id to allocate
	tail    int // next slot to receive a freed id
	count   int // number of ids currently on the free list
}

// New creates a PRF with size physical registers. All ids start on the
// free list in ascending order. Every register's ready bit starts true
// with value -1 (the source CPU's uninitialized-PRF convention): a
// source read of an architectural register that was never written
// returns this sentinel rather than being detected as an error
// (UndefinedRead, spec.md §7, §9 Open Question 1).
func New(size int) *PRF {
	p := &PRF{
		entries: make([]entry, size),
		free:    make([]ID, size),
		count:   size,
	}
	for i := range p.entries {
		p.entries[i] = entry{ready: true, value: -1}
		p.free[i] = ID(i)
	}
	return p
}

// Size returns the total number of physical registers, P.
func (p *PRF) Size() int { return len(p.entries) }

// FreeCount returns the number of ids currently on the free list. Used
// by property tests checking PR conservation (P1).
func (p *PRF) FreeCount() int { return p.count }

// Allocate pops the oldest id off the free list. The second return value
// is false when the free list is empty (FreeListEmpty, spec.md §7): the
// caller must stall rename until a commit frees a register.
func (p *PRF) Allocate() (ID, bool) {
	if p.count == 0 {
		return None, false
	}
	id := p.free[p.head]
	p.head = (p.head + 1) % len(p.free)
	p.count--
	p.entries[id] = entry{ready: false, value: 0}
	return id, true
}

// Free returns pr to the tail of the free list. Must be called exactly
// once per overwritten physical register, at the commit point of the
// instruction that superseded it (§4.1).
func (p *PRF) Free(pr ID) {
	p.free[p.tail] = pr
	p.tail = (p.tail + 1) % len(p.free)
	p.count++
}

// Read returns the readiness and value of pr.
func (p *PRF) Read(pr ID) (ready bool, value int32) {
	e := p.entries[pr]
	return e.ready, e.value
}

// Ready reports whether pr's value is ready without returning it.
func (p *PRF) Ready(pr ID) bool {
	return p.entries[pr].ready
}

// Write marks pr ready with value. The producing functional unit calls
// this exactly once per register per instruction (P4, single-writer);
// calling it twice for the same register with different values is a
// programmer error and is not itself detected (spec.md §4.1, §4.9).
func (p *PRF) Write(pr ID, value int32) {
	p.entries[pr] = entry{ready: true, value: value}
}
