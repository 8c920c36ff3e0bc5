package latency

import "github.com/apex/apexsim/isa"

// Table provides functional-unit latency lookups, keyed by opcode.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{config: DefaultTimingConfig()}
}

// NewTableWithConfig creates a new latency table with custom timing.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{config: config}
}

// Latency returns the functional-unit execute latency, in cycles, for
// op. Memory ops return the AGEN latency; the separate delay once an
// entry reaches the LSQ head is MemStageLatency.
func (t *Table) Latency(op isa.Op) uint64 {
	switch {
	case op.IsMul():
		return t.config.MulLatency
	case op.IsMemory():
		return t.config.AgenLatency
	default:
		return t.config.IntLatency
	}
}

// MemStageLatency returns the number of cycles an LSQ entry spends
// performing its memory access once it reaches the LSQ head.
func (t *Table) MemStageLatency() uint64 {
	return t.config.MemStageLatency
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
