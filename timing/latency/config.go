// Package latency provides configurable functional-unit timing for the
// pipeline: how many cycles the INT, MUL, and AGEN units take, and how
// long the two-stage memory pipeline holds a load or store.
package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the cycle counts each functional unit in the
// pipeline uses once an Issue Queue entry is selected (spec.md §2, C6).
type TimingConfig struct {
	// IntLatency is the INT FU's execute latency (ADD/SUB/AND/OR/XOR/
	// ADDL/SUBL/CMP/CML/MOVC/JUMP/JALR). Default: 1 cycle.
	IntLatency uint64 `json:"int_latency"`

	// MulLatency is the MUL FU's execute latency (MUL). Default: 3 cycles.
	MulLatency uint64 `json:"mul_latency"`

	// AgenLatency is the AGEN FU's address-computation latency, shared by
	// loads and stores. Default: 1 cycle.
	AgenLatency uint64 `json:"agen_latency"`

	// MemStageLatency is how many cycles a drained LSQ entry spends at
	// the head performing its memory access (spec.md §4.5). Default: 2
	// cycles.
	MemStageLatency uint64 `json:"mem_stage_latency"`
}

// DefaultTimingConfig returns the timing spec.md §7.5 describes.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		IntLatency:      1,
		MulLatency:      3,
		AgenLatency:     1,
		MemStageLatency: 2,
	}
}

// LoadConfig loads a TimingConfig from a JSON file, starting from the
// defaults so a partial file only overrides what it names.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("apex: cannot read timing config %q: %w", path, err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("apex: cannot parse timing config %q: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("apex: cannot serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("apex: cannot write timing config %q: %w", path, err)
	}

	return nil
}

// Validate checks that every latency is positive; a zero-cycle unit
// would let results broadcast before Select runs and break intra-cycle
// ordering (SPEC_FULL.md §6).
func (c *TimingConfig) Validate() error {
	if c.IntLatency == 0 {
		return fmt.Errorf("apex: int_latency must be > 0")
	}
	if c.MulLatency == 0 {
		return fmt.Errorf("apex: mul_latency must be > 0")
	}
	if c.AgenLatency == 0 {
		return fmt.Errorf("apex: agen_latency must be > 0")
	}
	if c.MemStageLatency == 0 {
		return fmt.Errorf("apex: mem_stage_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	cp := *c
	return &cp
}
