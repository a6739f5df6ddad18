/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core data types for layout inference: memory snapshots, candidate records,
per-slot diagnostics and scan results.
*/

package inference

import "fmt"

const (
	// SpeciesWidth is the size in bytes of the little-endian species field
	SpeciesWidth = 2
	// LevelWidth is the size in bytes of the level field
	LevelWidth = 1
)

// Snapshot is one captured memory region. Data is owned by the caller and only read.
type Snapshot struct {
	Name        string `json:"name"`
	Data        []byte `json:"-"`
	BaseAddress uint64 `json:"base_address"`
}

// Address maps a buffer offset into the snapshot's address space
func (s Snapshot) Address(offset uint) uint64 {
	return s.BaseAddress + uint64(offset)
}

// Record holds the two fields decoded from one record slot
type Record struct {
	Species uint16 `json:"species" yaml:"species"`
	Level   uint8  `json:"level" yaml:"level"`
}

func (r Record) String() string {
	return fmt.Sprintf("%d/%d", r.Species, r.Level)
}

// Slot is the diagnostic trail for one record of a run
type Slot struct {
	Index  int    `json:"index"`
	Offset uint   `json:"offset"`
	Record Record `json:"record"`
	Valid  bool   `json:"valid"`
}

// ScanResult is a base offset where a run of records validated well enough to report.
// MatchCount is the number of slots judged valid, not necessarily the whole run.
type ScanResult struct {
	Address    uint64 `json:"address"`
	Offset     uint   `json:"offset"`
	Config     Config `json:"config"`
	MatchCount int    `json:"match_count"`
	Complete   bool   `json:"complete"`
	Slots      []Slot `json:"slots"`
}
