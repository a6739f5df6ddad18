/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rules.go
Description: Validation rules for candidate records. A plausibility rule accepts any record
whose values fall in configured ranges; an exact-match rule compares each slot of a run with
a reference sequence. The scanner only sees the Rule interface.
*/

package inference

import "fmt"

// Rule judges the records of a run. Implementations must be pure and deterministic.
type Rule interface {
	// Check reports whether the record at position index of a run is valid
	Check(index int, rec Record) bool
	// StopOnFailure reports whether a failure at position index ends the run
	StopOnFailure(index int) bool
	// Name identifies the rule in logs and reports
	Name() string
}

// Band is an inclusive range of valid species identifiers
type Band struct {
	Min uint16 `json:"min" mapstructure:"min"`
	Max uint16 `json:"max" mapstructure:"max"`
}

// Contains reports whether species lies inside the band
func (b Band) Contains(species uint16) bool {
	return species >= b.Min && species <= b.Max
}

const (
	DefaultLevelMin uint8 = 1
	DefaultLevelMax uint8 = 100
)

// GenerationBands returns the species ranges of generations 1 through 6
func GenerationBands() []Band {
	return []Band{
		{Min: 1, Max: 151},
		{Min: 152, Max: 251},
		{Min: 252, Max: 386},
		{Min: 387, Max: 493},
		{Min: 494, Max: 649},
		{Min: 650, Max: 721},
	}
}

// PlausibilityRule accepts records whose species falls in any band and whose level
// lies in [LevelMin, LevelMax]. Only a failure of the first slot ends a run.
type PlausibilityRule struct {
	Bands    []Band
	LevelMin uint8
	LevelMax uint8
}

// NewPlausibilityRule creates a rule over the given bands with the default level range
func NewPlausibilityRule(bands []Band) *PlausibilityRule {
	return &PlausibilityRule{
		Bands:    bands,
		LevelMin: DefaultLevelMin,
		LevelMax: DefaultLevelMax,
	}
}

// Check ignores the slot position: every slot is judged independently
func (r *PlausibilityRule) Check(_ int, rec Record) bool {
	if rec.Level < r.LevelMin || rec.Level > r.LevelMax {
		return false
	}
	for _, b := range r.Bands {
		if b.Contains(rec.Species) {
			return true
		}
	}
	return false
}

// StopOnFailure ends the run only when the first slot is implausible
func (r *PlausibilityRule) StopOnFailure(index int) bool {
	return index == 0
}

// Name identifies the rule in logs and reports
func (r *PlausibilityRule) Name() string { return "plausibility" }

// Validate rejects empty or inverted ranges
func (r *PlausibilityRule) Validate() error {
	if len(r.Bands) == 0 {
		return fmt.Errorf("plausibility rule needs at least one species band")
	}
	for _, b := range r.Bands {
		if b.Min > b.Max {
			return fmt.Errorf("species band %d-%d is inverted", b.Min, b.Max)
		}
	}
	if r.LevelMin > r.LevelMax {
		return fmt.Errorf("level range %d-%d is inverted", r.LevelMin, r.LevelMax)
	}
	return nil
}

// ExactMatchRule accepts the i-th record of a run only if it equals the i-th reference entry.
// Any failure ends the run, since the following slots cannot line up either.
type ExactMatchRule struct {
	Reference []Record
}

// NewExactMatchRule creates a rule over an ordered reference sequence
func NewExactMatchRule(reference []Record) *ExactMatchRule {
	return &ExactMatchRule{Reference: reference}
}

// Check compares rec with the reference entry at index
func (r *ExactMatchRule) Check(index int, rec Record) bool {
	if index < 0 || index >= len(r.Reference) {
		return false
	}
	return r.Reference[index] == rec
}

// StopOnFailure always ends the run
func (r *ExactMatchRule) StopOnFailure(int) bool { return true }

// Name identifies the rule in logs and reports
func (r *ExactMatchRule) Name() string { return "exact" }

// Expected returns the reference entry at index, if any
func (r *ExactMatchRule) Expected(index int) (Record, bool) {
	if index < 0 || index >= len(r.Reference) {
		return Record{}, false
	}
	return r.Reference[index], true
}
