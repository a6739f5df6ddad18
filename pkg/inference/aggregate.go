/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: aggregate.go
Description: Candidate aggregator. Collects the scan results of every layout tried on one
snapshot and keeps the complete matches, in discovery order, as candidates.
*/

package inference

// Aggregate is everything found in one snapshot across a configuration space.
// The same location may appear under several layouts; no deduplication happens here.
type Aggregate struct {
	Snapshot     string       `json:"snapshot"`
	BaseAddress  uint64       `json:"base_address"`
	Size         int          `json:"size"`
	Space        string       `json:"space"`
	Rule         string       `json:"rule"`
	ConfigsTried int          `json:"configs_tried"`
	Truncated    bool         `json:"truncated"`
	Results      []ScanResult `json:"results"`
	Candidates   []ScanResult `json:"candidates"`
}

// NewAggregate creates an empty aggregate for snap
func NewAggregate(snap Snapshot, space, rule string) *Aggregate {
	return &Aggregate{
		Snapshot:    snap.Name,
		BaseAddress: snap.BaseAddress,
		Size:        len(snap.Data),
		Space:       space,
		Rule:        rule,
	}
}

// Add appends the results of one layout, in the order they were found
func (a *Aggregate) Add(results []ScanResult) {
	a.ConfigsTried++
	for _, r := range results {
		a.Results = append(a.Results, r)
		if r.Complete {
			a.Candidates = append(a.Candidates, r)
		}
	}
}

// Addresses returns the candidate addresses in discovery order
func (a *Aggregate) Addresses() []uint64 {
	if a == nil {
		return nil
	}
	addrs := make([]uint64, 0, len(a.Candidates))
	for _, c := range a.Candidates {
		addrs = append(addrs, c.Address)
	}
	return addrs
}

// Partial returns the reported runs that did not complete
func (a *Aggregate) Partial() []ScanResult {
	var partial []ScanResult
	for _, r := range a.Results {
		if !r.Complete {
			partial = append(partial, r)
		}
	}
	return partial
}
