/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: consistency.go
Description: Cross-snapshot consistency checker. Compares the complete matches found in two
captures of the same data: an address present in both implies a static layout, disjoint
addresses imply the records were relocated between captures.
*/

package inference

import (
	"fmt"

	"github.com/samber/lo"
)

// Outcome classifies a consistency check
type Outcome int

const (
	// OutcomeInconclusive means at least one snapshot had no complete match
	OutcomeInconclusive Outcome = iota
	// OutcomeStable means at least one address matched completely in both snapshots
	OutcomeStable
	// OutcomeDynamic means both snapshots matched, but never at the same address
	OutcomeDynamic
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStable:
		return "stable"
	case OutcomeDynamic:
		return "dynamic"
	default:
		return "inconclusive"
	}
}

// MarshalText renders the outcome by name in JSON reports
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ConsistencyReport is the result of comparing two aggregates
type ConsistencyReport struct {
	Outcome         Outcome  `json:"outcome"`
	StableAddresses []uint64 `json:"stable_addresses"`
	AddressesA      []uint64 `json:"addresses_a"`
	AddressesB      []uint64 `json:"addresses_b"`
	// Difference is the first address of B minus the first address of A; only set
	// for a dynamic outcome.
	Difference int64 `json:"difference"`
}

// CheckConsistency intersects the complete-match addresses of a and b. Layouts are not
// compared: two layouts that alias onto the same address still count as stable.
func CheckConsistency(a, b *Aggregate) ConsistencyReport {
	report := ConsistencyReport{
		AddressesA: a.Addresses(),
		AddressesB: b.Addresses(),
	}

	if len(report.AddressesA) == 0 || len(report.AddressesB) == 0 {
		report.Outcome = OutcomeInconclusive
		return report
	}

	common := lo.Filter(report.AddressesA, func(addr uint64, _ int) bool {
		return lo.Contains(report.AddressesB, addr)
	})
	report.StableAddresses = lo.Uniq(common)
	if len(report.StableAddresses) > 0 {
		report.Outcome = OutcomeStable
		return report
	}

	report.Outcome = OutcomeDynamic
	report.Difference = int64(report.AddressesB[0] - report.AddressesA[0])
	return report
}

// Summary is a one-line description of the report
func (r ConsistencyReport) Summary() string {
	switch r.Outcome {
	case OutcomeStable:
		return fmt.Sprintf("%d address(es) stable across both snapshots", len(r.StableAddresses))
	case OutcomeDynamic:
		return fmt.Sprintf("no common address, first candidates differ by %d bytes", r.Difference)
	default:
		return "no complete match in at least one snapshot"
	}
}
