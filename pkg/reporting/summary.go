/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: summary.go
Description: Console presentation of scan results: per-hit slot trails, candidate tables
per snapshot and a coloured verdict for the consistency check.
*/

package reporting

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/kleascm/stridefinder/pkg/inference"
)

var (
	good = color.New(color.FgGreen, color.Bold)
	warn = color.New(color.FgYellow, color.Bold)
	bad  = color.New(color.FgRed, color.Bold)
)

func hex32(v uint64) string {
	return fmt.Sprintf("0x%08X", v)
}

// RenderHits prints every reported run of agg with the record found in each slot.
// With an exact rule, failed slots show the expected record too; labels name slots by position.
func RenderHits(w io.Writer, agg *inference.Aggregate, rule inference.Rule, runLength int, labels []string) {
	exact, _ := rule.(*inference.ExactMatchRule)

	for _, r := range agg.Results {
		fmt.Fprintf(w, "🎯 Found %d/%d at address %s (offset %s) %s\n",
			r.MatchCount, runLength, hex32(r.Address), hex32(uint64(r.Offset)), r.Config)

		for _, slot := range r.Slots {
			label := fmt.Sprintf("Record %d", slot.Index+1)
			if slot.Index < len(labels) {
				label = labels[slot.Index]
			}

			switch {
			case slot.Valid:
				fmt.Fprintf(w, "   %s: %s ✅\n", label, slot.Record)
			case exact != nil:
				expected, _ := exact.Expected(slot.Index)
				fmt.Fprintf(w, "   Expected %s (%s) got %s ❌\n", label, expected, slot.Record)
			default:
				fmt.Fprintf(w, "   %s: %s ❌\n", label, slot.Record)
			}
		}

		if r.Complete {
			good.Fprintf(w, "🎉 COMPLETE RUN at %s\n", hex32(r.Address))
		}
	}
}

// RenderCandidates prints a table of the complete matches of one snapshot
func RenderCandidates(w io.Writer, title string, agg *inference.Aggregate) {
	partial := agg.Partial()
	fmt.Fprintf(w, "%s (%s): %d complete, %d partial, %d layouts tried\n",
		title, agg.Snapshot, len(agg.Candidates), len(partial), agg.ConfigsTried)
	if len(partial) > 0 {
		best := lo.MaxBy(partial, func(a, b inference.ScanResult) bool { return a.MatchCount > b.MatchCount })
		fmt.Fprintf(w, "   best partial run: %d matches at %s (%s)\n",
			best.MatchCount, hex32(best.Address), best.Config)
	}
	if agg.Truncated {
		warn.Fprintln(w, "⏱  budget exhausted before every layout was tried")
	}
	if len(agg.Candidates) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Address", "Offset", "Stride", "Species", "Level", "Matches"})
	table.SetAutoFormatHeaders(false)
	for _, c := range agg.Candidates {
		table.Append([]string{
			hex32(c.Address),
			hex32(uint64(c.Offset)),
			strconv.FormatUint(uint64(c.Config.Stride), 10),
			fmt.Sprintf("+0x%02X", c.Config.SpeciesOffset),
			fmt.Sprintf("+0x%02X", c.Config.LevelOffset),
			strconv.Itoa(c.MatchCount),
		})
	}
	table.Render()
}

// RenderVerdict prints the consistency outcome
func RenderVerdict(w io.Writer, report inference.ConsistencyReport) {
	switch report.Outcome {
	case inference.OutcomeStable:
		good.Fprintln(w, "✅ CONSISTENT ADDRESSES FOUND")
		for _, addr := range report.StableAddresses {
			fmt.Fprintf(w, "   %s is stable across both snapshots\n", hex32(addr))
		}
	case inference.OutcomeDynamic:
		warn.Fprintln(w, "❌ NO CONSISTENT ADDRESSES FOUND")
		fmt.Fprintln(w, "💡 The records relocate between snapshots: the layout is dynamically allocated")
		fmt.Fprintf(w, "   snapshot A: %s\n", hex32(report.AddressesA[0]))
		fmt.Fprintf(w, "   snapshot B: %s\n", hex32(report.AddressesB[0]))
		fmt.Fprintf(w, "   difference: %d bytes\n", report.Difference)
	default:
		bad.Fprintf(w, "❌ INCONCLUSIVE: %s\n", report.Summary())
	}
}

// RenderSummary prints both candidate tables and the verdict
func RenderSummary(w io.Writer, report *Report) {
	fmt.Fprintln(w, "📋 SUMMARY")
	fmt.Fprintf(w, "Run %s, mode %s, %s space (%d layouts), base %s, took %s\n",
		report.RunID, report.Mode, report.Space, report.Layouts, hex32(report.BaseAddress), report.Duration.Round(time.Millisecond))
	fmt.Fprintln(w)
	RenderCandidates(w, "SNAPSHOT A", report.A)
	fmt.Fprintln(w)
	RenderCandidates(w, "SNAPSHOT B", report.B)
	fmt.Fprintln(w)
	RenderVerdict(w, report.Consistency)
}
