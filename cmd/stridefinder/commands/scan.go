/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scan.go
Description: Scan and ground-truth commands. Both load two snapshots, run the inference
engine over them and print the candidate addresses and the consistency verdict.
*/

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kleascm/stridefinder/pkg/inference"
	"github.com/kleascm/stridefinder/pkg/reference"
	"github.com/kleascm/stridefinder/pkg/reporting"
	"github.com/kleascm/stridefinder/pkg/snapshot"
)

// RunScan searches two snapshots for a plausible record array
func RunScan(cmd *cobra.Command, args []string) error {
	return runInference(cmd, args, inference.ModePlausibility)
}

// RunGroundTruth searches two snapshots for a known reference party
func RunGroundTruth(cmd *cobra.Command, args []string) error {
	return runInference(cmd, args, inference.ModeExact)
}

func runInference(cmd *cobra.Command, args []string, mode inference.Mode) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	settings, err := LoadSettings(mode)
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	var party *reference.Party
	if mode == inference.ModeExact {
		if party, err = settings.Reference(); err != nil {
			return fmt.Errorf("failed to load reference party: %w", err)
		}
	}

	opts, err := settings.Options(party)
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	engine, err := inference.NewEngine(opts, logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	loader := snapshot.NewLoader(Fs)
	snapA, snapB, err := loader.LoadPair(args[0], args[1], settings.BaseAddress)
	if err != nil {
		return fmt.Errorf("failed to load snapshots: %w", err)
	}
	for _, snap := range []*snapshot.Snapshot{snapA, snapB} {
		logger.LogSnapshotLoaded(snap.Name, snap.Size, snap.Digest, map[string]interface{}{
			"path":        snap.Path,
			"compression": snap.Compression,
			"human_size":  snap.HumanSize(),
		})
	}
	if snapA.SameContent(snapB) {
		logger.Warning("Snapshots are identical, every candidate will look stable", map[string]interface{}{
			"a": snapA.Name,
			"b": snapB.Name,
		})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if settings.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Budget)
		defer cancel()
	}

	logger.LogScanStarted(string(mode), engine.Space().Name(), engine.Space().Len(), settings.BaseAddress, map[string]interface{}{
		"rule":       engine.Rule().Name(),
		"run_length": engine.Scanner().RunLength,
		"workers":    engine.Scanner().Workers,
		"budget":     settings.Budget.String(),
	})

	startedAt := time.Now()
	result, err := engine.Infer(ctx, snapA.Buffer(), snapB.Buffer())
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	for _, agg := range []*inference.Aggregate{result.A, result.B} {
		for _, c := range agg.Candidates {
			logger.LogCandidate(agg.Snapshot, c.Address, c.Config.String(), map[string]interface{}{
				"matches":  c.MatchCount,
				"complete": c.Complete,
			})
		}
	}
	logger.LogConsistency(result.Consistency.Outcome.String(), len(result.Consistency.StableAddresses), result.Consistency.Difference, map[string]interface{}{
		"summary": result.Consistency.Summary(),
	})

	report := reporting.NewReport(mode, engine, result, startedAt)
	report.Snapshots = []*snapshot.Snapshot{snapA, snapB}
	if party != nil {
		report.Labels = party.Names()
	}

	out := cmd.OutOrStdout()
	if settings.ShowHits {
		reporting.RenderHits(out, result.A, engine.Rule(), engine.Scanner().RunLength, report.Labels)
		reporting.RenderHits(out, result.B, engine.Rule(), engine.Scanner().RunLength, report.Labels)
	}
	reporting.RenderSummary(out, report)

	if settings.ReportDir != "" {
		path, err := reporting.WriteReport(Fs, settings.ReportDir, report)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(out, "%s %s\n", color.New(color.FgCyan).Sprint("Report:"), path)
		logger.Info("Report written", map[string]interface{}{"path": path, "run_id": report.RunID})
	}

	return nil
}
