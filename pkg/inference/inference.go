/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inference.go
Description: Main entry point for record layout inference. Ties a configuration space, a
validation rule and the scanner together, runs them over two snapshots of the same data
and checks whether the discovered locations agree.
*/

package inference

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Mode selects how candidate records are validated
type Mode string

const (
	ModePlausibility Mode = "plausibility"
	ModeExact        Mode = "exact"
)

// Options configures an Engine. Zero scan parameters fall back to the scanner defaults.
type Options struct {
	Mode      Mode
	Space     Space
	Bands     []Band   // plausibility mode
	LevelMin  uint8    // plausibility mode, 0 = default
	LevelMax  uint8    // plausibility mode, 0 = default
	Reference []Record // exact mode

	Alignment  uint
	RunLength  int
	MinMatches int
	Workers    int
}

// Inference is the outcome of scanning two snapshots
type Inference struct {
	A           *Aggregate        `json:"a"`
	B           *Aggregate        `json:"b"`
	Consistency ConsistencyReport `json:"consistency"`
}

// Engine infers the layout of a fixed-stride record array from two snapshots
type Engine struct {
	scanner *Scanner
	space   Space
	rule    Rule
	logger  logrus.FieldLogger
}

// NewRule builds the validation rule for a mode
func NewRule(opts Options) (Rule, error) {
	switch opts.Mode {
	case ModePlausibility:
		rule := NewPlausibilityRule(opts.Bands)
		if opts.LevelMin != 0 {
			rule.LevelMin = opts.LevelMin
		}
		if opts.LevelMax != 0 {
			rule.LevelMax = opts.LevelMax
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		return rule, nil
	case ModeExact:
		if len(opts.Reference) == 0 {
			return nil, fmt.Errorf("exact mode needs a reference sequence")
		}
		return NewExactMatchRule(opts.Reference), nil
	default:
		return nil, fmt.Errorf("unsupported mode: %q", opts.Mode)
	}
}

// NewEngine validates the options and creates an engine
func NewEngine(opts Options, logger logrus.FieldLogger) (*Engine, error) {
	rule, err := NewRule(opts)
	if err != nil {
		return nil, err
	}

	scanner := NewScanner(logger)
	if opts.Alignment != 0 {
		scanner.Alignment = opts.Alignment
	}
	if opts.RunLength != 0 {
		scanner.RunLength = opts.RunLength
	}
	if opts.MinMatches != 0 {
		scanner.MinMatches = opts.MinMatches
	}
	if opts.Workers != 0 {
		scanner.Workers = opts.Workers
	}
	if err := scanner.Validate(); err != nil {
		return nil, err
	}

	if opts.Mode == ModeExact && len(opts.Reference) < scanner.RunLength {
		return nil, fmt.Errorf("reference has %d records, run length is %d", len(opts.Reference), scanner.RunLength)
	}

	space := opts.Space
	if space == nil {
		space = DefaultNarrowSpace()
	}
	if err := ValidateSpace(space); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = scanner.logger()
	}

	return &Engine{scanner: scanner, space: space, rule: rule, logger: logger}, nil
}

// Scanner returns the engine's scanner
func (e *Engine) Scanner() *Scanner { return e.scanner }

// Rule returns the engine's validation rule
func (e *Engine) Rule() Rule { return e.rule }

// Space returns the engine's configuration space
func (e *Engine) Space() Space { return e.space }

// ScanSnapshot aggregates the matches of one snapshot
func (e *Engine) ScanSnapshot(ctx context.Context, snap Snapshot) (*Aggregate, error) {
	e.logger.WithFields(logrus.Fields{
		"snapshot": snap.Name,
		"size":     len(snap.Data),
		"base":     fmt.Sprintf("0x%08X", snap.BaseAddress),
		"layouts":  e.space.Len(),
		"rule":     e.rule.Name(),
	}).Info("Scanning snapshot")

	agg, err := e.scanner.ScanSpace(ctx, snap, e.space, e.rule)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", snap.Name, err)
	}

	e.logger.WithFields(logrus.Fields{
		"snapshot":   snap.Name,
		"hits":       len(agg.Results),
		"candidates": len(agg.Candidates),
		"truncated":  agg.Truncated,
	}).Info("Snapshot scanned")
	return agg, nil
}

// Infer scans both snapshots and compares their complete matches
func (e *Engine) Infer(ctx context.Context, a, b Snapshot) (*Inference, error) {
	aggA, err := e.ScanSnapshot(ctx, a)
	if err != nil {
		return nil, err
	}
	aggB, err := e.ScanSnapshot(ctx, b)
	if err != nil {
		return nil, err
	}

	report := CheckConsistency(aggA, aggB)
	e.logger.WithFields(logrus.Fields{
		"outcome":    report.Outcome.String(),
		"stable":     len(report.StableAddresses),
		"difference": report.Difference,
	}).Info("Consistency checked")

	return &Inference{A: aggA, B: aggB, Consistency: report}, nil
}
