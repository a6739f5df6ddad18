/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scanner.go
Description: Scan engine. Slides an aligned window over a snapshot, extracts runs of
records for one layout and reports every base offset where enough of the run validates.
ScanSpace repeats the scan for every layout of a configuration space, optionally spreading
layouts over a bounded pool of goroutines while keeping discovery order.
*/

package inference

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultAlignment  = 4
	DefaultRunLength  = 6
	DefaultMinMatches = 3
)

// Scanner holds the scan parameters. It keeps no state between scans and is safe
// for concurrent use.
type Scanner struct {
	Alignment  uint // step between candidate base offsets
	RunLength  int  // records per run
	MinMatches int  // valid slots needed before a run is reported
	Workers    int  // layouts scanned concurrently by ScanSpace (<= 1 = sequential)

	Logger logrus.FieldLogger
}

// NewScanner creates a scanner with the default alignment, run length and threshold
func NewScanner(logger logrus.FieldLogger) *Scanner {
	return &Scanner{
		Alignment:  DefaultAlignment,
		RunLength:  DefaultRunLength,
		MinMatches: DefaultMinMatches,
		Workers:    1,
		Logger:     logger,
	}
}

// Validate checks the scan parameters
func (s *Scanner) Validate() error {
	if s.Alignment == 0 {
		return fmt.Errorf("alignment must be positive")
	}
	if s.RunLength <= 0 {
		return fmt.Errorf("run length must be positive")
	}
	if s.MinMatches <= 0 || s.MinMatches > s.RunLength {
		return fmt.Errorf("min matches must be between 1 and %d, got %d", s.RunLength, s.MinMatches)
	}
	return nil
}

func (s *Scanner) logger() logrus.FieldLogger {
	if s.Logger != nil {
		return s.Logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}

// Scan reports every aligned base offset of snap where a run of records under cfg
// reaches MinMatches valid slots. Results come out in offset order.
// A buffer too short to hold a whole run yields no results and no error.
func (s *Scanner) Scan(snap Snapshot, cfg Config, rule Rule) ([]ScanResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, fmt.Errorf("no validation rule")
	}

	runBytes := uint(s.RunLength) * cfg.Stride
	size := uint(len(snap.Data))
	if size <= runBytes {
		return nil, nil
	}

	var results []ScanResult
	for base := uint(0); base < size-runBytes; base += s.Alignment {
		slots, matches := s.run(snap.Data, base, cfg, rule)
		if matches < s.MinMatches {
			continue
		}
		results = append(results, ScanResult{
			Address:    snap.Address(base),
			Offset:     base,
			Config:     cfg,
			MatchCount: matches,
			Complete:   matches == s.RunLength,
			Slots:      slots,
		})
	}
	return results, nil
}

// run checks one run starting at base. Extraction past the end of the buffer ends
// the run; so does a failed slot when the rule says so.
func (s *Scanner) run(buf []byte, base uint, cfg Config, rule Rule) ([]Slot, int) {
	// Cheap reject before allocating the trail
	first, err := Extract(buf, base, cfg)
	if err != nil || (!rule.Check(0, first) && rule.StopOnFailure(0)) {
		return nil, 0
	}

	slots := make([]Slot, 0, s.RunLength)
	matches := 0
	for i := 0; i < s.RunLength; i++ {
		offset := base + uint(i)*cfg.Stride
		rec, err := Extract(buf, offset, cfg)
		if err != nil {
			break
		}

		valid := rule.Check(i, rec)
		slots = append(slots, Slot{Index: i, Offset: offset, Record: rec, Valid: valid})
		if valid {
			matches++
		} else if rule.StopOnFailure(i) {
			break
		}
	}
	return slots, matches
}

// ScanSpace scans snap under every layout of space and aggregates the results in
// discovery order: layout order first, offset order second. When ctx is done no
// further layouts are pulled and the aggregate is marked truncated.
func (s *Scanner) ScanSpace(ctx context.Context, snap Snapshot, space Space, rule Rule) (*Aggregate, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSpace(space); err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, fmt.Errorf("no validation rule")
	}

	agg := NewAggregate(snap, space.Name(), rule.Name())
	log := s.logger().WithFields(logrus.Fields{
		"snapshot": snap.Name,
		"space":    space.Name(),
		"rule":     rule.Name(),
	})

	if s.Workers > 1 {
		if err := s.scanParallel(ctx, snap, space, rule, agg, log); err != nil {
			return nil, err
		}
		return agg, nil
	}

	for cfg := range space.Configs() {
		if ctx.Err() != nil {
			agg.Truncated = true
			break
		}
		results, err := s.Scan(snap, cfg, rule)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", cfg, err)
		}
		s.logConfig(log, cfg, results)
		agg.Add(results)
	}
	return agg, nil
}

func (s *Scanner) scanParallel(ctx context.Context, snap Snapshot, space Space, rule Rule, agg *Aggregate, log logrus.FieldLogger) error {
	type outcome struct {
		cfg     Config
		results []ScanResult
		done    bool
	}

	var (
		mu       sync.Mutex
		outcomes []*outcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)

	for cfg := range space.Configs() {
		if gctx.Err() != nil {
			break
		}
		o := &outcome{cfg: cfg}
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results, err := s.Scan(snap, o.cfg, rule)
			if err != nil {
				return fmt.Errorf("scan %s: %w", o.cfg, err)
			}
			s.logConfig(log, o.cfg, results)
			mu.Lock()
			o.results, o.done = results, true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, o := range outcomes {
		if !o.done {
			agg.Truncated = true
			continue
		}
		agg.Add(o.results)
	}
	if len(outcomes) < space.Len() {
		agg.Truncated = true
	}
	return nil
}

func (s *Scanner) logConfig(log logrus.FieldLogger, cfg Config, results []ScanResult) {
	fields := logrus.Fields{
		"stride":         cfg.Stride,
		"species_offset": fmt.Sprintf("0x%02X", cfg.SpeciesOffset),
		"level_offset":   fmt.Sprintf("0x%02X", cfg.LevelOffset),
		"hits":           len(results),
	}
	log.WithFields(fields).Debug("Layout scanned")

	for _, r := range results {
		hit := log.WithFields(logrus.Fields{
			"address": fmt.Sprintf("0x%08X", r.Address),
			"offset":  fmt.Sprintf("0x%08X", r.Offset),
			"matches": fmt.Sprintf("%d/%d", r.MatchCount, s.RunLength),
			"layout":  cfg.String(),
		})
		if r.Complete {
			hit.Info("Complete run found")
		} else {
			hit.Debug("Partial run found")
		}
	}
}
