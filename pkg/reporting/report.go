/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: Run reports for stridefinder. A Report captures the parameters and results of
one two-snapshot run and is written as a timestamped JSON file for later comparison.
*/

package reporting

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/kleascm/stridefinder/pkg/inference"
	"github.com/kleascm/stridefinder/pkg/snapshot"
)

// Report is the record of one run
type Report struct {
	RunID       string                      `json:"run_id"`
	Mode        inference.Mode              `json:"mode"`
	Space       string                      `json:"space"`
	Rule        string                      `json:"rule"`
	Layouts     int                         `json:"layouts"`
	RunLength   int                         `json:"run_length"`
	BaseAddress uint64                      `json:"base_address"`
	StartedAt   time.Time                   `json:"started_at"`
	Duration    time.Duration               `json:"duration"`
	Snapshots   []*snapshot.Snapshot        `json:"snapshots"`
	A           *inference.Aggregate        `json:"a"`
	B           *inference.Aggregate        `json:"b"`
	Consistency inference.ConsistencyReport `json:"consistency"`

	// Labels names each position of a reference sequence, when one was used
	Labels []string `json:"labels,omitempty"`
}

// NewReport assembles a report from an engine run
func NewReport(mode inference.Mode, engine *inference.Engine, result *inference.Inference, startedAt time.Time) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		Mode:        mode,
		Space:       engine.Space().Name(),
		Rule:        engine.Rule().Name(),
		Layouts:     engine.Space().Len(),
		RunLength:   engine.Scanner().RunLength,
		BaseAddress: result.A.BaseAddress,
		StartedAt:   startedAt,
		Duration:    time.Since(startedAt),
		A:           result.A,
		B:           result.B,
		Consistency: result.Consistency,
	}
}

// WriteReport writes the report as JSON under dir and returns the file path.
// Files are named <timestamp>_<mode>_<run id prefix>.json.
func WriteReport(fs afero.Fs, dir string, report *Report) (string, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	id := report.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	timestamp := report.StartedAt.Format("2006-01-02_15-04-05")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.json", timestamp, report.Mode, id))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
