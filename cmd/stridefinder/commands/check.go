/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: check.go
Description: Self-check and layout listing commands. The self-check validates settings,
the configuration space, the reference party and the output directories before a run.
*/

package commands

import (
	"fmt"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/stridefinder/pkg/inference"
	"github.com/kleascm/stridefinder/pkg/snapshot"
)

// ListLayouts prints every layout of the configured space in iteration order
func ListLayouts(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	settings, err := LoadSettings(inference.ModePlausibility)
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	space, err := settings.BuildSpace()
	if err != nil {
		return fmt.Errorf("invalid space: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Space %s: %d layouts\n", space.Name(), space.Len())

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Stride", "Species", "Level", "Span"})
	table.SetAutoFormatHeaders(false)
	i := 0
	for cfg := range space.Configs() {
		table.Append([]string{
			fmt.Sprint(i),
			fmt.Sprint(cfg.Stride),
			fmt.Sprintf("0x%02X", cfg.SpeciesOffset),
			fmt.Sprintf("0x%02X", cfg.LevelOffset),
			fmt.Sprint(cfg.Span()),
		})
		i++
	}
	table.Render()
	return nil
}

// PerformSelfCheck validates everything a run depends on. Two optional arguments name
// snapshots to load as part of the check.
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Running stridefinder self-checks...")

	var settings *Settings
	checks := []struct {
		name     string
		function func() error
	}{
		{"Settings", func() (err error) {
			settings, err = LoadSettings(inference.ModePlausibility)
			return err
		}},
		{"Configuration space", func() error {
			if settings == nil {
				return fmt.Errorf("settings unavailable")
			}
			space, err := settings.BuildSpace()
			if err != nil {
				return err
			}
			return inference.ValidateSpace(space)
		}},
		{"Plausibility rule", func() error {
			if settings == nil {
				return fmt.Errorf("settings unavailable")
			}
			opts, err := settings.Options(nil)
			if err != nil {
				return err
			}
			_, err = inference.NewEngine(opts, nil)
			return err
		}},
		{"Reference party", func() error {
			if settings == nil {
				return fmt.Errorf("settings unavailable")
			}
			party, err := settings.Reference()
			if err != nil {
				return err
			}
			opts, err := settings.Options(party)
			if err != nil {
				return err
			}
			opts.Mode = inference.ModeExact
			_, err = inference.NewEngine(opts, nil)
			return err
		}},
		{"Log directory", func() error { return checkWritable(viper.GetString("log_dir")) }},
		{"Report directory", func() error { return checkWritable(viper.GetString("report_dir")) }},
		{"Snapshots", func() error { return checkSnapshots(settings, args) }},
	}

	passed := 0
	for _, check := range checks {
		fmt.Fprintf(out, "  %-20s ", check.name)
		if err := check.function(); err != nil {
			fmt.Fprintf(out, "❌ FAILED: %v\n", err)
			continue
		}
		fmt.Fprintln(out, "✅ PASSED")
		passed++
	}

	fmt.Fprintf(out, "📊 Results: %d/%d checks passed\n", passed, len(checks))
	if passed != len(checks) {
		return fmt.Errorf("%d self-checks failed", len(checks)-passed)
	}
	return nil
}

// checkWritable creates dir when needed and verifies a file can be written into it.
// An empty dir means the output is disabled.
func checkWritable(dir string) error {
	if dir == "" {
		return nil
	}
	if err := Fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	probe := filepath.Join(dir, ".stridefinder_check")
	if err := afero.WriteFile(Fs, probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	return Fs.Remove(probe)
}

func checkSnapshots(settings *Settings, args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 2:
	default:
		return fmt.Errorf("expected two snapshot paths, got %d", len(args))
	}
	if settings == nil {
		return fmt.Errorf("settings unavailable")
	}

	a, b, err := snapshot.NewLoader(Fs).LoadPair(args[0], args[1], settings.BaseAddress)
	if err != nil {
		return err
	}
	if a.SameContent(b) {
		return fmt.Errorf("%s and %s are identical", a.Name, b.Name)
	}
	return nil
}
