/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for stridefinder. Locates fixed-stride party record
arrays in two memory snapshots and reports whether their addresses are stable.
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/stridefinder/cmd/stridefinder/commands"
)

// NewRootCommand builds the command tree and binds its flags to viper
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stridefinder",
		Short: "stridefinder - infer the layout of party record arrays in memory snapshots",
		Long: `stridefinder scans two memory snapshots for a run of fixed-stride records,
each holding a species identifier and a level, under a space of candidate layouts.
Candidate addresses found in both snapshots are reported as stable.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()

	// Configuration and logging
	flags.String("config", "", "Configuration file path")
	flags.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flags.String("log-format", "custom", "Log format (text, json, custom)")
	flags.String("log-dir", "", "Log output directory (empty disables the log file)")
	flags.Int("log-max-files", 10, "Maximum number of log files to keep")
	flags.Bool("log-colors", true, "Colorize console log output")

	// Snapshot and layout space
	flags.String("base", "0x02000000", "Address of the first byte of each snapshot")
	flags.String("space", "", "Configuration space policy (narrow, broad); defaults per command")
	flags.StringSlice("strides", nil, "Record strides to try (comma separated)")
	flags.StringSlice("species-offsets", nil, "Species field offsets to try, paired with level offsets")
	flags.StringSlice("level-offsets", nil, "Level field offsets to try, paired with species offsets")

	// Scan parameters
	flags.Uint("alignment", 4, "Alignment of candidate base offsets")
	flags.Int("run-length", 6, "Number of records in a run")
	flags.Int("min-matches", 3, "Minimum valid records for a candidate")
	flags.Int("workers", 1, "Layouts scanned in parallel")
	flags.Duration("budget", 0, "Time budget for the whole search (0 = unlimited)")

	// Output
	flags.String("report-dir", "", "Directory for JSON run reports (empty disables reports)")
	flags.Bool("show-hits", false, "Print every run found, not only the summary")

	bindings := map[string]string{
		"config":          "config",
		"log_level":       "log-level",
		"log_format":      "log-format",
		"log_dir":         "log-dir",
		"log_max_files":   "log-max-files",
		"log_colors":      "log-colors",
		"base_address":    "base",
		"space":           "space",
		"strides":         "strides",
		"species_offsets": "species-offsets",
		"level_offsets":   "level-offsets",
		"alignment":       "alignment",
		"run_length":      "run-length",
		"min_matches":     "min-matches",
		"workers":         "workers",
		"budget":          "budget",
		"report_dir":      "report-dir",
		"show_hits":       "show-hits",
	}
	for key, flag := range bindings {
		viper.BindPFlag(key, flags.Lookup(flag))
	}

	// Add scan command
	scanCmd := &cobra.Command{
		Use:   "scan <snapshot-a> <snapshot-b>",
		Short: "Search two snapshots for a plausible party array",
		Long: `Scan both snapshots for runs whose records carry a species inside the configured
bands and a level inside the level range, then compare the candidate addresses.`,
		Args: cobra.ExactArgs(2),
		RunE: commands.RunScan,
	}
	scanCmd.Flags().StringSlice("bands", nil, "Species bands as min-max (default: generations 1-6)")
	scanCmd.Flags().Uint("level-min", 1, "Lowest plausible level (1-255)")
	scanCmd.Flags().Uint("level-max", 100, "Highest plausible level (1-255)")
	viper.BindPFlag("bands", scanCmd.Flags().Lookup("bands"))
	viper.BindPFlag("level_min", scanCmd.Flags().Lookup("level-min"))
	viper.BindPFlag("level_max", scanCmd.Flags().Lookup("level-max"))
	rootCmd.AddCommand(scanCmd)

	// Add ground-truth command
	groundTruthCmd := &cobra.Command{
		Use:   "ground-truth <snapshot-a> <snapshot-b>",
		Short: "Search two snapshots for a known reference party",
		Long: `Scan both snapshots for runs whose records equal a reference party, member by
member, then compare the candidate addresses. The built-in Quetzal party is used
unless a YAML reference file is given.`,
		Args: cobra.ExactArgs(2),
		RunE: commands.RunGroundTruth,
	}
	groundTruthCmd.Flags().String("reference", "", "YAML file describing the reference party")
	viper.BindPFlag("reference_file", groundTruthCmd.Flags().Lookup("reference"))
	rootCmd.AddCommand(groundTruthCmd)

	// Add check command for built-in self-checks
	rootCmd.AddCommand(&cobra.Command{
		Use:   "check [snapshot-a snapshot-b]",
		Short: "Perform built-in self-checks before a run",
		Long: `Validate settings, the configuration space, the reference party and the output
directories. When two snapshots are given they are loaded and compared as well.`,
		RunE: commands.PerformSelfCheck,
	})

	// Add layouts command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "layouts",
		Short: "List the layouts of the configured space",
		Args:  cobra.NoArgs,
		RunE:  commands.ListLayouts,
	})

	return rootCmd
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
