/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: settings.go
Description: Scan settings resolved from flags, environment and config file, and their
translation into inference engine options.
*/

package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/kleascm/stridefinder/pkg/inference"
	"github.com/kleascm/stridefinder/pkg/reference"
	"github.com/kleascm/stridefinder/pkg/snapshot"
)

// Settings are the resolved parameters of one run
type Settings struct {
	Mode          inference.Mode
	BaseAddress   uint64
	Space         string
	Strides       []uint
	SpeciesOffset []uint
	LevelOffset   []uint
	Alignment     uint
	RunLength     int
	MinMatches    int
	Workers       int
	Budget        time.Duration
	Bands         []inference.Band
	LevelMin      uint8
	LevelMax      uint8
	ReferenceFile string
	ReportDir     string
	ShowHits      bool
}

// LoadSettings reads the settings for mode from viper
func LoadSettings(mode inference.Mode) (*Settings, error) {
	s := &Settings{
		Mode:          mode,
		Space:         viper.GetString("space"),
		Alignment:     viper.GetUint("alignment"),
		RunLength:     viper.GetInt("run_length"),
		MinMatches:    viper.GetInt("min_matches"),
		Workers:       viper.GetInt("workers"),
		Budget:        viper.GetDuration("budget"),
		ReferenceFile: viper.GetString("reference_file"),
		ReportDir:     viper.GetString("report_dir"),
		ShowHits:      viper.GetBool("show_hits"),
	}

	var result *multierror.Error
	collect := func(err error) {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	base, err := snapshot.ParseAddress(viper.GetString("base_address"))
	collect(err)
	s.BaseAddress = base

	if s.Space == "" {
		// exact searches know less about the layout than plausibility sweeps
		s.Space = "narrow"
		if mode == inference.ModeExact {
			s.Space = "broad"
		}
	}
	if s.Space != "narrow" && s.Space != "broad" {
		collect(fmt.Errorf("unknown space %q (narrow, broad)", s.Space))
	}

	s.Strides, err = parseUints("strides", stringList("strides"))
	collect(err)
	s.SpeciesOffset, err = parseUints("species_offsets", stringList("species_offsets"))
	collect(err)
	s.LevelOffset, err = parseUints("level_offsets", stringList("level_offsets"))
	collect(err)

	s.Bands, err = parseBands(stringList("bands"))
	collect(err)

	levelMin, levelMax := viper.GetUint("level_min"), viper.GetUint("level_max")
	if levelMin > 255 || levelMax > 255 {
		collect(fmt.Errorf("level range %d-%d does not fit in a byte", levelMin, levelMax))
	}
	// The engine reads a zero bound as "use the default", so zero never reaches it
	if levelMin == 0 || levelMax == 0 {
		collect(fmt.Errorf("level range %d-%d must start at 1 or above", levelMin, levelMax))
	}
	s.LevelMin, s.LevelMax = uint8(levelMin), uint8(levelMax)

	if s.Budget < 0 {
		collect(fmt.Errorf("budget must not be negative"))
	}

	return s, result.ErrorOrNil()
}

// BuildSpace returns the configuration space the settings describe. Lists given on the
// command line replace the defaults of the chosen policy.
//
// A narrow space pairs its lists by position: species and level offsets come
// together, a missing stride list means the default stride, and a list of one value
// applies to every layout. Longer lists must all have the same length.
func (s *Settings) BuildSpace() (inference.Space, error) {
	if s.Space == "broad" {
		space := inference.DefaultBroadSpace()
		if len(s.Strides) > 0 {
			space.Strides = s.Strides
		}
		if len(s.SpeciesOffset) > 0 {
			space.SpeciesOffsets = s.SpeciesOffset
		}
		if len(s.LevelOffset) > 0 {
			space.LevelOffsets = s.LevelOffset
		}
		return space, nil
	}

	defaults := inference.DefaultNarrowSpace()
	if len(s.Strides) == 0 && len(s.SpeciesOffset) == 0 && len(s.LevelOffset) == 0 {
		return defaults, nil
	}
	if (len(s.SpeciesOffset) == 0) != (len(s.LevelOffset) == 0) {
		return nil, fmt.Errorf("narrow space needs species and level offsets together (got %d and %d)",
			len(s.SpeciesOffset), len(s.LevelOffset))
	}

	strides, species, levels := s.Strides, s.SpeciesOffset, s.LevelOffset
	if len(strides) == 0 {
		strides = lo.Uniq(lo.Map(defaults.List, func(c inference.Config, _ int) uint { return c.Stride }))
	}
	if len(species) == 0 {
		species = lo.Map(defaults.List, func(c inference.Config, _ int) uint { return c.SpeciesOffset })
		levels = lo.Map(defaults.List, func(c inference.Config, _ int) uint { return c.LevelOffset })
	}

	n := max(len(strides), len(species), len(levels))
	for _, list := range []struct {
		name   string
		values []uint
	}{{"strides", strides}, {"species offsets", species}, {"level offsets", levels}} {
		if len(list.values) != 1 && len(list.values) != n {
			return nil, fmt.Errorf("narrow space has %d %s for %d layouts, give 1 or %d",
				len(list.values), list.name, n, n)
		}
	}

	configs := make([]inference.Config, 0, n)
	for i := 0; i < n; i++ {
		configs = append(configs, inference.Config{
			Stride:        pick(strides, i),
			SpeciesOffset: pick(species, i),
			LevelOffset:   pick(levels, i),
		})
	}
	return inference.NewNarrowSpace(configs...), nil
}

// Reference returns the party used by exact searches
func (s *Settings) Reference() (*reference.Party, error) {
	if s.ReferenceFile == "" {
		return reference.Quetzal(), nil
	}
	return reference.Load(Fs, s.ReferenceFile)
}

// Options converts the settings into engine options
func (s *Settings) Options(party *reference.Party) (inference.Options, error) {
	space, err := s.BuildSpace()
	if err != nil {
		return inference.Options{}, err
	}

	opts := inference.Options{
		Mode:       s.Mode,
		Space:      space,
		Bands:      s.Bands,
		LevelMin:   s.LevelMin,
		LevelMax:   s.LevelMax,
		Alignment:  s.Alignment,
		RunLength:  s.RunLength,
		MinMatches: s.MinMatches,
		Workers:    s.Workers,
	}
	if len(opts.Bands) == 0 {
		opts.Bands = inference.GenerationBands()
	}
	if party != nil {
		opts.Reference = party.Records()
	}
	return opts, nil
}

// pick returns list[i]; a single-value list applies to every index
func pick(list []uint, i int) uint {
	if len(list) == 1 {
		return list[0]
	}
	return list[i]
}

// stringList reads a list setting. Flags arrive split already, but environment
// values are a single string, so commas are split here too.
func stringList(key string) []string {
	var out []string
	for _, v := range viper.GetStringSlice(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseUints(name string, values []string) ([]uint, error) {
	out := make([]uint, 0, len(values))
	for _, v := range values {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", name, v, err)
		}
		out = append(out, uint(n))
	}
	return out, nil
}

// parseBands reads bands written as "min-max"
func parseBands(values []string) ([]inference.Band, error) {
	bands := make([]inference.Band, 0, len(values))
	for _, v := range values {
		from, to, ok := strings.Cut(strings.TrimSpace(v), "-")
		if !ok {
			return nil, fmt.Errorf("invalid band %q, want min-max", v)
		}
		low, err := strconv.ParseUint(from, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid band %q: %w", v, err)
		}
		high, err := strconv.ParseUint(to, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid band %q: %w", v, err)
		}
		bands = append(bands, inference.Band{Min: uint16(low), Max: uint16(high)})
	}
	return bands, nil
}
