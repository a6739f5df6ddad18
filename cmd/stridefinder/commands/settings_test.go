/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: settings_test.go
Description: Tests for resolving settings from viper and building configuration spaces.
*/

package commands

import (
	"slices"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/stridefinder/pkg/inference"
)

// useViper resets viper to the flag defaults plus overrides
func useViper(t *testing.T, overrides map[string]interface{}) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	defaults := map[string]interface{}{
		"base_address": "0x02000000",
		"alignment":    4,
		"run_length":   6,
		"min_matches":  3,
		"workers":      1,
		"level_min":    1,
		"level_max":    100,
	}
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
	for k, v := range overrides {
		viper.Set(k, v)
	}
}

func TestBuildSpaceNarrow(t *testing.T) {
	cfg := func(stride, species, level uint) inference.Config {
		return inference.Config{Stride: stride, SpeciesOffset: species, LevelOffset: level}
	}

	tests := []struct {
		name    string
		s       Settings
		want    []inference.Config
		wantErr string
	}{
		{
			name: "defaults",
			want: inference.DefaultNarrowSpace().List,
		},
		{
			name: "single stride keeps the default pairs",
			s:    Settings{Strides: []uint{104}},
			want: inference.DefaultNarrowSpace().List,
		},
		{
			name:    "stride list against the default pairs",
			s:       Settings{Strides: []uint{100, 104}},
			wantErr: "2 strides for 3 layouts",
		},
		{
			name: "two strides share one pair",
			s:    Settings{Strides: []uint{100, 104}, SpeciesOffset: []uint{0x28}, LevelOffset: []uint{0x58}},
			want: []inference.Config{cfg(100, 0x28, 0x58), cfg(104, 0x28, 0x58)},
		},
		{
			name: "pairs without strides use the default stride",
			s:    Settings{SpeciesOffset: []uint{0x28, 0x2C}, LevelOffset: []uint{0x58, 0x5C}},
			want: []inference.Config{cfg(104, 0x28, 0x58), cfg(104, 0x2C, 0x5C)},
		},
		{
			name: "lists pair by position",
			s:    Settings{Strides: []uint{100, 108}, SpeciesOffset: []uint{0x20, 0x30}, LevelOffset: []uint{0x54}},
			want: []inference.Config{cfg(100, 0x20, 0x54), cfg(108, 0x30, 0x54)},
		},
		{
			name:    "mismatched lengths",
			s:       Settings{Strides: []uint{100, 104}, SpeciesOffset: []uint{0x28, 0x2C, 0x30}, LevelOffset: []uint{0x58, 0x5C, 0x60}},
			wantErr: "2 strides for 3 layouts",
		},
		{
			name:    "species without level",
			s:       Settings{SpeciesOffset: []uint{0x28}},
			wantErr: "species and level offsets together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.s.Space = "narrow"
			space, err := tt.s.BuildSpace()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, slices.Collect(space.Configs()))
			assert.Equal(t, len(tt.want), space.Len())
		})
	}
}

func TestBuildSpaceBroadOverride(t *testing.T) {
	s := Settings{Space: "broad", Strides: []uint{104}, LevelOffset: []uint{0x58}}
	space, err := s.BuildSpace()
	require.NoError(t, err)
	assert.Equal(t, "broad", space.Name())
	assert.Equal(t, 4, space.Len())
}

func TestLoadSettingsSplitsEnvironmentLists(t *testing.T) {
	t.Setenv("STRIDEFINDER_STRIDES", "100, 104")
	t.Setenv("STRIDEFINDER_SPECIES_OFFSETS", "0x28")
	t.Setenv("STRIDEFINDER_LEVEL_OFFSETS", "0x58")
	t.Setenv("STRIDEFINDER_BANDS", "1-151,152-251")
	useViper(t, nil)
	require.NoError(t, LoadConfig())

	s, err := LoadSettings(inference.ModePlausibility)
	require.NoError(t, err)
	assert.Equal(t, []uint{100, 104}, s.Strides)
	assert.Equal(t, []uint{0x28}, s.SpeciesOffset)
	assert.Equal(t, []inference.Band{{Min: 1, Max: 151}, {Min: 152, Max: 251}}, s.Bands)

	space, err := s.BuildSpace()
	require.NoError(t, err)
	assert.Equal(t, 2, space.Len())
}

func TestLoadSettingsLevels(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint
		wantErr  string
	}{
		{"default range", 1, 100, ""},
		{"zero minimum", 0, 100, "must start at 1"},
		{"zero maximum", 1, 0, "must start at 1"},
		{"wider than a byte", 1, 300, "does not fit in a byte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useViper(t, map[string]interface{}{"level_min": tt.min, "level_max": tt.max})

			s, err := LoadSettings(inference.ModePlausibility)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			opts, err := s.Options(nil)
			require.NoError(t, err)
			rule, err := inference.NewRule(opts)
			require.NoError(t, err)
			plausible := rule.(*inference.PlausibilityRule)
			assert.Equal(t, uint8(tt.min), plausible.LevelMin)
			assert.Equal(t, uint8(tt.max), plausible.LevelMax)
		})
	}
}

func TestLoadSettingsDefaultSpacePerMode(t *testing.T) {
	useViper(t, nil)

	s, err := LoadSettings(inference.ModePlausibility)
	require.NoError(t, err)
	assert.Equal(t, "narrow", s.Space)

	s, err = LoadSettings(inference.ModeExact)
	require.NoError(t, err)
	assert.Equal(t, "broad", s.Space)
}
