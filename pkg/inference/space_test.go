/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: space_test.go
Description: Tests for layout validation and configuration space enumeration.
*/

package inference_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/kleascm/stridefinder/pkg/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   inference.Config
		valid bool
	}{
		{"party layout", partyLayout, true},
		{"zero stride", inference.Config{Stride: 0}, false},
		{"species at the end", inference.Config{Stride: 104, SpeciesOffset: 102, LevelOffset: 0}, true},
		{"species straddling the stride", inference.Config{Stride: 104, SpeciesOffset: 103, LevelOffset: 0}, false},
		{"species past stride", inference.Config{Stride: 104, SpeciesOffset: 104, LevelOffset: 0}, false},
		{"level at the end", inference.Config{Stride: 104, SpeciesOffset: 0, LevelOffset: 103}, true},
		{"level past stride", inference.Config{Stride: 104, SpeciesOffset: 0, LevelOffset: 104}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, inference.ErrInvalidConfiguration))
				if tt.cfg.Stride > 0 {
					assert.Contains(t, err.Error(), "does not fit in stride")
				}
			}
		})
	}
}

func TestConfigSpan(t *testing.T) {
	assert.Equal(t, uint(0x59), partyLayout.Span())
	assert.Equal(t, uint(0x32), inference.Config{Stride: 64, SpeciesOffset: 0x30, LevelOffset: 0x10}.Span())
}

func TestNarrowSpaceOrder(t *testing.T) {
	space := inference.DefaultNarrowSpace()
	configs := slices.Collect(space.Configs())

	require.Len(t, configs, 3)
	assert.Equal(t, space.Len(), len(configs))
	assert.Equal(t, partyLayout, configs[0])
	assert.Equal(t, inference.Config{Stride: 104, SpeciesOffset: 0x30, LevelOffset: 0x60}, configs[2])
	assert.Equal(t, "narrow", space.Name())
}

func TestBroadSpaceCrossProduct(t *testing.T) {
	space := inference.DefaultBroadSpace()
	configs := slices.Collect(space.Configs())

	require.Len(t, configs, 48)
	assert.Equal(t, 48, space.Len())

	// Level offsets vary fastest, strides slowest
	assert.Equal(t, inference.Config{Stride: 100, SpeciesOffset: 0x20, LevelOffset: 0x54}, configs[0])
	assert.Equal(t, inference.Config{Stride: 100, SpeciesOffset: 0x20, LevelOffset: 0x58}, configs[1])
	assert.Equal(t, inference.Config{Stride: 100, SpeciesOffset: 0x28, LevelOffset: 0x54}, configs[4])
	assert.Equal(t, inference.Config{Stride: 104, SpeciesOffset: 0x20, LevelOffset: 0x54}, configs[16])
	assert.Equal(t, inference.Config{Stride: 108, SpeciesOffset: 0x30, LevelOffset: 0x60}, configs[47])

	// Enumeration is repeatable
	assert.Equal(t, configs, slices.Collect(space.Configs()))
}

func TestSpaceStopsEarly(t *testing.T) {
	space := inference.DefaultBroadSpace()

	pulled := 0
	for range space.Configs() {
		pulled++
		if pulled == 5 {
			break
		}
	}
	assert.Equal(t, 5, pulled)
}

func TestValidateSpace(t *testing.T) {
	require.NoError(t, inference.ValidateSpace(inference.DefaultBroadSpace()))

	err := inference.ValidateSpace(inference.NewNarrowSpace())
	assert.True(t, errors.Is(err, inference.ErrInvalidConfiguration))

	bad := &inference.BroadSpace{
		Strides:        []uint{0, 64},
		SpeciesOffsets: []uint{0x20},
		LevelOffsets:   []uint{0x54},
	}
	err = inference.ValidateSpace(bad)
	require.Error(t, err)
	// zero stride, and level 0x54 does not fit in 64 bytes
	assert.True(t, errors.Is(err, inference.ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "2 errors occurred")
}
