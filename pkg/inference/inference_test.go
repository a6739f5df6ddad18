/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inference_test.go
Description: End-to-end tests for the inference engine over pairs of synthetic snapshots.
*/

package inference_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kleascm/stridefinder/pkg/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRelocatedParty(t *testing.T) {
	engine, err := inference.NewEngine(inference.Options{
		Mode:  inference.ModePlausibility,
		Bands: inference.GenerationBands(),
		Space: singleLayout(),
	}, nil)
	require.NoError(t, err)

	a := snapshotWith("dump1", 8192, 1000, plausibleParty())
	b := snapshotWith("dump2", 8192, 3000, plausibleParty())

	result, err := engine.Infer(context.Background(), a, b)
	require.NoError(t, err)

	require.Len(t, result.A.Candidates, 1)
	require.Len(t, result.B.Candidates, 1)
	assert.Equal(t, uint(1000), result.A.Candidates[0].Offset)
	assert.Equal(t, uint(3000), result.B.Candidates[0].Offset)

	assert.Equal(t, inference.OutcomeDynamic, result.Consistency.Outcome)
	assert.Empty(t, result.Consistency.StableAddresses)
	assert.Equal(t, int64(2000), result.Consistency.Difference)
}

func TestEngineStaticParty(t *testing.T) {
	engine, err := inference.NewEngine(inference.Options{
		Mode:      inference.ModeExact,
		Reference: groundTruth,
		Space:     inference.DefaultBroadSpace(),
		Workers:   4,
	}, nil)
	require.NoError(t, err)

	a := snapshotWith("dump1", 8192, 2400, groundTruth)
	b := snapshotWith("dump2", 8192, 2400, groundTruth)

	result, err := engine.Infer(context.Background(), a, b)
	require.NoError(t, err)

	assert.Equal(t, inference.OutcomeStable, result.Consistency.Outcome)
	assert.Contains(t, result.Consistency.StableAddresses, uint64(testBase+2400))
	assert.Equal(t, 48, result.A.ConfigsTried)
}

func TestEngineMissingParty(t *testing.T) {
	engine, err := inference.NewEngine(inference.Options{
		Mode:      inference.ModeExact,
		Reference: groundTruth,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "narrow", engine.Space().Name())

	a := snapshotWith("dump1", 4096, 1000, groundTruth)
	b := inference.Snapshot{Name: "dump2", Data: make([]byte, 4096), BaseAddress: testBase}

	result, err := engine.Infer(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, inference.OutcomeInconclusive, result.Consistency.Outcome)
	assert.NotEmpty(t, result.Consistency.AddressesA)
	assert.Empty(t, result.Consistency.AddressesB)
}

func TestNewEngineRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts inference.Options
	}{
		{"unknown mode", inference.Options{Mode: "fuzzy"}},
		{"exact without reference", inference.Options{Mode: inference.ModeExact}},
		{"short reference", inference.Options{Mode: inference.ModeExact, Reference: groundTruth[:4]}},
		{"no bands", inference.Options{Mode: inference.ModePlausibility}},
		{"bad threshold", inference.Options{Mode: inference.ModePlausibility, Bands: inference.GenerationBands(), MinMatches: 9}},
		{"bad layout", inference.Options{
			Mode:  inference.ModePlausibility,
			Bands: inference.GenerationBands(),
			Space: inference.NewNarrowSpace(inference.Config{Stride: 8, SpeciesOffset: 0x28}),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inference.NewEngine(tt.opts, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewEngineAppliesOptions(t *testing.T) {
	engine, err := inference.NewEngine(inference.Options{
		Mode:       inference.ModePlausibility,
		Bands:      inference.GenerationBands(),
		LevelMin:   5,
		LevelMax:   60,
		Alignment:  8,
		MinMatches: 4,
		Workers:    2,
	}, nil)
	require.NoError(t, err)

	rule, ok := engine.Rule().(*inference.PlausibilityRule)
	require.True(t, ok)
	assert.Equal(t, uint8(5), rule.LevelMin)
	assert.Equal(t, uint8(60), rule.LevelMax)
	assert.Equal(t, uint(8), engine.Scanner().Alignment)
	assert.Equal(t, 4, engine.Scanner().MinMatches)
	assert.Equal(t, 6, engine.Scanner().RunLength)
	assert.Equal(t, 2, engine.Scanner().Workers)
}

func TestInferenceEncodesOutcomeByName(t *testing.T) {
	report := inference.CheckConsistency(aggregateAt(1), aggregateAt(2))

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outcome":"dynamic"`)
	assert.Contains(t, string(data), `"difference":1`)
}
