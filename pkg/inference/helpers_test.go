/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: helpers_test.go
Description: Shared fixtures for the inference tests: synthetic snapshots with record runs
written at chosen offsets.
*/

package inference_test

import (
	"encoding/binary"

	"github.com/kleascm/stridefinder/pkg/inference"
)

const testBase = 0x02000000

var (
	partyLayout = inference.Config{Stride: 104, SpeciesOffset: 0x28, LevelOffset: 0x58}

	groundTruth = []inference.Record{
		{Species: 208, Level: 44},
		{Species: 286, Level: 45},
		{Species: 143, Level: 47},
		{Species: 272, Level: 45},
		{Species: 6, Level: 41},
		{Species: 561, Level: 37},
	}
)

// writeRun places records at base using cfg
func writeRun(buf []byte, base uint, cfg inference.Config, records []inference.Record) {
	for i, r := range records {
		off := base + uint(i)*cfg.Stride
		binary.LittleEndian.PutUint16(buf[off+cfg.SpeciesOffset:], r.Species)
		buf[off+cfg.LevelOffset] = r.Level
	}
}

func snapshotWith(name string, size int, base uint, records []inference.Record) inference.Snapshot {
	data := make([]byte, size)
	writeRun(data, base, partyLayout, records)
	return inference.Snapshot{Name: name, Data: data, BaseAddress: testBase}
}

func resultAt(results []inference.ScanResult, offset uint) (inference.ScanResult, bool) {
	for _, r := range results {
		if r.Offset == offset {
			return r, true
		}
	}
	return inference.ScanResult{}, false
}

func singleLayout() inference.Space {
	return inference.NewNarrowSpace(partyLayout)
}
