/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: record.go
Description: Record extractor. Decodes the species and level fields of one record slot
without judging whether the values are plausible.
*/

package inference

import "encoding/binary"

// Extract decodes the record that starts at offset under the given layout.
// Species is an unsigned 16-bit little-endian value and level a single byte.
func Extract(buf []byte, offset uint, cfg Config) (Record, error) {
	if offset+cfg.Span() > uint(len(buf)) {
		return Record{}, ErrOutOfBounds
	}

	species := offset + cfg.SpeciesOffset
	return Record{
		Species: binary.LittleEndian.Uint16(buf[species : species+SpeciesWidth]),
		Level:   buf[offset+cfg.LevelOffset],
	}, nil
}
