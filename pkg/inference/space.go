/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: space.go
Description: Field-offset configuration space. A Config is one candidate record layout;
a Space lazily enumerates the layouts to try, either from a hand-picked list or as the full
cross product of candidate strides and field offsets.
*/

package inference

import (
	"fmt"
	"iter"

	"github.com/hashicorp/go-multierror"
)

// Config is a candidate record layout: the record size and the offsets of the two
// inspected fields inside one record.
type Config struct {
	Stride        uint `json:"stride" mapstructure:"stride"`
	SpeciesOffset uint `json:"species_offset" mapstructure:"species_offset"`
	LevelOffset   uint `json:"level_offset" mapstructure:"level_offset"`
}

// Span returns how many bytes from the start of a record are needed to decode it
func (c Config) Span() uint {
	return max(c.SpeciesOffset+SpeciesWidth, c.LevelOffset+LevelWidth)
}

// Validate rejects layouts that cannot describe a record. Each field must lie wholly
// inside the stride, so a species field starting on the last byte is rejected too.
func (c Config) Validate() error {
	if c.Stride == 0 {
		return fmt.Errorf("%w: stride must be positive (%s)", ErrInvalidConfiguration, c)
	}
	if c.SpeciesOffset+SpeciesWidth > c.Stride {
		return fmt.Errorf("%w: species field at 0x%02X does not fit in stride %d", ErrInvalidConfiguration, c.SpeciesOffset, c.Stride)
	}
	if c.LevelOffset+LevelWidth > c.Stride {
		return fmt.Errorf("%w: level field at 0x%02X does not fit in stride %d", ErrInvalidConfiguration, c.LevelOffset, c.Stride)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("stride=%d species=0x%02X level=0x%02X", c.Stride, c.SpeciesOffset, c.LevelOffset)
}

// Space enumerates candidate layouts. Enumeration is finite, deterministic and lazy,
// so a caller can stop pulling configurations at any point.
type Space interface {
	Configs() iter.Seq[Config]
	Len() int
	Name() string
}

// NarrowSpace is an explicit, ordered list of layouts
type NarrowSpace struct {
	List []Config
}

// NewNarrowSpace creates a space over the given layouts in the given order
func NewNarrowSpace(configs ...Config) *NarrowSpace {
	return &NarrowSpace{List: configs}
}

// Configs yields the layouts in list order
func (s *NarrowSpace) Configs() iter.Seq[Config] {
	return func(yield func(Config) bool) {
		for _, c := range s.List {
			if !yield(c) {
				return
			}
		}
	}
}

// Len returns the number of layouts in the list
func (s *NarrowSpace) Len() int { return len(s.List) }

// Name identifies the policy in logs and reports
func (s *NarrowSpace) Name() string { return "narrow" }

// BroadSpace is the cross product of candidate strides, species offsets and level offsets.
// Strides vary slowest and level offsets fastest.
type BroadSpace struct {
	Strides        []uint
	SpeciesOffsets []uint
	LevelOffsets   []uint
}

// Configs yields every combination in stride, species, level order
func (s *BroadSpace) Configs() iter.Seq[Config] {
	return func(yield func(Config) bool) {
		for _, stride := range s.Strides {
			for _, species := range s.SpeciesOffsets {
				for _, level := range s.LevelOffsets {
					if !yield(Config{Stride: stride, SpeciesOffset: species, LevelOffset: level}) {
						return
					}
				}
			}
		}
	}
}

// Len returns the size of the cross product
func (s *BroadSpace) Len() int {
	return len(s.Strides) * len(s.SpeciesOffsets) * len(s.LevelOffsets)
}

// Name identifies the policy in logs and reports
func (s *BroadSpace) Name() string { return "broad" }

// DefaultNarrowSpace returns the hand-picked layouts around a 104-byte record
func DefaultNarrowSpace() *NarrowSpace {
	return NewNarrowSpace(
		Config{Stride: 104, SpeciesOffset: 0x28, LevelOffset: 0x58},
		Config{Stride: 104, SpeciesOffset: 0x2C, LevelOffset: 0x5C},
		Config{Stride: 104, SpeciesOffset: 0x30, LevelOffset: 0x60},
	)
}

// DefaultBroadSpace returns the cross product searched when nothing is known about the layout
func DefaultBroadSpace() *BroadSpace {
	return &BroadSpace{
		Strides:        []uint{100, 104, 108},
		SpeciesOffsets: []uint{0x20, 0x28, 0x2C, 0x30},
		LevelOffsets:   []uint{0x54, 0x58, 0x5C, 0x60},
	}
}

// ValidateSpace checks every layout of a space and reports all invalid ones at once
func ValidateSpace(space Space) error {
	if space == nil || space.Len() == 0 {
		return fmt.Errorf("%w: configuration space is empty", ErrInvalidConfiguration)
	}

	var result *multierror.Error
	for c := range space.Configs() {
		if err := c.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
