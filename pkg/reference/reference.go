/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reference.go
Description: Ground-truth reference data for exact-match searches. A party file lists the
expected species and level of each record in order; it can be written as YAML or JSON.
*/

package reference

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/kleascm/stridefinder/pkg/inference"
)

// Member is one expected record
type Member struct {
	Species  uint16 `yaml:"species" json:"species"`
	Level    uint8  `yaml:"level" json:"level"`
	Nickname string `yaml:"nickname,omitempty" json:"nickname,omitempty"`
}

func (m Member) String() string {
	if m.Nickname == "" {
		return fmt.Sprintf("%d/%d", m.Species, m.Level)
	}
	return fmt.Sprintf("%s(%d/%d)", m.Nickname, m.Species, m.Level)
}

// Party is an ordered reference sequence
type Party struct {
	Name    string   `yaml:"name" json:"name"`
	Members []Member `yaml:"members" json:"members"`
}

// Quetzal returns the party captured in the Quetzal ROM hack savestates
func Quetzal() *Party {
	return &Party{
		Name: "quetzal",
		Members: []Member{
			{Species: 208, Level: 44, Nickname: "Steelix"},
			{Species: 286, Level: 45, Nickname: "Breloom"},
			{Species: 143, Level: 47, Nickname: "Snorlax"},
			{Species: 272, Level: 45, Nickname: "Ludicolo"},
			{Species: 6, Level: 41, Nickname: "Rayquaza"},
			{Species: 561, Level: 37, Nickname: "Sigilyph"},
		},
	}
}

// Load reads a party file. JSON is a subset of YAML, so one decoder handles both.
func Load(fs afero.Fs, path string) (*Party, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}

	var party Party
	if err := yaml.Unmarshal(data, &party); err != nil {
		return nil, fmt.Errorf("failed to parse reference file %s: %w", path, err)
	}
	if party.Name == "" {
		party.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := party.Validate(); err != nil {
		return nil, err
	}
	return &party, nil
}

// Validate reports every invalid member at once
func (p *Party) Validate() error {
	if len(p.Members) == 0 {
		return fmt.Errorf("reference party %q has no members", p.Name)
	}

	var result *multierror.Error
	for i, m := range p.Members {
		if m.Species == 0 {
			result = multierror.Append(result, fmt.Errorf("member %d: species must be positive", i+1))
		}
		if m.Level < inference.DefaultLevelMin || m.Level > inference.DefaultLevelMax {
			result = multierror.Append(result, fmt.Errorf("member %d: level %d outside %d-%d",
				i+1, m.Level, inference.DefaultLevelMin, inference.DefaultLevelMax))
		}
	}
	return result.ErrorOrNil()
}

// Records returns the members as the engine's reference sequence
func (p *Party) Records() []inference.Record {
	records := make([]inference.Record, len(p.Members))
	for i, m := range p.Members {
		records[i] = inference.Record{Species: m.Species, Level: m.Level}
	}
	return records
}

// Names returns member labels by position, used to annotate scan diagnostics
func (p *Party) Names() []string {
	names := make([]string, len(p.Members))
	for i, m := range p.Members {
		names[i] = m.String()
	}
	return names
}

// String lists the party the way scan logs print it
func (p *Party) String() string {
	return strings.Join(p.Names(), ", ")
}
