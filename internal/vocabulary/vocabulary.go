// Package vocabulary holds the keyword sets that steer the query pipeline.
// The sets are data: a built-in YAML document is embedded and can be
// replaced by a file at startup.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var builtin []byte

// Vocabulary is the set of keyword lists used by the guard and the normalizer.
type Vocabulary struct {
	DomainKeywords        []string            `yaml:"domain_keywords"`
	ListingKeywords       []string            `yaml:"listing_keywords"`
	VagueProximityPhrases []string            `yaml:"vague_proximity_phrases"`
	PlaceCategories       map[string][]string `yaml:"place_categories"`
}

// Default returns the embedded vocabulary. It panics only if the embedded
// document is broken, which the package tests guard against.
func Default() *Vocabulary {
	v, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("vocabulary: embedded document is invalid: %v", err))
	}
	return v
}

// Load reads a vocabulary from path. An empty path yields Default().
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Validate rejects vocabularies that would silently disable a pipeline step.
func (v *Vocabulary) Validate() error {
	if len(v.DomainKeywords) == 0 {
		return fmt.Errorf("vocabulary: domain_keywords must not be empty")
	}
	if len(v.ListingKeywords) == 0 {
		return fmt.Errorf("vocabulary: listing_keywords must not be empty")
	}
	if len(v.VagueProximityPhrases) == 0 {
		return fmt.Errorf("vocabulary: vague_proximity_phrases must not be empty")
	}
	if len(v.PlaceCategories) == 0 {
		return fmt.Errorf("vocabulary: place_categories must not be empty")
	}
	return nil
}
