package models

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// File is the YAML document that extends the built-in alias table.
//
//	default: gemini
//	models:
//	  - alias: gpt-5-nano
//	    model: openai/gpt-5-nano
//	    synonyms: [5-nano]
type File struct {
	Default string  `yaml:"default"`
	Models  []Entry `yaml:"models"`
}

// LoadFile reads and decodes a models file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse models file %s: %w", path, err)
	}
	return &f, nil
}

// Load builds a Registry from the built-in table, overlaid by the models
// file at path when path is non-empty. defaultAlias, when set, wins over
// the file's default.
func Load(path, defaultAlias string) (*Registry, error) {
	entries := slices.Clone(Builtin)
	def := DefaultAlias

	if path != "" {
		f, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, f.Models...)
		if f.Default != "" {
			def = f.Default
		}
	}

	if defaultAlias != "" {
		def = defaultAlias
	}

	return New(entries, def)
}
