// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides of catalogue scalars:
// FEATFORGE_SAMPLE_WEIGHT -> sample_weight,
// FEATFORGE_WIDE_OUTPUT_DIM -> wide_output_dim.
const EnvPrefix = "FEATFORGE_"

// defaultCatalogue returns the defaults applied under file and env layers.
func defaultCatalogue() *Catalogue {
	return &Catalogue{
		WideOutputDim: -1,
	}
}

// Load reads, validates, and normalizes a catalogue file. YAML and JSON
// are supported, chosen by file extension. The returned catalogue is
// frozen: callers must not mutate it.
func Load(path string) (*Catalogue, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct.
	if err := k.Load(structs.Provider(defaultCatalogue(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	// Layer 2: catalogue file. JSON goes through a plain map so only the
	// keys present in the file override the defaults layer.
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read catalogue %s: %w", path, err)
		}
		var fromJSON map[string]any
		if err := json.Unmarshal(raw, &fromJSON); err != nil {
			return nil, fmt.Errorf("config: parse catalogue %s: %w", path, err)
		}
		if err := k.Load(confmap.Provider(fromJSON, "."), nil); err != nil {
			return nil, fmt.Errorf("config: load catalogue %s: %w", path, err)
		}
	default:
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load catalogue %s: %w", path, err)
		}
	}

	// Layer 3: environment overrides (highest priority).
	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment overrides: %w", err)
	}

	cat := &Catalogue{}
	if err := k.Unmarshal("", cat); err != nil {
		return nil, fmt.Errorf("config: unmarshal catalogue: %w", err)
	}

	cat.normalize()
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// normalize applies per-feature defaults the file may omit.
func (c *Catalogue) normalize() {
	for i := range c.Features {
		fc := &c.Features[i]
		if fc.Separator == "" {
			fc.Separator = ","
		}
		if fc.RawInputDim < 1 {
			fc.RawInputDim = 1
		}
		if fc.Combiner == "" {
			fc.Combiner = "mean"
		}
		if fc.Type == FeatureTypeLookup && fc.LookupMaxSelElemNum < 1 {
			fc.LookupMaxSelElemNum = 10
		}
	}
	for i := range c.Labels {
		if c.Labels[i].Dim < 1 {
			c.Labels[i].Dim = 1
		}
		if c.Labels[i].Separator == "" {
			c.Labels[i].Separator = ","
		}
	}
}
