// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeCatalogue(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalogue: %v", err)
	}
	return path
}

const yamlCatalogue = `
features:
  - feature_type: id
    input_names: [user_id]
    hash_bucket_size: 100000
    embedding_dim: 16
  - feature_type: tag
    input_names: [genres]
    separator: "|"
    hash_bucket_size: 1000
    embedding_dim: 8
    embedding_name: genre_emb
  - feature_type: raw
    input_names: [age]
    boundaries: [50, 18, 30]
labels:
  - field: clicked
sample_weight: weight
wide_output_dim: 4
wide_deep:
  user_id: deep
  genres: wide_and_deep
  age: deep
`

func TestLoadYAML(t *testing.T) {
	path := writeCatalogue(t, "catalogue.yaml", yamlCatalogue)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cat.Features) != 3 {
		t.Fatalf("features = %d, want 3", len(cat.Features))
	}
	if cat.Features[0].Name() != "user_id" {
		t.Errorf("feature 0 name = %s, want user_id", cat.Features[0].Name())
	}
	if cat.Features[1].Separator != "|" {
		t.Errorf("separator = %q, want |", cat.Features[1].Separator)
	}
	// Defaults applied by normalization.
	if cat.Features[0].Separator != "," {
		t.Errorf("default separator = %q, want ,", cat.Features[0].Separator)
	}
	if cat.Features[2].RawInputDim != 1 {
		t.Errorf("default raw_input_dim = %d, want 1", cat.Features[2].RawInputDim)
	}
	// Boundaries sorted ascending during validation.
	if !reflect.DeepEqual(cat.Features[2].Boundaries, []float64{18, 30, 50}) {
		t.Errorf("boundaries = %v, want sorted", cat.Features[2].Boundaries)
	}
	if cat.Labels[0].Dim != 1 {
		t.Errorf("label dim = %d, want 1", cat.Labels[0].Dim)
	}
	if cat.SampleWeight != "weight" {
		t.Errorf("sample_weight = %q", cat.SampleWeight)
	}
	if got := cat.WideDeep["genres"]; got != WideAndDeep {
		t.Errorf("wide_deep[genres] = %q, want wide_and_deep", got)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeCatalogue(t, "catalogue.json", `{
  "features": [
    {"feature_type": "id", "input_names": ["item_id"], "num_buckets": 500, "embedding_dim": 8}
  ],
  "wide_deep": {"item_id": "deep"}
}`)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cat.Features[0].NumBuckets != 500 {
		t.Errorf("num_buckets = %d, want 500", cat.Features[0].NumBuckets)
	}
	if cat.WideOutputDim != -1 {
		t.Errorf("default wide_output_dim = %d, want -1", cat.WideOutputDim)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeCatalogue(t, "catalogue.yaml", yamlCatalogue)
	t.Setenv("FEATFORGE_SAMPLE_WEIGHT", "importance")
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cat.SampleWeight != "importance" {
		t.Errorf("sample_weight = %q, want env override importance", cat.SampleWeight)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		cat  Catalogue
	}{
		{
			name: "no features",
			cat:  Catalogue{},
		},
		{
			name: "unknown type",
			cat: Catalogue{Features: []FeatureConfig{
				{Type: "magic", InputNames: []string{"x"}},
			}},
		},
		{
			name: "combo with one input",
			cat: Catalogue{Features: []FeatureConfig{
				{Type: FeatureTypeCombo, InputNames: []string{"x"}, HashBucketSize: 10},
			}},
		},
		{
			name: "lookup without kv separator",
			cat: Catalogue{Features: []FeatureConfig{
				{Type: FeatureTypeLookup, FeatureName: "lk", InputNames: []string{"k", "m"}, HashBucketSize: 10},
			}},
		},
		{
			name: "sequence with bad subtype",
			cat: Catalogue{Features: []FeatureConfig{
				{Type: FeatureTypeSequence, InputNames: []string{"s"}, SubType: FeatureTypeTag, SequenceLength: 5},
			}},
		},
		{
			name: "expression without formula",
			cat: Catalogue{Features: []FeatureConfig{
				{Type: FeatureTypeExpression, FeatureName: "e", InputNames: []string{"a"}},
			}},
		},
		{
			name: "duplicate feature names",
			cat: Catalogue{Features: []FeatureConfig{
				{Type: FeatureTypeID, InputNames: []string{"x"}},
				{Type: FeatureTypeRaw, InputNames: []string{"x"}},
			}},
		},
		{
			name: "bad wide_deep assignment",
			cat: Catalogue{
				Features: []FeatureConfig{{Type: FeatureTypeID, InputNames: []string{"x"}}},
				WideDeep: map[string]WideOrDeep{"x": "sideways"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cat.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestValidateErrorNamesFeature(t *testing.T) {
	cat := Catalogue{Features: []FeatureConfig{
		{Type: FeatureTypeCombo, FeatureName: "crossed", InputNames: []string{"x"}, HashBucketSize: 10},
	}}
	err := cat.Validate()
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Validate() error = %T, want *ConfigError", err)
	}
	if ce.Feature != "crossed" {
		t.Errorf("ConfigError.Feature = %q, want crossed", ce.Feature)
	}
}

func TestWideOrDeep(t *testing.T) {
	if !Wide.IsWide() || Wide.IsDeep() {
		t.Error("Wide classification wrong")
	}
	if Deep.IsWide() || !Deep.IsDeep() {
		t.Error("Deep classification wrong")
	}
	if !WideAndDeep.IsWide() || !WideAndDeep.IsDeep() {
		t.Error("WideAndDeep classification wrong")
	}
}

func TestVocabFiles(t *testing.T) {
	cat := Catalogue{Features: []FeatureConfig{
		{Type: FeatureTypeID, InputNames: []string{"a"}, VocabFile: "v1.txt"},
		{Type: FeatureTypeID, InputNames: []string{"b"}, VocabFile: "v2.txt"},
		{Type: FeatureTypeID, InputNames: []string{"c"}, VocabFile: "v1.txt"},
		{Type: FeatureTypeID, InputNames: []string{"d"}},
	}}
	got := cat.VocabFiles()
	if !reflect.DeepEqual(got, []string{"v1.txt", "v2.txt"}) {
		t.Errorf("VocabFiles() = %v", got)
	}
}
