// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package config

// FeatureType is the closed set of feature kinds the engine understands.
type FeatureType string

const (
	FeatureTypeID         FeatureType = "id"
	FeatureTypeTag        FeatureType = "tag"
	FeatureTypeRaw        FeatureType = "raw"
	FeatureTypeCombo      FeatureType = "combo"
	FeatureTypeLookup     FeatureType = "lookup"
	FeatureTypeSequence   FeatureType = "sequence"
	FeatureTypeExpression FeatureType = "expression"
)

// Valid reports whether t names a known feature type.
func (t FeatureType) Valid() bool {
	switch t {
	case FeatureTypeID, FeatureTypeTag, FeatureTypeRaw, FeatureTypeCombo,
		FeatureTypeLookup, FeatureTypeSequence, FeatureTypeExpression:
		return true
	default:
		return false
	}
}

// WideOrDeep assigns a feature to the scoring paths it feeds.
type WideOrDeep string

const (
	Wide        WideOrDeep = "wide"
	Deep        WideOrDeep = "deep"
	WideAndDeep WideOrDeep = "wide_and_deep"
)

// IsWide reports whether the assignment feeds the wide path.
func (w WideOrDeep) IsWide() bool { return w == Wide || w == WideAndDeep }

// IsDeep reports whether the assignment feeds the deep path.
func (w WideOrDeep) IsDeep() bool { return w == Deep || w == WideAndDeep }

// FeatureConfig describes one feature of the catalogue. Loaded once,
// validated, then read-only.
type FeatureConfig struct {
	// FeatureName is the output name; empty falls back to InputNames[0].
	FeatureName string `koanf:"feature_name" json:"feature_name,omitempty"`

	// Type selects the processing pipeline.
	Type FeatureType `koanf:"feature_type" json:"feature_type" validate:"required"`

	// InputNames are the raw batch fields this feature consumes, in order.
	InputNames []string `koanf:"input_names" json:"input_names" validate:"required,min=1,dive,required"`

	// Categorical parameters. At most one strategy applies; priority is
	// hash bucket > vocab list > vocab file > identity.
	HashBucketSize int64    `koanf:"hash_bucket_size" json:"hash_bucket_size,omitempty" validate:"min=0"`
	VocabList      []string `koanf:"vocab_list" json:"vocab_list,omitempty"`
	VocabFile      string   `koanf:"vocab_file" json:"vocab_file,omitempty"`
	NumBuckets     int64    `koanf:"num_buckets" json:"num_buckets,omitempty" validate:"min=0"`

	// Numeric parameters.
	RawInputDim int64     `koanf:"raw_input_dim" json:"raw_input_dim,omitempty" validate:"min=0"`
	Boundaries  []float64 `koanf:"boundaries" json:"boundaries,omitempty"`
	MinVal      float64   `koanf:"min_val" json:"min_val,omitempty"`
	MaxVal      float64   `koanf:"max_val" json:"max_val,omitempty"`
	// Precision is the number of decimal digits used when a floating
	// field must be rendered as a string for hashing. Zero means unset,
	// which is an error for floating inputs.
	Precision int `koanf:"precision" json:"precision,omitempty" validate:"min=0"`

	// Sequence parameters.
	SubType        FeatureType `koanf:"sub_feature_type" json:"sub_feature_type,omitempty"`
	SequenceLength int64       `koanf:"sequence_length" json:"sequence_length,omitempty" validate:"min=0"`
	SeqMultiSep    string      `koanf:"seq_multi_sep" json:"seq_multi_sep,omitempty"`

	// Separators.
	Separator   string `koanf:"separator" json:"separator,omitempty"`
	KVSeparator string `koanf:"kv_separator" json:"kv_separator,omitempty"`

	// Embedding parameters.
	EmbeddingName string `koanf:"embedding_name" json:"embedding_name,omitempty"`
	EmbeddingDim  int64  `koanf:"embedding_dim" json:"embedding_dim,omitempty" validate:"min=0"`
	Combiner      string `koanf:"combiner" json:"combiner,omitempty"`
	Initializer   string `koanf:"initializer" json:"initializer,omitempty"`
	MaxPartitions int    `koanf:"max_partitions" json:"max_partitions,omitempty" validate:"min=0"`

	// Lookup parameters.
	LookupMaxSelElemNum int64 `koanf:"lookup_max_sel_elem_num" json:"lookup_max_sel_elem_num,omitempty" validate:"min=0"`

	// Expression formula over InputNames (expression features only).
	Expression string `koanf:"expression" json:"expression,omitempty"`
}

// Name returns the feature's output name: FeatureName when set, the
// first input name otherwise.
func (c *FeatureConfig) Name() string {
	if c.FeatureName != "" {
		return c.FeatureName
	}
	return c.InputNames[0]
}

// LabelConfig describes one label field.
type LabelConfig struct {
	Field     string `koanf:"field" json:"field" validate:"required"`
	Dim       int64  `koanf:"dim" json:"dim,omitempty" validate:"min=0"`
	Separator string `koanf:"separator" json:"separator,omitempty"`
}

// Catalogue is the full feature-definition catalogue plus the wide/deep
// assignment map.
type Catalogue struct {
	Features []FeatureConfig `koanf:"features" json:"features" validate:"required,min=1,dive"`
	Labels   []LabelConfig   `koanf:"labels" json:"labels,omitempty" validate:"dive"`

	// SampleWeight names the per-example weight field, when present.
	SampleWeight string `koanf:"sample_weight" json:"sample_weight,omitempty"`

	// WideOutputDim is the output dimension all wide columns share.
	WideOutputDim int64 `koanf:"wide_output_dim" json:"wide_output_dim,omitempty"`

	// WideDeep maps feature names to the scoring paths they feed.
	// Features absent from the map are skipped by the registry.
	WideDeep map[string]WideOrDeep `koanf:"wide_deep" json:"wide_deep,omitempty"`
}

// VocabFiles returns the distinct vocabulary file paths the catalogue
// references, for eager cache preloading.
func (c *Catalogue) VocabFiles() []string {
	seen := make(map[string]struct{})
	var paths []string
	for i := range c.Features {
		p := c.Features[i].VocabFile
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	return paths
}
