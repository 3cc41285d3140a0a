// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package columns

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/featforge/featforge/internal/config"
)

// ErrFeatureNotConfigured marks a feature absent from the wide/deep
// assignment map. It is recoverable: the builder skips the feature and
// continues.
var ErrFeatureNotConfigured = errors.New("columns: feature not in wide/deep map")

// ErrEmbeddingMismatch marks two members of a shared-embedding group
// whose embedding parameters differ. It is fatal at build time, before
// any batch is processed.
var ErrEmbeddingMismatch = errors.New("columns: shared embedding parameters differ")

// EmbeddingInfo is the parameter tuple every member of a shared group
// must agree on exactly.
type EmbeddingInfo struct {
	Dim           int64  `json:"embedding_dim"`
	Combiner      string `json:"combiner"`
	Initializer   string `json:"initializer,omitempty"`
	MaxPartitions int    `json:"max_partitions,omitempty"`
}

// canonical renders the info in a stable form for exact comparison.
func (e EmbeddingInfo) canonical() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Table is one resolved lookup-table descriptor. Features in the same
// shared-embedding group hold the same *Table, so pointer identity is
// group identity.
type Table struct {
	// Name is the table's identity: the group's embedding_name for shared
	// tables, the feature name otherwise.
	Name string `json:"name"`

	// VocabSize is the id-space size the table must cover.
	VocabSize int64 `json:"vocab_size"`

	Info EmbeddingInfo `json:"info"`

	// Shared reports whether more than one feature resolves to this table.
	Shared bool `json:"shared,omitempty"`
}

// Column is one classified feature with its resolved table.
type Column struct {
	FeatureName string `json:"feature_name"`
	Table       *Table `json:"table"`

	// SequenceLength is set for sequence columns only.
	SequenceLength int64 `json:"sequence_length,omitempty"`
}

// Registry holds the three resolved column tables. It is built once and
// read-only afterwards.
type Registry struct {
	wide     map[string]*Column
	deep     map[string]*Column
	sequence map[string]*Column
	shared   map[string]*Table

	wideOutputDim int64
}

// Wide returns the wide column for a feature name.
func (r *Registry) Wide(name string) (*Column, bool) {
	c, ok := r.wide[name]
	return c, ok
}

// Deep returns the deep column for a feature name.
func (r *Registry) Deep(name string) (*Column, bool) {
	c, ok := r.deep[name]
	return c, ok
}

// Sequence returns the sequence column for a feature name.
func (r *Registry) Sequence(name string) (*Column, bool) {
	c, ok := r.sequence[name]
	return c, ok
}

// WideCount returns the number of wide columns.
func (r *Registry) WideCount() int { return len(r.wide) }

// DeepCount returns the number of deep columns.
func (r *Registry) DeepCount() int { return len(r.deep) }

// SequenceCount returns the number of sequence columns.
func (r *Registry) SequenceCount() int { return len(r.sequence) }

// SharedGroups returns the materialized shared tables: deep-side groups
// keyed by embedding_name, wide-side groups keyed by embedding_name plus
// a "_wide" suffix. Singleton groups are not included; they degraded to
// private tables.
func (r *Registry) SharedGroups() map[string]*Table {
	out := make(map[string]*Table, len(r.shared))
	for k, v := range r.shared {
		out[k] = v
	}
	return out
}

// WideOutputDim returns the output dimension all wide columns share.
func (r *Registry) WideOutputDim() int64 { return r.wideOutputDim }

// MarshalJSON renders the registry's three tables for inspection.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Wide     map[string]*Column `json:"wide,omitempty"`
		Deep     map[string]*Column `json:"deep,omitempty"`
		Sequence map[string]*Column `json:"sequence,omitempty"`
		Shared   map[string]*Table  `json:"shared,omitempty"`
	}{r.wide, r.deep, r.sequence, r.shared})
}

// embeddingInfoOf extracts the comparable parameter tuple of a feature.
func embeddingInfoOf(fc *config.FeatureConfig) EmbeddingInfo {
	return EmbeddingInfo{
		Dim:           fc.EmbeddingDim,
		Combiner:      fc.Combiner,
		Initializer:   fc.Initializer,
		MaxPartitions: fc.MaxPartitions,
	}
}

// skipError wraps ErrFeatureNotConfigured with the feature name.
func skipError(name string) error {
	return fmt.Errorf("%w: %s", ErrFeatureNotConfigured, name)
}
