// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package columns

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/featforge/featforge/internal/config"
	"github.com/featforge/featforge/internal/encoder"
	"github.com/featforge/featforge/internal/logging"
	"github.com/featforge/featforge/internal/metrics"
)

// Builder resolves a catalogue into a Registry.
type Builder struct {
	vocab  *encoder.VocabCache
	logger zerolog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger replaces the default component logger.
func WithLogger(logger zerolog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a Builder. The vocabulary cache is used to size
// tables for vocab-file features and may be shared with the
// preprocessor.
func NewBuilder(vocab *encoder.VocabCache, opts ...BuilderOption) *Builder {
	b := &Builder{
		vocab:  vocab,
		logger: logging.With().Str("component", "columns").Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build classifies every catalogue feature and resolves its lookup
// table. Shared-embedding parameter mismatches are fatal; features
// absent from the wide/deep map are skipped with a warning.
func (b *Builder) Build(cat *config.Catalogue) (*Registry, error) {
	if err := checkSharedGroups(cat); err != nil {
		return nil, err
	}

	r := &Registry{
		wide:          make(map[string]*Column),
		deep:          make(map[string]*Column),
		sequence:      make(map[string]*Column),
		shared:        make(map[string]*Table),
		wideOutputDim: cat.WideOutputDim,
	}

	// Count members per embedding_name, separately per side: the deep
	// and wide paths form independent sharing groups, and singleton
	// groups degrade to private tables. Skipped features do not count.
	deepMembers := make(map[string]int)
	wideMembers := make(map[string]int)
	for i := range cat.Features {
		fc := &cat.Features[i]
		if fc.EmbeddingName == "" {
			continue
		}
		wd, ok := cat.WideDeep[fc.Name()]
		if !ok {
			continue
		}
		if fc.Type == config.FeatureTypeSequence || wd.IsDeep() {
			deepMembers[fc.EmbeddingName]++
		}
		if fc.Type != config.FeatureTypeSequence && wd.IsWide() {
			wideMembers[fc.EmbeddingName]++
		}
	}

	for i := range cat.Features {
		fc := &cat.Features[i]
		name := fc.Name()

		wd, ok := cat.WideDeep[name]
		if !ok {
			metrics.FeaturesSkipped.Inc()
			b.logger.Warn().Err(skipError(name)).Str("feature", name).Msg("Skipping unconfigured feature")
			continue
		}

		size, err := b.vocabSize(fc)
		if err != nil {
			return nil, err
		}

		if fc.Type == config.FeatureTypeSequence {
			table, err := b.resolveTable(r, fc, name, size, deepMembers)
			if err != nil {
				return nil, err
			}
			r.sequence[name] = &Column{
				FeatureName:    name,
				Table:          table,
				SequenceLength: fc.SequenceLength,
			}
			continue
		}

		if wd.IsDeep() {
			table, err := b.resolveTable(r, fc, name, size, deepMembers)
			if err != nil {
				return nil, err
			}
			r.deep[name] = &Column{FeatureName: name, Table: table}
		}
		if wd.IsWide() {
			if cat.WideOutputDim < 1 {
				return nil, fmt.Errorf("columns: feature %s is wide but wide_output_dim is unset", name)
			}
			r.wide[name] = &Column{
				FeatureName: name,
				Table:       b.resolveWideTable(r, fc, name, size, wideMembers, cat.WideOutputDim),
			}
		}
	}

	metrics.SetRegistrySizes(len(r.wide), len(r.deep), len(r.sequence), len(r.shared))
	b.logger.Info().
		Int("wide", len(r.wide)).
		Int("deep", len(r.deep)).
		Int("sequence", len(r.sequence)).
		Int("shared_groups", len(r.shared)).
		Msg("Column registry built")
	return r, nil
}

// resolveTable returns the feature's deep/sequence lookup table, joining
// a shared group when the embedding_name has more than one member.
func (b *Builder) resolveTable(r *Registry, fc *config.FeatureConfig, name string, size int64, members map[string]int) (*Table, error) {
	info := embeddingInfoOf(fc)
	if info.Dim <= 0 {
		return nil, fmt.Errorf("columns: feature %s needs embedding_dim", name)
	}
	if fc.EmbeddingName == "" || members[fc.EmbeddingName] < 2 {
		return &Table{Name: name, VocabSize: size, Info: info}, nil
	}

	table, ok := r.shared[fc.EmbeddingName]
	if !ok {
		table = &Table{Name: fc.EmbeddingName, VocabSize: size, Info: info, Shared: true}
		r.shared[fc.EmbeddingName] = table
		return table, nil
	}
	// The shared table must cover every member's id space.
	if size > table.VocabSize {
		table.VocabSize = size
	}
	return table, nil
}

// resolveWideTable returns the feature's wide lookup table. Wide tables
// all embed into the wide output space with a sum combiner; features
// sharing an embedding_name on the wide side share one table, named
// after the group with a "_wide" suffix.
func (b *Builder) resolveWideTable(r *Registry, fc *config.FeatureConfig, name string, size int64, members map[string]int, wideDim int64) *Table {
	info := EmbeddingInfo{Dim: wideDim, Combiner: "sum"}
	if fc.EmbeddingName == "" || members[fc.EmbeddingName] < 2 {
		return &Table{Name: name + "_wide", VocabSize: size, Info: info}
	}

	groupName := fc.EmbeddingName + "_wide"
	table, ok := r.shared[groupName]
	if !ok {
		table = &Table{Name: groupName, VocabSize: size, Info: info, Shared: true}
		r.shared[groupName] = table
		return table
	}
	if size > table.VocabSize {
		table.VocabSize = size
	}
	return table
}

// vocabSize computes the id-space size a feature's table must cover.
func (b *Builder) vocabSize(fc *config.FeatureConfig) (int64, error) {
	switch fc.Type {
	case config.FeatureTypeRaw, config.FeatureTypeExpression:
		return b.rawVocabSize(fc, fc.RawInputDim)
	case config.FeatureTypeSequence:
		if fc.SubType == config.FeatureTypeRaw {
			return b.rawVocabSize(fc, fc.SequenceLength)
		}
	}
	return b.categoricalVocabSize(fc)
}

// rawVocabSize sizes numeric features: bucket count when bucketized,
// projection position count otherwise.
func (b *Builder) rawVocabSize(fc *config.FeatureConfig, positions int64) (int64, error) {
	switch {
	case len(fc.Boundaries) > 0:
		return int64(len(fc.Boundaries)) + 1, nil
	case fc.NumBuckets > 1 && fc.MaxVal > fc.MinVal:
		return fc.NumBuckets + 1, nil
	default:
		// Raw projection ids are positions within the vector.
		if positions < 1 {
			positions = 1
		}
		return positions, nil
	}
}

// categoricalVocabSize sizes a categorical feature by its encoding
// strategy. Vocabulary files are loaded (and their size cached) here.
func (b *Builder) categoricalVocabSize(fc *config.FeatureConfig) (int64, error) {
	switch encoder.StrategyFor(fc.HashBucketSize, fc.VocabList, fc.VocabFile) {
	case encoder.StrategyHash:
		return fc.HashBucketSize, nil
	case encoder.StrategyVocabList:
		return int64(len(fc.VocabList)), nil
	case encoder.StrategyVocabFile:
		size, err := b.vocab.Size(fc.VocabFile)
		if err != nil {
			return 0, fmt.Errorf("columns: feature %s: %w", fc.Name(), err)
		}
		return size, nil
	default:
		if fc.NumBuckets <= 0 {
			return 0, fmt.Errorf("columns: feature %s has no categorical strategy", fc.Name())
		}
		return fc.NumBuckets, nil
	}
}

// checkSharedGroups verifies every member of an embedding_name group
// carries character-for-character identical embedding parameters.
func checkSharedGroups(cat *config.Catalogue) error {
	seen := make(map[string]string)
	owner := make(map[string]string)
	for i := range cat.Features {
		fc := &cat.Features[i]
		if fc.EmbeddingName == "" {
			continue
		}
		canon := embeddingInfoOf(fc).canonical()
		prev, ok := seen[fc.EmbeddingName]
		if !ok {
			seen[fc.EmbeddingName] = canon
			owner[fc.EmbeddingName] = fc.Name()
			continue
		}
		if prev != canon {
			return fmt.Errorf("%w: group %s: %s has %s, %s has %s",
				ErrEmbeddingMismatch, fc.EmbeddingName,
				owner[fc.EmbeddingName], prev, fc.Name(), canon)
		}
	}
	return nil
}

// IsSkip reports whether err is the recoverable unconfigured-feature
// condition.
func IsSkip(err error) bool {
	return errors.Is(err, ErrFeatureNotConfigured)
}
