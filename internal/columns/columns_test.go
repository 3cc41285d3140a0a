// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package columns

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/featforge/featforge/internal/config"
	"github.com/featforge/featforge/internal/encoder"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	return NewBuilder(encoder.NewVocabCache(zerolog.Nop()), WithLogger(zerolog.Nop()))
}

func TestBuildClassification(t *testing.T) {
	cat := &config.Catalogue{
		Features: []config.FeatureConfig{
			{Type: config.FeatureTypeID, InputNames: []string{"user_id"},
				HashBucketSize: 100000, EmbeddingDim: 16},
			{Type: config.FeatureTypeID, InputNames: []string{"item_id"},
				HashBucketSize: 50000, EmbeddingDim: 16},
			{Type: config.FeatureTypeSequence, InputNames: []string{"click_seq"},
				SubType: config.FeatureTypeID, SequenceLength: 20,
				HashBucketSize: 50000, EmbeddingDim: 16},
		},
		WideOutputDim: 4,
		WideDeep: map[string]config.WideOrDeep{
			"user_id":   config.Deep,
			"item_id":   config.WideAndDeep,
			"click_seq": config.Deep,
		},
	}
	r, err := newTestBuilder(t).Build(cat)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if _, ok := r.Deep("user_id"); !ok {
		t.Error("user_id missing from deep")
	}
	if _, ok := r.Wide("user_id"); ok {
		t.Error("user_id should not be wide")
	}

	// wide_and_deep lands in both tables.
	wide, ok := r.Wide("item_id")
	if !ok {
		t.Fatal("item_id missing from wide")
	}
	if _, ok := r.Deep("item_id"); !ok {
		t.Error("item_id missing from deep")
	}
	if wide.Table.Info.Dim != 4 {
		t.Errorf("wide dim = %d, want wide_output_dim 4", wide.Table.Info.Dim)
	}

	// Sequence features never join wide or deep.
	seq, ok := r.Sequence("click_seq")
	if !ok {
		t.Fatal("click_seq missing from sequence")
	}
	if seq.SequenceLength != 20 {
		t.Errorf("sequence length = %d, want 20", seq.SequenceLength)
	}
	if _, ok := r.Deep("click_seq"); ok {
		t.Error("sequence feature leaked into deep")
	}

	if got := r.WideCount() + r.DeepCount() + r.SequenceCount(); got != 4 {
		t.Errorf("total columns = %d, want 4", got)
	}
}

func TestBuildSharedGroupIdentity(t *testing.T) {
	cat := &config.Catalogue{
		Features: []config.FeatureConfig{
			{Type: config.FeatureTypeID, InputNames: []string{"query_cat"},
				HashBucketSize: 1000, EmbeddingName: "cat_emb", EmbeddingDim: 8, Combiner: "mean"},
			{Type: config.FeatureTypeID, InputNames: []string{"item_cat"},
				HashBucketSize: 2000, EmbeddingName: "cat_emb", EmbeddingDim: 8, Combiner: "mean"},
		},
		WideDeep: map[string]config.WideOrDeep{
			"query_cat": config.Deep,
			"item_cat":  config.Deep,
		},
	}
	r, err := newTestBuilder(t).Build(cat)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	a, _ := r.Deep("query_cat")
	b, _ := r.Deep("item_cat")
	if a.Table != b.Table {
		t.Fatal("shared group members resolved to different table objects")
	}
	if !a.Table.Shared || a.Table.Name != "cat_emb" {
		t.Errorf("shared table = %+v", a.Table)
	}
	// The table covers the largest member id space.
	if a.Table.VocabSize != 2000 {
		t.Errorf("shared vocab size = %d, want 2000", a.Table.VocabSize)
	}
	if len(r.SharedGroups()) != 1 {
		t.Errorf("shared groups = %d, want 1", len(r.SharedGroups()))
	}
}

func TestBuildWideSharedGroup(t *testing.T) {
	cat := &config.Catalogue{
		Features: []config.FeatureConfig{
			{Type: config.FeatureTypeID, InputNames: []string{"query_cat"},
				HashBucketSize: 1000, EmbeddingName: "cat_emb", EmbeddingDim: 8, Combiner: "mean"},
			{Type: config.FeatureTypeID, InputNames: []string{"item_cat"},
				HashBucketSize: 2000, EmbeddingName: "cat_emb", EmbeddingDim: 8, Combiner: "mean"},
		},
		WideOutputDim: 4,
		WideDeep: map[string]config.WideOrDeep{
			"query_cat": config.Wide,
			"item_cat":  config.Wide,
		},
	}
	r, err := newTestBuilder(t).Build(cat)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	a, _ := r.Wide("query_cat")
	b, _ := r.Wide("item_cat")
	if a.Table != b.Table {
		t.Fatal("wide group members resolved to different table objects")
	}
	if !a.Table.Shared || a.Table.Name != "cat_emb_wide" {
		t.Errorf("wide shared table = %+v", a.Table)
	}
	if a.Table.Info.Dim != 4 || a.Table.Info.Combiner != "sum" {
		t.Errorf("wide table info = %+v, want wide output dim and sum", a.Table.Info)
	}
	if a.Table.VocabSize != 2000 {
		t.Errorf("wide shared vocab size = %d, want 2000", a.Table.VocabSize)
	}
	if _, ok := r.SharedGroups()["cat_emb_wide"]; !ok {
		t.Error("wide shared group not materialized")
	}
}

func TestBuildWideAndDeepGroupsIndependent(t *testing.T) {
	cat := &config.Catalogue{
		Features: []config.FeatureConfig{
			{Type: config.FeatureTypeID, InputNames: []string{"a"},
				HashBucketSize: 1000, EmbeddingName: "emb", EmbeddingDim: 8},
			{Type: config.FeatureTypeID, InputNames: []string{"b"},
				HashBucketSize: 1000, EmbeddingName: "emb", EmbeddingDim: 8},
		},
		WideOutputDim: 4,
		WideDeep: map[string]config.WideOrDeep{
			"a": config.WideAndDeep,
			"b": config.WideAndDeep,
		},
	}
	r, err := newTestBuilder(t).Build(cat)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	deepA, _ := r.Deep("a")
	wideA, _ := r.Wide("a")
	if deepA.Table == wideA.Table {
		t.Error("deep and wide sides must form independent groups")
	}
	groups := r.SharedGroups()
	if _, ok := groups["emb"]; !ok {
		t.Error("deep group missing")
	}
	if _, ok := groups["emb_wide"]; !ok {
		t.Error("wide group missing")
	}
}

func TestBuildWideOutputDimUnsetFatal(t *testing.T) {
	cat := &config.Catalogue{
		Features: []config.FeatureConfig{
			{Type: config.FeatureTypeID, InputNames: []string{"x"}, HashBucketSize: 100},
		},
		WideOutputDim: -1,
		WideDeep:      map[string]config.WideOrDeep{"x": config.Wide},
	}
	if _, err := newTestBuilder(t).Build(cat); err == nil {
		t.Fatal("Build() = nil error for wide column without wide_output_dim")
	}
}

func TestBuildSharedGroupMismatchFatal(t *testing.T) {
	cat := &config.Catalogue{
		Features: []config.FeatureConfig{
			{Type: config.FeatureTypeID, InputNames: []string{"a"},
				HashBucketSize: 1000, EmbeddingName: "shared", EmbeddingDim: 8, Combiner: "mean"},
			{Type: config.FeatureTypeID, InputNames: []string{"b"},
				HashBucketSize: 1000, EmbeddingName: "shared", EmbeddingDim: 16, Combiner: "mean"},
		},
		WideDeep: map[string]config.WideOrDeep{"a": config.Deep, "b": config.Deep},
	}
	if _, err := newTestBuilder(t).Build(cat); !errors.Is(err, ErrEmbeddingMismatch) {
		t.Fatalf("Build() error = %v, want embedding mismatch", err)
	}
}

func TestBuildSingletonGroupDegrades(t *testing.T) {
	cat := &config.Catalogue{
		Features: []config.FeatureConfig{
			{Type: config.FeatureTypeID, InputNames: []string{"solo"},
				HashBucketSize: 1000, EmbeddingName: "lonely", EmbeddingDim: 8},
		},
		WideDeep: map[string]config.WideOrDeep{"solo": config.Deep},
	}
	r, err := newTestBuilder(t).Build(cat)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	c, _ := r.Deep("solo")
	if c.Table.Shared {
		t.Error("singleton group did not degrade to a private table")
	}
	if len(r.SharedGroups()) != 0 {
		t.Errorf("shared groups = %d, want 0", len(r.SharedGroups()))
	}
}

func TestBuildSkipsUnconfiguredFeature(t *testing.T) {
	cat := &config.Catalogue{
		Features: []config.FeatureConfig{
			{Type: config.FeatureTypeID, InputNames: []string{"kept"},
				HashBucketSize: 100, EmbeddingDim: 8},
			{Type: config.FeatureTypeID, InputNames: []string{"orphan"},
				HashBucketSize: 100, EmbeddingDim: 8},
		},
		WideDeep: map[string]config.WideOrDeep{"kept": config.Deep},
	}
	r, err := newTestBuilder(t).Build(cat)
	if err != nil {
		t.Fatalf("Build() error = %v, skip must be recoverable", err)
	}
	if _, ok := r.Deep("kept"); !ok {
		t.Error("kept feature missing")
	}
	if _, ok := r.Deep("orphan"); ok {
		t.Error("orphan feature should be skipped")
	}
	if !IsSkip(skipError("orphan")) {
		t.Error("IsSkip() does not recognize the skip condition")
	}
}

func TestBuildMissingEmbeddingDim(t *testing.T) {
	cat := &config.Catalogue{
		Features: []config.FeatureConfig{
			{Type: config.FeatureTypeID, InputNames: []string{"x"}, HashBucketSize: 100},
		},
		WideDeep: map[string]config.WideOrDeep{"x": config.Deep},
	}
	if _, err := newTestBuilder(t).Build(cat); err == nil {
		t.Fatal("Build() = nil error for deep column without embedding_dim")
	}
}

func TestVocabSizes(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "cities.txt")
	if err := os.WriteFile(vocabPath, []byte("nyc\nsf\nla\n"), 0o600); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	b := newTestBuilder(t)

	tests := []struct {
		name string
		fc   config.FeatureConfig
		want int64
	}{
		{
			name: "hash bucket",
			fc:   config.FeatureConfig{Type: config.FeatureTypeID, InputNames: []string{"a"}, HashBucketSize: 500},
			want: 500,
		},
		{
			name: "vocab list",
			fc:   config.FeatureConfig{Type: config.FeatureTypeID, InputNames: []string{"b"}, VocabList: []string{"x", "y"}},
			want: 2,
		},
		{
			name: "vocab file",
			fc:   config.FeatureConfig{Type: config.FeatureTypeID, InputNames: []string{"c"}, VocabFile: vocabPath},
			want: 3,
		},
		{
			name: "identity",
			fc:   config.FeatureConfig{Type: config.FeatureTypeID, InputNames: []string{"d"}, NumBuckets: 50},
			want: 50,
		},
		{
			name: "raw boundaries",
			fc: config.FeatureConfig{Type: config.FeatureTypeRaw, InputNames: []string{"e"},
				Boundaries: []float64{0.2, 0.5, 0.8}},
			want: 4,
		},
		{
			name: "raw projection positions",
			fc:   config.FeatureConfig{Type: config.FeatureTypeRaw, InputNames: []string{"f"}, RawInputDim: 8},
			want: 8,
		},
		{
			name: "sequence raw projection",
			fc: config.FeatureConfig{Type: config.FeatureTypeSequence, InputNames: []string{"g"},
				SubType: config.FeatureTypeRaw, SequenceLength: 30},
			want: 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.vocabSize(&tt.fc)
			if err != nil {
				t.Fatalf("vocabSize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("vocabSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVocabSizeNoStrategy(t *testing.T) {
	b := newTestBuilder(t)
	fc := config.FeatureConfig{Type: config.FeatureTypeID, InputNames: []string{"x"}}
	if _, err := b.vocabSize(&fc); err == nil {
		t.Fatal("vocabSize() = nil error for feature without a strategy")
	}
}
