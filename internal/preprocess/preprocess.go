// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package preprocess

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/featforge/featforge/internal/config"
	"github.com/featforge/featforge/internal/encoder"
	"github.com/featforge/featforge/internal/field"
	"github.com/featforge/featforge/internal/logging"
	"github.com/featforge/featforge/internal/metrics"
	"github.com/featforge/featforge/internal/sparse"
)

// Sampler is the optional collaborator that contributes extra
// negative/positive examples, keyed by the batch's item and user id
// columns. Columns it returns that are not already in the batch become
// appended fields.
type Sampler interface {
	Sample(itemIDs field.Value, userIDs field.Value) (map[string]field.Value, error)
}

// Preprocessor converts raw batches into canonical representations. It
// is stateless apart from the borrowed vocabulary cache and safe for
// concurrent use.
type Preprocessor struct {
	catalogue *config.Catalogue
	vocab     *encoder.VocabCache

	sampler          Sampler
	samplerItemField string
	samplerUserField string

	logger zerolog.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithSampler attaches a sampler collaborator. itemField is required;
// userField may be empty for samplers that only key on items.
func WithSampler(s Sampler, itemField, userField string) Option {
	return func(p *Preprocessor) {
		p.sampler = s
		p.samplerItemField = itemField
		p.samplerUserField = userField
	}
}

// WithLogger replaces the default component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Preprocessor) { p.logger = logger }
}

// New creates a Preprocessor over a validated catalogue. The vocabulary
// cache may be shared with the column registry so files load once.
func New(cat *config.Catalogue, vocab *encoder.VocabCache, opts ...Option) *Preprocessor {
	p := &Preprocessor{
		catalogue: cat,
		vocab:     vocab,
		logger:    logging.With().Str("component", "preprocess").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process transforms one raw batch. On any fatal parse error the whole
// batch is rejected: the returned Result is nil and no partial output
// escapes.
func (p *Preprocessor) Process(batch *field.Batch) (*Result, error) {
	start := time.Now()
	batchID := uuid.NewString()
	log := p.logger.With().Str("batch_id", batchID).Logger()

	out := &Result{
		Features: make(map[string]*Feature),
		Labels:   make(map[string]*Feature),
	}

	if err := p.applySampler(batch, &log); err != nil {
		metrics.RecordBatch(0, 0, err)
		return nil, err
	}

	for i := range p.catalogue.Features {
		fc := &p.catalogue.Features[i]
		if err := p.parseFeature(fc, batch, out); err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				metrics.RecordParseError(pe.Feature, errorType(pe.Err))
			}
			metrics.RecordBatch(0, 0, err)
			log.Error().Err(err).Str("feature", fc.Name()).Msg("Batch rejected")
			return nil, err
		}
		metrics.RecordFeature(string(fc.Type))
	}

	if err := p.parseLabels(batch, out); err != nil {
		metrics.RecordBatch(0, 0, err)
		return nil, err
	}
	if err := p.parseSampleWeight(batch, out); err != nil {
		metrics.RecordBatch(0, 0, err)
		return nil, err
	}

	// Sampler columns come first in Appended, in batch merge order.
	out.Appended = append(batch.Appended(), out.Appended...)

	examples := batchExamples(batch, p.catalogue)
	metrics.RecordBatch(examples, time.Since(start), nil)
	log.Debug().
		Int("examples", examples).
		Int("features", len(out.Features)).
		Int("appended", len(out.Appended)).
		Dur("elapsed", time.Since(start)).
		Msg("Batch preprocessed")
	return out, nil
}

// parseFeature dispatches one feature config to its pipeline.
func (p *Preprocessor) parseFeature(fc *config.FeatureConfig, batch *field.Batch, out *Result) error {
	switch fc.Type {
	case config.FeatureTypeID:
		return p.parseID(fc, batch, out)
	case config.FeatureTypeTag:
		return p.parseTag(fc, batch, out)
	case config.FeatureTypeLookup:
		return p.parseLookup(fc, batch, out)
	case config.FeatureTypeSequence:
		return p.parseSequence(fc, batch, out)
	case config.FeatureTypeRaw:
		return p.parseRaw(fc, batch, out)
	case config.FeatureTypeCombo:
		return p.parseCombo(fc, batch, out)
	case config.FeatureTypeExpression:
		return p.parseExpression(fc, batch, out)
	default:
		return parseErr(fc.Name(), "", fmt.Errorf("unknown feature type %q", fc.Type))
	}
}

// applySampler concatenates sampler-contributed examples onto the batch.
func (p *Preprocessor) applySampler(batch *field.Batch, log *zerolog.Logger) error {
	if p.sampler == nil {
		return nil
	}
	itemIDs, ok := batch.Get(p.samplerItemField)
	if !ok {
		return parseErr("sampler", p.samplerItemField, errors.New("item id field missing from batch"))
	}
	var userIDs field.Value
	if p.samplerUserField != "" {
		userIDs, ok = batch.Get(p.samplerUserField)
		if !ok {
			return parseErr("sampler", p.samplerUserField, errors.New("user id field missing from batch"))
		}
	}
	sampled, err := p.sampler.Sample(itemIDs, userIDs)
	if err != nil {
		return fmt.Errorf("preprocess: sampler: %w", err)
	}
	if err := batch.Merge(sampled); err != nil {
		return fmt.Errorf("preprocess: sampler: %w", err)
	}
	extra := 0
	for _, v := range sampled {
		if n := v.Len(); n > extra {
			extra = n
		}
	}
	metrics.SampledExamples.Add(float64(extra))
	log.Debug().Int("columns", len(sampled)).Msg("Sampler columns merged")
	return nil
}

// parseLabels numeric-parses every configured label field, splitting
// multi-dimensional string labels first.
func (p *Preprocessor) parseLabels(batch *field.Batch, out *Result) error {
	for _, lc := range p.catalogue.Labels {
		v, ok := batch.Get(lc.Field)
		if !ok {
			continue
		}
		switch {
		case v.Type == field.TypeString && lc.Dim > 1:
			rows, err := v.AsStrings()
			if err != nil {
				return parseErr("label", lc.Field, err)
			}
			dense := make([]float64, 0, len(rows)*int(lc.Dim))
			for r, raw := range rows {
				c := sparse.Split([]string{raw}, lc.Separator)
				if int64(len(c.Values)) != lc.Dim {
					return parseErr("label", lc.Field, fmt.Errorf(
						"row %d has %d label values, want %d", r, len(c.Values), lc.Dim))
				}
				for _, tok := range c.Values {
					f, err := field.ParseNumber(tok, field.TypeFloat64)
					if err != nil {
						return parseErr("label", lc.Field, err)
					}
					dense = append(dense, f.(float64))
				}
			}
			out.Labels[lc.Field] = &Feature{
				Kind:  KindDense,
				Dense: dense,
				Shape: []int64{int64(len(rows)), lc.Dim},
			}
		case v.Type == field.TypeString:
			rows, err := v.AsStrings()
			if err != nil {
				return parseErr("label", lc.Field, err)
			}
			dense := make([]float64, len(rows))
			for i, raw := range rows {
				f, err := field.ParseNumber(raw, field.TypeFloat64)
				if err != nil {
					return parseErr("label", lc.Field, err)
				}
				dense[i] = f.(float64)
			}
			out.Labels[lc.Field] = &Feature{
				Kind:  KindDense,
				Dense: dense,
				Shape: []int64{int64(len(rows))},
			}
		default:
			dense, err := v.AsFloats()
			if err != nil {
				return parseErr("label", lc.Field, fmt.Errorf("invalid label dtype: %w", err))
			}
			out.Labels[lc.Field] = &Feature{
				Kind:  KindDense,
				Dense: dense,
				Shape: []int64{int64(len(dense))},
			}
		}
	}
	return nil
}

// parseSampleWeight extracts the per-example weight column, when set.
func (p *Preprocessor) parseSampleWeight(batch *field.Batch, out *Result) error {
	name := p.catalogue.SampleWeight
	if name == "" {
		return nil
	}
	v, ok := batch.Get(name)
	if !ok {
		return nil
	}
	if v.Type == field.TypeString {
		rows, err := v.AsStrings()
		if err != nil {
			return parseErr("sample_weight", name, err)
		}
		weights := make([]float64, len(rows))
		for i, raw := range rows {
			f, err := field.ParseNumber(raw, field.TypeFloat64)
			if err != nil {
				return parseErr("sample_weight", name, err)
			}
			weights[i] = f.(float64)
		}
		out.SampleWeight = weights
		return nil
	}
	weights, err := v.AsFloats()
	if err != nil {
		return parseErr("sample_weight", name, err)
	}
	out.SampleWeight = weights
	return nil
}

// appendField registers a synthetic output name on the result.
func (out *Result) appendField(name string) {
	out.Appended = append(out.Appended, name)
}

// batchExamples reports the row count of the first feature input present
// in the batch; used for metrics only.
func batchExamples(batch *field.Batch, cat *config.Catalogue) int {
	for i := range cat.Features {
		for _, name := range cat.Features[i].InputNames {
			if v, ok := batch.Get(name); ok {
				return v.Len()
			}
		}
	}
	return 0
}

// errorType coarsely classifies a parse error for metrics labels.
func errorType(err error) string {
	switch {
	case errors.Is(err, sparse.ErrMalformedKV):
		return "malformed_kv"
	case errors.Is(err, field.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, errPrecisionUnset):
		return "precision_unset"
	case errors.Is(err, errCardinality):
		return "cardinality_mismatch"
	default:
		return "parse"
	}
}
