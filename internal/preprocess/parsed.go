// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package preprocess

import (
	"fmt"

	"github.com/featforge/featforge/internal/sparse"
)

// Kind discriminates the canonical representations a parsed feature can
// take.
type Kind int

const (
	// KindDense is a fixed-shape numeric block.
	KindDense Kind = iota
	// KindCategorical is a sparse id container with optional parallel
	// weights.
	KindCategorical
	// KindRawProjection is a dense numeric block re-expressed as parallel
	// (position-id, value) sparse containers.
	KindRawProjection
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindCategorical:
		return "categorical"
	case KindRawProjection:
		return "raw_projection"
	default:
		return "unknown"
	}
}

// Feature is one canonical parsed representation. Exactly the fields
// implied by Kind are populated. Instances are produced fresh per batch
// and never retained by the engine.
type Feature struct {
	Kind Kind `json:"kind"`

	// Dense payload (KindDense, and the densified source of
	// KindRawProjection).
	Dense []float64 `json:"dense,omitempty"`
	Shape []int64   `json:"shape,omitempty"`

	// Categorical payload.
	IDs     *sparse.Container[int64]   `json:"ids,omitempty"`
	Weights *sparse.Container[float64] `json:"weights,omitempty"`

	// Raw projection payload.
	ProjID  *sparse.Container[int64]   `json:"proj_id,omitempty"`
	ProjVal *sparse.Container[float64] `json:"proj_val,omitempty"`
}

// Result is the output of one preprocessed batch.
type Result struct {
	// Features maps field/feature names to parsed representations,
	// including every synthetic companion field.
	Features map[string]*Feature `json:"features"`

	// Labels maps label fields to dense float blocks.
	Labels map[string]*Feature `json:"labels,omitempty"`

	// SampleWeight is the per-example weight column, when configured.
	SampleWeight []float64 `json:"sample_weight,omitempty"`

	// Appended lists fields that did not arrive from the reader: sampler
	// columns, weight companions, raw projections, expression outputs.
	Appended []string `json:"appended,omitempty"`
}

// ParseError is a fatal batch-processing error carrying the feature and
// field it originated from.
type ParseError struct {
	Feature string
	Field   string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("preprocess: feature %s (field %s): %v", e.Feature, e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(feature, fieldName string, err error) *ParseError {
	return &ParseError{Feature: feature, Field: fieldName, Err: err}
}
