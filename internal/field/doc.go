// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

// Package field models the raw input batch: a mapping from field name to
// a typed value that is either a scalar, a 1D array, or a pre-encoded
// ragged container.
//
// Values carry one of six declared scalar types (int32, int64, string,
// bool, float32, float64). Scalars are stored as length-one arrays with a
// scalar flag so every consumer can treat a value as a batch; the flag is
// what lets the lookup path replicate the original batch-of-one
// semantics.
//
// The Batch tracks "appended" fields: columns that did not arrive from
// the reader but were contributed by the sampler collaborator or derived
// during preprocessing. Downstream consumers need that list to know which
// outputs are synthetic.
package field
