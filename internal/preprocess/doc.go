// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

// Package preprocess turns one raw batch into canonical per-feature
// representations, driven by the feature catalogue.
//
// Processing is a pure, synchronous, per-batch transformation. The
// preprocessor holds no mutable state of its own (the vocabulary cache
// it borrows is the engine's only shared mutable state), so one
// Preprocessor may serve any number of concurrent batch workers.
//
// Each feature type has its own pipeline (id, tag, lookup, sequence,
// raw, combo, expression). Pipelines use the sparse layout builder and
// the categorical encoder as primitives and may emit synthetic companion
// fields alongside their native output:
//
//   - "<field>_WEIGHT" for key/value tag weights
//   - "<field>_raw_proj_id" / "<field>_raw_proj_val" for the raw
//     projection trick, which re-expresses a dense numeric vector as
//     (position-id, value) pairs so it can feed a categorical embedding
//     path
//   - the named output of an expression feature
//
// All synthetic fields are reported through Result.Appended.
//
// A fatal parse error aborts the whole batch; no partial output is
// returned. Errors carry the feature and field names for diagnosis.
package preprocess
