// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

// Package sparse implements the coordinate-list containers used to carry
// variable-length per-example feature data.
//
// A Container holds a set of (coordinate..., value) entries together with a
// declared dense shape. The first coordinate is always the example (row)
// index; the second is the position within the row. Three-level layouts add
// an innermost coordinate for multi-valued sequence steps.
//
// Entry order is significant: rows appear in ascending order and positions
// ascend within each row, and every builder in this package preserves that
// ordering. Downstream consumers (the embedding lookup path) rely on it.
//
// # Building layouts
//
// Raw multi-value fields arrive as one separator-joined string per example.
// Split produces the two-level layout, SplitMulti refines it into a
// three-level layout, and SplitKV divides weighted tokens ("key:value")
// into parallel key and weight containers:
//
//	c := sparse.Split([]string{"a,b,c"}, ",")      // shape (1, 3)
//	keys, wgts, err := sparse.SplitKV(c, ":")       // parallel containers
//
// RawProjection re-expresses a dense numeric block as parallel (position-id,
// value) containers so purely numeric features can feed a categorical
// embedding path.
package sparse
