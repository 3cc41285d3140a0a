// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package sparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedKV is returned when a weighted token does not split into
// exactly two parts on the key/value separator.
var ErrMalformedKV = errors.New("sparse: malformed key/value token")

// Split builds a two-level container from one separator-joined string per
// example. Empty tokens are skipped; surviving tokens get positions
// 0..k-1 within their row. The dense shape is (len(rows), longest row).
func Split(rows []string, sep string) *Container[string] {
	c := &Container[string]{Shape: []int64{int64(len(rows)), 0}}
	for r, raw := range rows {
		pos := int64(0)
		for _, tok := range strings.Split(raw, sep) {
			if tok == "" {
				continue
			}
			c.Indices = append(c.Indices, []int64{int64(r), pos})
			c.Values = append(c.Values, tok)
			pos++
		}
		if pos > c.Shape[1] {
			c.Shape[1] = pos
		}
	}
	return c
}

// SplitMulti refines a two-level container into a three-level one by
// splitting every value on innerSep. The outer (row, position)
// coordinates are inherited from the parent entry (rows are never
// renumbered) and the innermost coordinate is assigned 0..m-1 per token.
func SplitMulti(c *Container[string], innerSep string) *Container[string] {
	out := &Container[string]{Shape: []int64{c.Shape[0], c.Shape[1], 0}}
	for i, v := range c.Values {
		parent := c.Indices[i]
		inner := int64(0)
		for _, tok := range strings.Split(v, innerSep) {
			if tok == "" {
				continue
			}
			out.Indices = append(out.Indices, []int64{parent[0], parent[1], inner})
			out.Values = append(out.Values, tok)
			inner++
		}
		if inner > out.Shape[2] {
			out.Shape[2] = inner
		}
	}
	return out
}

// SplitKV divides every "key<kvSep>value" token of c into parallel key and
// weight containers sharing c's coordinates and shape. A token that does
// not yield exactly two parts, or whose value part is not numeric, is a
// fatal parse error.
func SplitKV(c *Container[string], kvSep string) (*Container[string], *Container[float64], error) {
	keys := &Container[string]{Indices: c.Indices, Shape: c.Shape,
		Values: make([]string, len(c.Values))}
	wgts := &Container[float64]{Indices: c.Indices, Shape: c.Shape,
		Values: make([]float64, len(c.Values))}
	for i, tok := range c.Values {
		parts := strings.Split(tok, kvSep)
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("%w: %q split into %d parts on %q",
				ErrMalformedKV, tok, len(parts), kvSep)
		}
		w, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %q has non-numeric weight: %v",
				ErrMalformedKV, tok, err)
		}
		keys.Values[i] = parts[0]
		wgts.Values[i] = w
	}
	return keys, wgts, nil
}

// PaddedRow is one example of a PadOrTruncate result: values padded (or
// cut) to the limit, a validity mask, and the position index list used by
// the lookup selection path. Mask and Indices always have length limit.
type PaddedRow[T Value] struct {
	Values  []T
	Mask    []bool
	Indices []int64
}

// PadOrTruncate expands a two-level container into fixed-width rows of
// the given limit. Short rows are padded with the zero value and masked
// off; rows longer than the limit are truncated. Padded positions carry
// index 0 so they resolve to the default id downstream.
func PadOrTruncate[T Value](c *Container[T], limit int) []PaddedRow[T] {
	rows := c.RowValues()
	out := make([]PaddedRow[T], len(rows))
	for r, vals := range rows {
		n := len(vals)
		if n > limit {
			n = limit
		}
		row := PaddedRow[T]{
			Values:  make([]T, limit),
			Mask:    make([]bool, limit),
			Indices: make([]int64, limit),
		}
		copy(row.Values, vals[:n])
		for i := 0; i < n; i++ {
			row.Mask[i] = true
			row.Indices[i] = int64(i)
		}
		out[r] = row
	}
	return out
}

// RawProjection re-expresses a row-major dense block of shape (rows, dim)
// as parallel id and value containers. Ids are the position within the
// example (0..dim-1) and values are the block entries in the same order,
// so scattering the value container densely reconstructs the input.
func RawProjection(dense []float64, rows, dim int64) (*Container[int64], *Container[float64]) {
	n := rows * dim
	indices := make([][]int64, 0, n)
	ids := make([]int64, 0, n)
	vals := make([]float64, 0, n)
	for r := int64(0); r < rows; r++ {
		for d := int64(0); d < dim; d++ {
			indices = append(indices, []int64{r, d})
			ids = append(ids, d)
			vals = append(vals, dense[r*dim+d])
		}
	}
	shape := []int64{rows, dim}
	return &Container[int64]{Indices: indices, Values: ids, Shape: shape},
		&Container[float64]{Indices: indices, Values: vals, Shape: shape}
}

// RawProjection3D is the three-level analogue for sequence features of
// shape (rows, seqLen, dim): the id of every entry is its sequence
// position (middle coordinate) and the value is the dense block entry.
func RawProjection3D(dense []float64, rows, seqLen, dim int64) (*Container[int64], *Container[float64]) {
	n := rows * seqLen * dim
	indices := make([][]int64, 0, n)
	ids := make([]int64, 0, n)
	vals := make([]float64, 0, n)
	for r := int64(0); r < rows; r++ {
		for s := int64(0); s < seqLen; s++ {
			for d := int64(0); d < dim; d++ {
				indices = append(indices, []int64{r, s, d})
				ids = append(ids, s)
				vals = append(vals, dense[(r*seqLen+s)*dim+d])
			}
		}
	}
	shape := []int64{rows, seqLen, dim}
	return &Container[int64]{Indices: indices, Values: ids, Shape: shape},
		&Container[float64]{Indices: indices, Values: vals, Shape: shape}
}
