// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package preprocess

import (
	"sort"

	"github.com/featforge/featforge/internal/config"
	"github.com/featforge/featforge/internal/sparse"
)

// normalize maps values into [0,1] in place when max > min; otherwise it
// is a no-op.
func normalize(vals []float64, minVal, maxVal float64) {
	if maxVal <= minVal {
		return
	}
	scale := maxVal - minVal
	for i, v := range vals {
		vals[i] = (v - minVal) / scale
	}
}

// effectiveBoundaries returns the cut points to bucketize with: the
// explicit boundaries when given (already sorted by validation), or
// num_buckets equal-width cut points over [0,1] when the feature is
// min/max normalized. Nil means no bucketization.
func effectiveBoundaries(fc *config.FeatureConfig) []float64 {
	if len(fc.Boundaries) > 0 {
		return fc.Boundaries
	}
	if fc.NumBuckets > 1 && fc.MaxVal > fc.MinVal {
		bounds := make([]float64, fc.NumBuckets)
		for i := int64(0); i < fc.NumBuckets; i++ {
			bounds[i] = float64(i) / float64(fc.NumBuckets)
		}
		return bounds
	}
	return nil
}

// bucketize returns the index of the interval v falls in: the number of
// boundaries <= v (searchsorted-right semantics).
func bucketize(v float64, bounds []float64) int64 {
	return int64(sort.Search(len(bounds), func(i int) bool { return bounds[i] > v }))
}

// bucketizeDense converts a row-major dense block of shape (rows, dim)
// into a categorical id container of bucket indices.
func bucketizeDense(dense []float64, rows, dim int64, bounds []float64) *sparse.Container[int64] {
	c := &sparse.Container[int64]{
		Indices: make([][]int64, len(dense)),
		Values:  make([]int64, len(dense)),
		Shape:   []int64{rows, dim},
	}
	for r := int64(0); r < rows; r++ {
		for d := int64(0); d < dim; d++ {
			i := r*dim + d
			c.Indices[i] = []int64{r, d}
			c.Values[i] = bucketize(dense[i], bounds)
		}
	}
	return c
}
