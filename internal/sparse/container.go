// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package sparse

import (
	"errors"
	"fmt"
)

// ErrShapeViolation is returned when an entry's coordinates exceed the
// container's declared dense shape.
var ErrShapeViolation = errors.New("sparse: index exceeds dense shape")

// ErrDuplicateIndex is returned when two entries share the same coordinates.
var ErrDuplicateIndex = errors.New("sparse: duplicate coordinates")

// Value constrains the element types a Container may carry: raw string
// tokens, categorical ids, or numeric weights.
type Value interface {
	~string | ~int64 | ~float64
}

// Container is a generalized coordinate-list sparse collection with a
// declared dense shape. Indices[i] holds the coordinates of Values[i], one
// int64 per dimension; coordinate 0 is the example (row) index.
//
// Containers are built once and treated as immutable afterwards.
type Container[T Value] struct {
	Indices [][]int64
	Values  []T
	Shape   []int64
}

// NumDims returns the number of dimensions in the declared shape.
func (c *Container[T]) NumDims() int { return len(c.Shape) }

// Len returns the number of stored entries.
func (c *Container[T]) Len() int { return len(c.Values) }

// Rows returns the declared number of examples (first shape dimension).
func (c *Container[T]) Rows() int64 {
	if len(c.Shape) == 0 {
		return 0
	}
	return c.Shape[0]
}

// Validate checks the container invariants: every entry has one coordinate
// per dimension, no coordinate exceeds the declared shape, and no two
// entries share coordinates.
func (c *Container[T]) Validate() error {
	seen := make(map[string]struct{}, len(c.Indices))
	for i, idx := range c.Indices {
		if len(idx) != len(c.Shape) {
			return fmt.Errorf("sparse: entry %d has %d coordinates, shape has %d dims",
				i, len(idx), len(c.Shape))
		}
		key := ""
		for d, v := range idx {
			if v < 0 || v >= c.Shape[d] {
				return fmt.Errorf("%w: entry %d coordinate %d is %d, dim size %d",
					ErrShapeViolation, i, d, v, c.Shape[d])
			}
			key += fmt.Sprintf("%d,", v)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: entry %d at (%s)", ErrDuplicateIndex, i, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// RowValues groups values by example index, preserving entry order within
// each row. The returned slice has one element per declared row.
func (c *Container[T]) RowValues() [][]T {
	rows := make([][]T, c.Rows())
	for i, idx := range c.Indices {
		r := idx[0]
		rows[r] = append(rows[r], c.Values[i])
	}
	return rows
}

// Convert maps every value through fn, keeping coordinates and shape. The
// first conversion error aborts with the offending entry's coordinates.
func Convert[T, U Value](c *Container[T], fn func(T) (U, error)) (*Container[U], error) {
	out := &Container[U]{
		Indices: c.Indices,
		Values:  make([]U, len(c.Values)),
		Shape:   c.Shape,
	}
	for i, v := range c.Values {
		u, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("sparse: convert entry %d at %v: %w", i, c.Indices[i], err)
		}
		out.Values[i] = u
	}
	return out, nil
}

// Map is Convert for infallible transforms.
func Map[T, U Value](c *Container[T], fn func(T) U) *Container[U] {
	out := &Container[U]{
		Indices: c.Indices,
		Values:  make([]U, len(c.Values)),
		Shape:   c.Shape,
	}
	for i, v := range c.Values {
		out.Values[i] = fn(v)
	}
	return out
}

// ToDense scatters a two-level container into a row-major dense block of
// the declared shape, filling absent coordinates with def.
func ToDense[T Value](c *Container[T], def T) ([]T, error) {
	if len(c.Shape) != 2 {
		return nil, fmt.Errorf("sparse: ToDense needs a 2-dim container, got %d dims", len(c.Shape))
	}
	rows, cols := c.Shape[0], c.Shape[1]
	dense := make([]T, rows*cols)
	var zero T
	if def != zero {
		for i := range dense {
			dense[i] = def
		}
	}
	for i, idx := range c.Indices {
		dense[idx[0]*cols+idx[1]] = c.Values[i]
	}
	return dense, nil
}

// ToDense3D scatters a three-level container into a row-major dense block
// of shape (rows, mid, inner).
func ToDense3D[T Value](c *Container[T], def T) ([]T, error) {
	if len(c.Shape) != 3 {
		return nil, fmt.Errorf("sparse: ToDense3D needs a 3-dim container, got %d dims", len(c.Shape))
	}
	rows, mid, inner := c.Shape[0], c.Shape[1], c.Shape[2]
	dense := make([]T, rows*mid*inner)
	var zero T
	if def != zero {
		for i := range dense {
			dense[i] = def
		}
	}
	for i, idx := range c.Indices {
		dense[(idx[0]*mid+idx[1])*inner+idx[2]] = c.Values[i]
	}
	return dense, nil
}
