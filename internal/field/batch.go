// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package field

import (
	"fmt"
	"sort"
)

// Batch is one raw input batch: field name → typed value. A Batch also
// tracks which fields were appended after the reader produced it (sampler
// columns, derived weight columns, projections).
type Batch struct {
	fields   map[string]Value
	appended []string
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{fields: make(map[string]Value)}
}

// Set stores a reader-provided field.
func (b *Batch) Set(name string, v Value) {
	b.fields[name] = v
}

// Get returns the named field.
func (b *Batch) Get(name string) (Value, bool) {
	v, ok := b.fields[name]
	return v, ok
}

// Names returns all field names in sorted order.
func (b *Batch) Names() []string {
	names := make([]string, 0, len(b.fields))
	for name := range b.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Appended returns the names of fields added after reader construction,
// in the order they were added.
func (b *Batch) Appended() []string {
	return append([]string(nil), b.appended...)
}

// MarkAppended records a derived field name without storing a value. Used
// for outputs that live in the parsed result rather than the batch.
func (b *Batch) MarkAppended(name string) {
	b.appended = append(b.appended, name)
}

// Merge concatenates sampler-contributed columns onto the batch. A column
// that already exists is extended row-wise (the sampled examples follow
// the originals); a brand-new column is stored and tracked as appended.
func (b *Batch) Merge(sampled map[string]Value) error {
	// Deterministic order keeps appended-field bookkeeping stable.
	names := make([]string, 0, len(sampled))
	for name := range sampled {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := sampled[name]
		existing, ok := b.fields[name]
		if !ok {
			b.fields[name] = v
			b.appended = append(b.appended, name)
			continue
		}
		merged, err := existing.concat(v)
		if err != nil {
			return fmt.Errorf("field: merge sampled column %s: %w", name, err)
		}
		b.fields[name] = merged
	}
	return nil
}
