// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package preprocess

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/casbin/govaluate"

	"github.com/featforge/featforge/internal/config"
	"github.com/featforge/featforge/internal/encoder"
	"github.com/featforge/featforge/internal/field"
	"github.com/featforge/featforge/internal/sparse"
)

var (
	// errFieldMissing marks an input field absent from the batch.
	errFieldMissing = errors.New("input field missing from batch")

	// errPrecisionUnset marks a floating input that must become a string
	// for hashing but has no configured decimal precision. Rendering
	// floats without a fixed precision makes ids depend on formatting
	// noise, so it is always fatal.
	errPrecisionUnset = errors.New("floating input needs precision for string conversion")

	// errCardinality marks parallel inputs whose per-example token counts
	// disagree.
	errCardinality = errors.New("parallel input cardinality mismatch")
)

// WeightSuffix is appended to a tag feature's first input name to form
// the synthetic weight companion field.
const WeightSuffix = "_WEIGHT"

// Raw projection companion suffixes.
const (
	RawProjIDSuffix  = "_raw_proj_id"
	RawProjValSuffix = "_raw_proj_val"
)

// stringRows renders a batch value as one raw string per example.
// Integer and boolean values format canonically; floating values need a
// configured precision so equal numbers always hash to equal ids.
func stringRows(fc *config.FeatureConfig, v field.Value) ([]string, error) {
	switch v.Type {
	case field.TypeString:
		return v.AsStrings()
	case field.TypeInt32, field.TypeInt64:
		ints, err := v.AsInts()
		if err != nil {
			return nil, err
		}
		rows := make([]string, len(ints))
		for i, n := range ints {
			rows[i] = strconv.FormatInt(n, 10)
		}
		return rows, nil
	case field.TypeFloat32, field.TypeFloat64:
		floats, err := v.AsFloats()
		if err != nil {
			return nil, err
		}
		// Hashing formatted floats without a fixed precision makes ids
		// depend on formatting noise; other strategies re-parse the
		// token, so the shortest round-trip form is safe there.
		if fc.Precision <= 0 && fc.HashBucketSize > 0 {
			return nil, errPrecisionUnset
		}
		rows := make([]string, len(floats))
		for i, f := range floats {
			if fc.Precision > 0 {
				rows[i] = strconv.FormatFloat(f, 'f', fc.Precision, 64)
			} else {
				rows[i] = strconv.FormatFloat(f, 'g', -1, 64)
			}
		}
		return rows, nil
	case field.TypeBool:
		rows := make([]string, len(v.Bools))
		for i, b := range v.Bools {
			rows[i] = strconv.FormatBool(b)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: %d", field.ErrUnknownType, v.Type)
	}
}

// floatRows converts a batch value to one float64 per example,
// numeric-parsing string values token by token.
func floatRows(v field.Value) ([]float64, error) {
	if v.Type == field.TypeString {
		raws, err := v.AsStrings()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(raws))
		for i, s := range raws {
			f, err := field.ParseNumber(s, field.TypeFloat64)
			if err != nil {
				return nil, err
			}
			out[i] = f.(float64)
		}
		return out, nil
	}
	return v.AsFloats()
}

// tokenContainer splits an input into a two-level token container,
// passing pre-encoded ragged values through untouched.
func tokenContainer(fc *config.FeatureConfig, v field.Value) (*sparse.Container[string], error) {
	if v.IsRagged() {
		return v.Ragged, nil
	}
	rows, err := stringRows(fc, v)
	if err != nil {
		return nil, err
	}
	return sparse.Split(rows, fc.Separator), nil
}

// encodeTokens applies the feature's categorical strategy to every token.
// The identity path numeric-parses tokens and, when num_buckets is set,
// substitutes the default id for out-of-range values.
func (p *Preprocessor) encodeTokens(fc *config.FeatureConfig, c *sparse.Container[string]) (*sparse.Container[int64], error) {
	switch encoder.StrategyFor(fc.HashBucketSize, fc.VocabList, fc.VocabFile) {
	case encoder.StrategyHash:
		return sparse.Map(c, func(s string) int64 {
			return encoder.HashBucket(s, fc.HashBucketSize)
		}), nil
	case encoder.StrategyVocabList:
		return sparse.Map(c, func(s string) int64 {
			return encoder.VocabIndex(s, fc.VocabList, 0)
		}), nil
	case encoder.StrategyVocabFile:
		return sparse.Convert(c, func(s string) (int64, error) {
			return p.vocab.Lookup(fc.VocabFile, s, 0)
		})
	default:
		return sparse.Convert(c, func(s string) (int64, error) {
			n, err := field.ParseNumber(s, field.TypeInt64)
			if err != nil {
				return 0, err
			}
			id := n.(int64)
			if fc.NumBuckets > 0 {
				id = encoder.Identity(id, fc.NumBuckets, 0)
			}
			return id, nil
		})
	}
}

// parseID encodes a (possibly multi-valued) field into a categorical id
// container.
func (p *Preprocessor) parseID(fc *config.FeatureConfig, batch *field.Batch, out *Result) error {
	name := fc.Name()
	in := fc.InputNames[0]
	v, ok := batch.Get(in)
	if !ok {
		return parseErr(name, in, errFieldMissing)
	}
	c, err := tokenContainer(fc, v)
	if err != nil {
		return parseErr(name, in, err)
	}
	ids, err := p.encodeTokens(fc, c)
	if err != nil {
		return parseErr(name, in, err)
	}
	out.Features[name] = &Feature{Kind: KindCategorical, IDs: ids}
	return nil
}

// parseTag encodes a multi-valued field with optional per-token weights,
// taken either from key/value tokens or from a parallel weight field.
// Weighted tags additionally emit a "<input>_WEIGHT" companion.
func (p *Preprocessor) parseTag(fc *config.FeatureConfig, batch *field.Batch, out *Result) error {
	name := fc.Name()
	in := fc.InputNames[0]
	v, ok := batch.Get(in)
	if !ok {
		return parseErr(name, in, errFieldMissing)
	}
	c, err := tokenContainer(fc, v)
	if err != nil {
		return parseErr(name, in, err)
	}

	keys := c
	var weights *sparse.Container[float64]
	fromKV := false
	switch {
	case fc.KVSeparator != "":
		keys, weights, err = sparse.SplitKV(c, fc.KVSeparator)
		if err != nil {
			return parseErr(name, in, err)
		}
		fromKV = true
	case len(fc.InputNames) > 1:
		wIn := fc.InputNames[1]
		wv, ok := batch.Get(wIn)
		if !ok {
			return parseErr(name, wIn, errFieldMissing)
		}
		wRows, err := wv.AsStrings()
		if err != nil {
			return parseErr(name, wIn, err)
		}
		wc := sparse.Split(wRows, fc.Separator)
		if err := sameLayout(c, wc); err != nil {
			return parseErr(name, wIn, err)
		}
		weights, err = sparse.Convert(wc, func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		})
		if err != nil {
			return parseErr(name, wIn, err)
		}
		weights.Shape = c.Shape
	}

	ids, err := p.encodeTokens(fc, keys)
	if err != nil {
		return parseErr(name, in, err)
	}
	out.Features[name] = &Feature{Kind: KindCategorical, IDs: ids, Weights: weights}

	// Weights carved out of kv tokens did not arrive as their own batch
	// field, so they are surfaced as a derived companion. Parallel-field
	// weights already live under the second input's name.
	if fromKV {
		wName := in + WeightSuffix
		out.Features[wName] = &Feature{Kind: KindCategorical, Weights: weights}
		out.appendField(wName)
	}
	return nil
}

// sameLayout verifies two token containers agree entry for entry.
func sameLayout(a, b *sparse.Container[string]) error {
	if len(a.Values) != len(b.Values) {
		return fmt.Errorf("%w: %d tokens vs %d weights", errCardinality, len(a.Values), len(b.Values))
	}
	for i := range a.Indices {
		if a.Indices[i][0] != b.Indices[i][0] || a.Indices[i][1] != b.Indices[i][1] {
			return fmt.Errorf("%w: entry %d at %v vs %v", errCardinality, i, a.Indices[i], b.Indices[i])
		}
	}
	return nil
}

// parseLookup selects map entries matching each example's key, up to
// lookup_max_sel_elem_num per example. Examples with no match get an
// empty row rather than an error. A scalar key is broadcast across the
// whole batch.
func (p *Preprocessor) parseLookup(fc *config.FeatureConfig, batch *field.Batch, out *Result) error {
	name := fc.Name()
	keyIn, mapIn := fc.InputNames[0], fc.InputNames[1]

	kv, ok := batch.Get(keyIn)
	if !ok {
		return parseErr(name, keyIn, errFieldMissing)
	}
	mv, ok := batch.Get(mapIn)
	if !ok {
		return parseErr(name, mapIn, errFieldMissing)
	}
	keys, err := stringRows(fc, kv)
	if err != nil {
		return parseErr(name, keyIn, err)
	}
	maps, err := mv.AsStrings()
	if err != nil {
		return parseErr(name, mapIn, err)
	}
	if len(keys) == 1 && len(maps) > 1 {
		key := keys[0]
		keys = make([]string, len(maps))
		for i := range keys {
			keys[i] = key
		}
	}
	if len(keys) != len(maps) {
		return parseErr(name, keyIn, fmt.Errorf("%w: %d keys vs %d maps", errCardinality, len(keys), len(maps)))
	}

	// Collect every match first, then cap each row at the selection
	// limit via the pad/truncate mask.
	matches := &sparse.Container[string]{Shape: []int64{int64(len(maps)), 0}}
	for r, raw := range maps {
		sel := int64(0)
		for _, tok := range strings.Split(raw, fc.Separator) {
			if tok == "" {
				continue
			}
			parts := strings.Split(tok, fc.KVSeparator)
			if len(parts) != 2 {
				return parseErr(name, mapIn, fmt.Errorf("%w: %q split into %d parts on %q",
					sparse.ErrMalformedKV, tok, len(parts), fc.KVSeparator))
			}
			if parts[0] != keys[r] {
				continue
			}
			matches.Indices = append(matches.Indices, []int64{int64(r), sel})
			matches.Values = append(matches.Values, parts[1])
			sel++
		}
		if sel > matches.Shape[1] {
			matches.Shape[1] = sel
		}
	}

	limit := fc.LookupMaxSelElemNum
	padded := sparse.PadOrTruncate(matches, int(limit))
	c := &sparse.Container[string]{Shape: []int64{int64(len(padded)), 0}}
	for r, row := range padded {
		for i, valid := range row.Mask {
			if !valid {
				break
			}
			c.Indices = append(c.Indices, []int64{int64(r), row.Indices[i]})
			c.Values = append(c.Values, row.Values[i])
			if row.Indices[i]+1 > c.Shape[1] {
				c.Shape[1] = row.Indices[i] + 1
			}
		}
	}

	ids, err := p.encodeTokens(fc, c)
	if err != nil {
		return parseErr(name, mapIn, err)
	}
	out.Features[name] = &Feature{Kind: KindCategorical, IDs: ids}
	return nil
}

// parseRaw numeric-parses an input of raw_input_dim values per example,
// normalizes, and either bucketizes or falls back to the raw projection
// trick with "<name>_raw_proj_id"/"<name>_raw_proj_val" companions.
func (p *Preprocessor) parseRaw(fc *config.FeatureConfig, batch *field.Batch, out *Result) error {
	name := fc.Name()
	in := fc.InputNames[0]
	v, ok := batch.Get(in)
	if !ok {
		return parseErr(name, in, errFieldMissing)
	}

	dim := fc.RawInputDim
	var dense []float64
	if v.Type == field.TypeString && dim > 1 {
		raws, err := v.AsStrings()
		if err != nil {
			return parseErr(name, in, err)
		}
		dense = make([]float64, 0, len(raws)*int(dim))
		for r, raw := range raws {
			toks := strings.Split(raw, fc.Separator)
			if int64(len(toks)) != dim {
				return parseErr(name, in, fmt.Errorf(
					"row %d has %d values, raw_input_dim is %d", r, len(toks), dim))
			}
			for _, tok := range toks {
				f, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return parseErr(name, in, fmt.Errorf("row %d: %w", r, err))
				}
				dense = append(dense, f)
			}
		}
	} else {
		var err error
		dense, err = floatRows(v)
		if err != nil {
			return parseErr(name, in, err)
		}
	}
	rows := int64(len(dense)) / dim

	normalize(dense, fc.MinVal, fc.MaxVal)

	if bounds := effectiveBoundaries(fc); len(bounds) > 0 {
		out.Features[name] = &Feature{Kind: KindCategorical, IDs: bucketizeDense(dense, rows, dim, bounds)}
		return nil
	}

	projID, projVal := sparse.RawProjection(dense, rows, dim)
	out.Features[name] = &Feature{
		Kind:    KindRawProjection,
		Dense:   dense,
		Shape:   []int64{rows, dim},
		ProjID:  projID,
		ProjVal: projVal,
	}
	p.emitProjection(name, projID, projVal, out)
	return nil
}

// parseSequence splits a field into one position per sequence step,
// optionally refining into a 3D layout on seq_multi_sep. Id sub-features
// encode categorically; raw sub-features bucketize or project.
func (p *Preprocessor) parseSequence(fc *config.FeatureConfig, batch *field.Batch, out *Result) error {
	name := fc.Name()
	in := fc.InputNames[0]
	v, ok := batch.Get(in)
	if !ok {
		return parseErr(name, in, errFieldMissing)
	}
	c2, err := tokenContainer(fc, v)
	if err != nil {
		return parseErr(name, in, err)
	}

	var c *sparse.Container[string]
	if fc.SeqMultiSep != "" {
		c = sparse.SplitMulti(c2, fc.SeqMultiSep)
	} else {
		c = c2
	}

	if fc.SubType == config.FeatureTypeID {
		ids, err := p.encodeTokens(fc, c)
		if err != nil {
			return parseErr(name, in, err)
		}
		out.Features[name] = &Feature{Kind: KindCategorical, IDs: ids}
		return nil
	}

	// Raw sub-feature.
	fv, err := sparse.Convert(c, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
	if err != nil {
		return parseErr(name, in, err)
	}
	normalize(fv.Values, fc.MinVal, fc.MaxVal)

	if bounds := effectiveBoundaries(fc); len(bounds) > 0 {
		out.Features[name] = &Feature{
			Kind: KindCategorical,
			IDs: sparse.Map(fv, func(f float64) int64 {
				return bucketize(f, bounds)
			}),
		}
		return nil
	}

	seqLen := fc.SequenceLength
	rows := fv.Shape[0]
	if fc.SeqMultiSep == "" {
		// 2D case: densify to (rows, sequence_length), then project.
		dense := make([]float64, rows*seqLen)
		for i, idx := range fv.Indices {
			if idx[1] >= seqLen {
				continue
			}
			dense[idx[0]*seqLen+idx[1]] = fv.Values[i]
		}
		projID, projVal := sparse.RawProjection(dense, rows, seqLen)
		out.Features[name] = &Feature{
			Kind:    KindRawProjection,
			Dense:   dense,
			Shape:   []int64{rows, seqLen},
			ProjID:  projID,
			ProjVal: projVal,
		}
		p.emitProjection(name, projID, projVal, out)
		return nil
	}

	// 3D case: an extra coordinate for the feature-dimension axis.
	dim := fc.RawInputDim
	dense := make([]float64, rows*seqLen*dim)
	for i, idx := range fv.Indices {
		if idx[1] >= seqLen || idx[2] >= dim {
			continue
		}
		dense[(idx[0]*seqLen+idx[1])*dim+idx[2]] = fv.Values[i]
	}
	projID, projVal := sparse.RawProjection3D(dense, rows, seqLen, dim)
	out.Features[name] = &Feature{
		Kind:    KindRawProjection,
		Dense:   dense,
		Shape:   []int64{rows, seqLen, dim},
		ProjID:  projID,
		ProjVal: projVal,
	}
	p.emitProjection(name, projID, projVal, out)
	return nil
}

// parseCombo crosses several scalar inputs into one hashed id space.
func (p *Preprocessor) parseCombo(fc *config.FeatureConfig, batch *field.Batch, out *Result) error {
	name := fc.Name()
	parts := make([][]string, len(fc.InputNames))
	for i, in := range fc.InputNames {
		v, ok := batch.Get(in)
		if !ok {
			return parseErr(name, in, errFieldMissing)
		}
		rows, err := stringRows(fc, v)
		if err != nil {
			return parseErr(name, in, err)
		}
		if i > 0 && len(rows) != len(parts[0]) {
			return parseErr(name, in, fmt.Errorf("%w: %d rows vs %d",
				errCardinality, len(rows), len(parts[0])))
		}
		parts[i] = rows
	}

	rows := len(parts[0])
	c := &sparse.Container[int64]{
		Indices: make([][]int64, rows),
		Values:  make([]int64, rows),
		Shape:   []int64{int64(rows), 1},
	}
	tuple := make([]string, len(parts))
	for r := 0; r < rows; r++ {
		for i := range parts {
			tuple[i] = parts[i][r]
		}
		c.Indices[r] = []int64{int64(r), 0}
		c.Values[r] = encoder.CrossHash(tuple, fc.HashBucketSize)
	}
	out.Features[name] = &Feature{Kind: KindCategorical, IDs: c}
	return nil
}

// parseExpression evaluates the configured arithmetic formula over the
// inputs, producing one dense derived field marked appended.
func (p *Preprocessor) parseExpression(fc *config.FeatureConfig, batch *field.Batch, out *Result) error {
	name := fc.Name()
	expr, err := govaluate.NewEvaluableExpression(fc.Expression)
	if err != nil {
		return parseErr(name, "", fmt.Errorf("bad expression %q: %w", fc.Expression, err))
	}

	inputs := make(map[string][]float64, len(fc.InputNames))
	rows := -1
	for _, in := range fc.InputNames {
		v, ok := batch.Get(in)
		if !ok {
			return parseErr(name, in, errFieldMissing)
		}
		fs, err := floatRows(v)
		if err != nil {
			return parseErr(name, in, err)
		}
		if rows >= 0 && len(fs) != rows {
			return parseErr(name, in, fmt.Errorf("%w: %d rows vs %d", errCardinality, len(fs), rows))
		}
		rows = len(fs)
		inputs[in] = fs
	}

	dense := make([]float64, rows)
	params := make(map[string]interface{}, len(inputs))
	for r := 0; r < rows; r++ {
		for in, fs := range inputs {
			params[in] = fs[r]
		}
		res, err := expr.Evaluate(params)
		if err != nil {
			return parseErr(name, "", fmt.Errorf("row %d: %w", r, err))
		}
		switch x := res.(type) {
		case float64:
			dense[r] = x
		case bool:
			if x {
				dense[r] = 1
			}
		default:
			return parseErr(name, "", fmt.Errorf("row %d: expression yielded %T, want number", r, res))
		}
	}

	out.Features[name] = &Feature{Kind: KindDense, Dense: dense, Shape: []int64{int64(rows)}}
	out.appendField(name)
	return nil
}

// emitProjection registers the two appended companion fields of a raw
// projection.
func (p *Preprocessor) emitProjection(name string, projID *sparse.Container[int64], projVal *sparse.Container[float64], out *Result) {
	idName := name + RawProjIDSuffix
	valName := name + RawProjValSuffix
	out.Features[idName] = &Feature{Kind: KindCategorical, IDs: projID}
	out.Features[valName] = &Feature{Kind: KindCategorical, Weights: projVal}
	out.appendField(idName)
	out.appendField(valName)
}
