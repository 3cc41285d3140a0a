// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package field

import (
	"errors"
	"reflect"
	"testing"
)

func TestTypeRoundTrip(t *testing.T) {
	for _, typ := range []Type{TypeInt32, TypeInt64, TypeString, TypeBool, TypeFloat32, TypeFloat64} {
		got, err := TypeFromString(typ.String())
		if err != nil {
			t.Errorf("TypeFromString(%q) error = %v", typ.String(), err)
		}
		if got != typ {
			t.Errorf("TypeFromString(%q) = %v, want %v", typ.String(), got, typ)
		}
	}
	if _, err := TypeFromString("decimal"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("TypeFromString(decimal) error = %v, want ErrUnknownType", err)
	}
}

func TestDefault(t *testing.T) {
	tests := []struct {
		typ  Type
		raw  string
		want any
	}{
		{TypeInt64, "", int64(0)},
		{TypeInt64, "7", int64(7)},
		{TypeString, "", ""},
		{TypeString, "na", "na"},
		{TypeBool, "", false},
		{TypeBool, "True", true},
		{TypeFloat64, "", float64(0)},
		{TypeFloat64, "0.5", 0.5},
	}
	for _, tt := range tests {
		got, err := Default(tt.typ, tt.raw)
		if err != nil {
			t.Errorf("Default(%v, %q) error = %v", tt.typ, tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Default(%v, %q) = %v, want %v", tt.typ, tt.raw, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		s       string
		typ     Type
		want    any
		wantErr bool
	}{
		{"3", TypeInt64, int64(3), false},
		// Integers go through the float grammar first.
		{"3.0", TypeInt64, int64(3), false},
		{"3.9", TypeInt32, int64(3), false},
		{"2.5", TypeFloat64, 2.5, false},
		{"true", TypeBool, true, false},
		{"True", TypeBool, true, false},
		{"yes", TypeBool, false, false},
		{"x", TypeInt64, nil, true},
		{"x", TypeFloat32, nil, true},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.s, tt.typ)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseNumber(%q, %v): want error", tt.s, tt.typ)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseNumber(%q, %v) error = %v", tt.s, tt.typ, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNumber(%q, %v) = %v, want %v", tt.s, tt.typ, got, tt.want)
		}
	}
}

func TestValueAccessors(t *testing.T) {
	s := Vector(TypeString, []string{"a", "b"})
	if got, err := s.AsStrings(); err != nil || !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("AsStrings() = %v, %v", got, err)
	}
	if _, err := s.AsFloats(); err == nil {
		t.Error("AsFloats() on string value: want error")
	}

	f := Vector(TypeFloat64, []float64{1.5, 2.5})
	if got, err := f.AsFloats(); err != nil || !reflect.DeepEqual(got, []float64{1.5, 2.5}) {
		t.Errorf("AsFloats() = %v, %v", got, err)
	}

	i := Vector(TypeInt64, []int64{3, 4})
	if got, err := i.AsFloats(); err != nil || !reflect.DeepEqual(got, []float64{3, 4}) {
		t.Errorf("AsFloats() on ints = %v, %v", got, err)
	}

	numeric := Vector(TypeString, []string{"10", "2.0"})
	if got, err := numeric.AsInts(); err != nil || !reflect.DeepEqual(got, []int64{10, 2}) {
		t.Errorf("AsInts() on numeric strings = %v, %v", got, err)
	}

	sc := Scalar(TypeString, "x")
	if !sc.IsScalar() || sc.Len() != 1 {
		t.Errorf("Scalar: IsScalar=%v Len=%d", sc.IsScalar(), sc.Len())
	}
}

func TestBatchMerge(t *testing.T) {
	b := NewBatch()
	b.Set("item_id", Vector(TypeString, []string{"a", "b"}))

	err := b.Merge(map[string]Value{
		"item_id":  Vector(TypeString, []string{"c"}),
		"neg_attr": Vector(TypeFloat64, []float64{0.1}),
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	got, _ := b.Get("item_id")
	if !reflect.DeepEqual(got.Strings, []string{"a", "b", "c"}) {
		t.Errorf("merged item_id = %v", got.Strings)
	}
	if !reflect.DeepEqual(b.Appended(), []string{"neg_attr"}) {
		t.Errorf("Appended() = %v, want [neg_attr]", b.Appended())
	}
}

func TestBatchMergeTypeMismatch(t *testing.T) {
	b := NewBatch()
	b.Set("x", Vector(TypeString, []string{"a"}))
	err := b.Merge(map[string]Value{"x": Vector(TypeFloat64, []float64{1})})
	if err == nil {
		t.Error("Merge() with type mismatch: want error")
	}
}
