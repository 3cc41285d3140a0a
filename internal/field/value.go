// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package field

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/featforge/featforge/internal/sparse"
)

// Type is the declared scalar type of a raw field.
type Type int

const (
	TypeInt32 Type = iota
	TypeInt64
	TypeString
	TypeBool
	TypeFloat32
	TypeFloat64
)

// ErrUnknownType is returned for a scalar type outside the taxonomy.
var ErrUnknownType = errors.New("field: unknown scalar type")

// String returns the lowercase wire name of the type.
func (t Type) String() string {
	switch t {
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// TypeFromString parses a wire name into a Type.
func TypeFromString(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "int32":
		return TypeInt32, nil
	case "int64":
		return TypeInt64, nil
	case "string":
		return TypeString, nil
	case "bool":
		return TypeBool, nil
	case "float32", "float":
		return TypeFloat32, nil
	case "float64", "double":
		return TypeFloat64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// IsNumeric reports whether the type is an integer or floating type.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeInt32, TypeInt64, TypeFloat32, TypeFloat64:
		return true
	default:
		return false
	}
}

// Default returns the default value for a type, optionally parsed from a
// raw override string (empty means the type's zero value).
func Default(t Type, raw string) (any, error) {
	switch t {
	case TypeInt32, TypeInt64:
		if raw == "" {
			return int64(0), nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field: default %q for %s: %w", raw, t, err)
		}
		return v, nil
	case TypeString:
		return raw, nil
	case TypeBool:
		if raw == "" {
			return false, nil
		}
		return strings.EqualFold(raw, "true"), nil
	case TypeFloat32, TypeFloat64:
		if raw == "" {
			return float64(0), nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("field: default %q for %s: %w", raw, t, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
}

// ParseNumber converts a raw string to the numeric (or bool) domain of
// the given type. Integers are parsed through the float grammar first so
// that "3.0" still lands on 3, matching feature-generation conventions.
func ParseNumber(s string, t Type) (any, error) {
	switch t {
	case TypeInt32, TypeInt64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("field: parse %q as %s: %w", s, t, err)
		}
		return int64(f), nil
	case TypeFloat32, TypeFloat64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("field: parse %q as %s: %w", s, t, err)
		}
		return f, nil
	case TypeBool:
		return s == "true" || s == "True", nil
	default:
		return nil, fmt.Errorf("%w: cannot parse %s", ErrUnknownType, t)
	}
}

// Value is one raw batch column: a typed scalar, 1D array, or pre-encoded
// ragged container. Exactly one of the payload slices is populated,
// matching Type; Ragged is set instead when the reader already produced a
// sparse layout.
type Value struct {
	Type   Type
	scalar bool

	Strings []string
	Ints    []int64
	Floats  []float64
	Bools   []bool

	Ragged *sparse.Container[string]
}

// Scalar wraps a single value as a scalar Value of the given type.
func Scalar[T string | int64 | float64 | bool](t Type, v T) Value {
	val := fromSlice(t, []T{v})
	val.scalar = true
	return val
}

// Vector wraps a 1D array as a Value of the given type.
func Vector[T string | int64 | float64 | bool](t Type, vs []T) Value {
	return fromSlice(t, vs)
}

// Ragged wraps a pre-encoded sparse container as a string-typed Value.
func Ragged(c *sparse.Container[string]) Value {
	return Value{Type: TypeString, Ragged: c}
}

func fromSlice[T string | int64 | float64 | bool](t Type, vs []T) Value {
	v := Value{Type: t}
	switch s := any(vs).(type) {
	case []string:
		v.Strings = s
	case []int64:
		v.Ints = s
	case []float64:
		v.Floats = s
	case []bool:
		v.Bools = s
	}
	return v
}

// IsScalar reports whether the value arrived as a bare scalar.
func (v Value) IsScalar() bool { return v.scalar }

// IsRagged reports whether the value is a pre-encoded sparse container.
func (v Value) IsRagged() bool { return v.Ragged != nil }

// Len returns the number of examples the value spans.
func (v Value) Len() int {
	switch {
	case v.Ragged != nil:
		return int(v.Ragged.Rows())
	case v.Strings != nil:
		return len(v.Strings)
	case v.Ints != nil:
		return len(v.Ints)
	case v.Floats != nil:
		return len(v.Floats)
	case v.Bools != nil:
		return len(v.Bools)
	default:
		return 0
	}
}

// AsStrings returns the value as a string batch. Only string-typed,
// non-ragged values qualify.
func (v Value) AsStrings() ([]string, error) {
	if v.Type != TypeString || v.Strings == nil {
		return nil, fmt.Errorf("field: value of type %s is not a string batch", v.Type)
	}
	return v.Strings, nil
}

// AsFloats returns the value cast to a float64 batch. String values are
// rejected; parse them explicitly with ParseNumber so failures carry the
// offending token.
func (v Value) AsFloats() ([]float64, error) {
	switch v.Type {
	case TypeFloat32, TypeFloat64:
		if v.Floats != nil {
			return v.Floats, nil
		}
	case TypeInt32, TypeInt64:
		if v.Ints != nil {
			out := make([]float64, len(v.Ints))
			for i, n := range v.Ints {
				out[i] = float64(n)
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("field: value of type %s is not numeric", v.Type)
}

// AsInts returns the value as an int64 batch, numeric-parsing string
// values through the float grammar.
func (v Value) AsInts() ([]int64, error) {
	switch v.Type {
	case TypeInt32, TypeInt64:
		if v.Ints != nil {
			return v.Ints, nil
		}
	case TypeString:
		if v.Strings != nil {
			out := make([]int64, len(v.Strings))
			for i, s := range v.Strings {
				n, err := ParseNumber(s, TypeInt64)
				if err != nil {
					return nil, err
				}
				out[i] = n.(int64)
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("field: value of type %s is not an integer batch", v.Type)
}

// concat appends other onto v. Both must share type and representation.
func (v Value) concat(other Value) (Value, error) {
	if v.Type != other.Type {
		return Value{}, fmt.Errorf("field: concat type mismatch: %s vs %s", v.Type, other.Type)
	}
	if v.Ragged != nil || other.Ragged != nil {
		return Value{}, errors.New("field: cannot concat ragged values")
	}
	out := Value{Type: v.Type}
	out.Strings = append(append([]string(nil), v.Strings...), other.Strings...)
	out.Ints = append(append([]int64(nil), v.Ints...), other.Ints...)
	out.Floats = append(append([]float64(nil), v.Floats...), other.Floats...)
	out.Bools = append(append([]bool(nil), v.Bools...), other.Bools...)
	return out, nil
}
