// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// validate is shared across calls; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ConfigError is a fatal catalogue error carrying the feature it
// originated from. Feature is empty for catalogue-level problems.
type ConfigError struct {
	Feature string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Feature == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: feature %s: %v", e.Feature, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error { return e.Err }

// Validate checks structural tags and the semantic rules a catalogue must
// satisfy before the engine will accept it. Boundaries are sorted
// ascending in place as part of validation, matching the contract that
// callers hand the preprocessor sorted cut points.
func (c *Catalogue) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &ConfigError{Err: fmt.Errorf("catalogue validation: %w", err)}
	}

	seen := make(map[string]struct{}, len(c.Features))
	for i := range c.Features {
		fc := &c.Features[i]
		if err := fc.validateSemantics(); err != nil {
			return &ConfigError{Feature: fc.Name(), Err: err}
		}
		name := fc.Name()
		if _, dup := seen[name]; dup {
			return &ConfigError{Feature: name, Err: errors.New("duplicate feature name")}
		}
		seen[name] = struct{}{}
	}

	for name, wd := range c.WideDeep {
		switch wd {
		case Wide, Deep, WideAndDeep:
		default:
			return &ConfigError{Err: fmt.Errorf("wide_deep[%s]: unknown assignment %q", name, wd)}
		}
	}
	return nil
}

func (fc *FeatureConfig) validateSemantics() error {
	if !fc.Type.Valid() {
		return fmt.Errorf("unknown feature type %q", fc.Type)
	}

	sort.Float64s(fc.Boundaries)

	switch fc.Type {
	case FeatureTypeCombo:
		if len(fc.InputNames) < 2 {
			return fmt.Errorf("combo feature needs at least 2 inputs, got %d", len(fc.InputNames))
		}
		if fc.HashBucketSize <= 0 {
			return fmt.Errorf("combo feature needs hash_bucket_size")
		}
	case FeatureTypeLookup:
		if len(fc.InputNames) != 2 {
			return fmt.Errorf("lookup feature needs exactly 2 inputs (key, map), got %d", len(fc.InputNames))
		}
		if fc.FeatureName == "" {
			return fmt.Errorf("lookup feature needs an explicit feature_name")
		}
		if fc.KVSeparator == "" {
			return fmt.Errorf("lookup feature needs kv_separator")
		}
		if fc.HashBucketSize <= 0 {
			return fmt.Errorf("lookup feature needs hash_bucket_size")
		}
	case FeatureTypeSequence:
		switch fc.SubType {
		case FeatureTypeID, FeatureTypeRaw:
		default:
			return fmt.Errorf("sequence sub_feature_type must be id or raw, got %q", fc.SubType)
		}
		if fc.SequenceLength < 1 {
			return fmt.Errorf("sequence feature needs sequence_length")
		}
	case FeatureTypeExpression:
		if fc.Expression == "" {
			return fmt.Errorf("expression feature needs an expression")
		}
		if fc.FeatureName == "" {
			return fmt.Errorf("expression feature needs an explicit feature_name")
		}
	}
	return nil
}
