// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

// Package config defines the declarative feature catalogue: the read-only
// descriptors that drive the preprocessor and the column registry.
//
// A catalogue is loaded once at startup from a YAML or JSON file
// (koanf file provider, FEATFORGE_* environment overrides), validated,
// normalized, and frozen. FeatureConfig values are never mutated after
// Load returns.
//
// Feature types form a closed set (id, tag, raw, combo, lookup, sequence,
// expression); every consumer dispatches over them with a single switch.
package config
