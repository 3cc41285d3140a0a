// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

// Package main is the entry point for the featforge command line tool.
//
// Featforge converts raw recommendation batches into canonical numeric
// representations, driven by a declarative feature catalogue. The tool
// initializes components in the following order:
//
//  1. Configuration: load the catalogue from YAML/JSON with env overrides (Koanf v2)
//  2. Vocabulary cache: preload every vocabulary file the catalogue references
//  3. Column registry: classify features into wide/deep/sequence tables
//  4. Preprocessor: parse the input batch feature by feature
//
// # Example Usage
//
// Preprocess one batch and print the parsed result:
//
//	featforge -catalogue catalogue.yaml -batch batch.json
//
// Write the result and the resolved column registry to files:
//
//	featforge -catalogue catalogue.yaml -batch batch.json \
//	  -out parsed.json -registry registry.json
//
// The batch file is a JSON object mapping field names to arrays of
// strings, numbers, or booleans, one entry per example.
//
// Catalogue values may be overridden via FEATFORGE_* environment
// variables, e.g. FEATFORGE_SAMPLE_WEIGHT=importance.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/featforge/featforge/internal/columns"
	"github.com/featforge/featforge/internal/config"
	"github.com/featforge/featforge/internal/encoder"
	"github.com/featforge/featforge/internal/field"
	"github.com/featforge/featforge/internal/logging"
	"github.com/featforge/featforge/internal/preprocess"
)

func main() {
	var (
		cataloguePath = flag.String("catalogue", "", "feature catalogue file (yaml or json)")
		batchPath     = flag.String("batch", "", "raw batch file (json)")
		outPath       = flag.String("out", "", "parsed result output file (default stdout)")
		registryPath  = flag.String("registry", "", "write the resolved column registry to this file")
		logLevel      = flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
		logFormat     = flag.String("log-format", "console", "log format (json or console)")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: *logFormat})

	if *cataloguePath == "" || *batchPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cat, err := config.Load(*cataloguePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load catalogue")
	}
	logging.Info().
		Int("features", len(cat.Features)).
		Int("labels", len(cat.Labels)).
		Msg("Catalogue loaded")

	vocab := encoder.NewVocabCache(logging.Logger())
	if err := vocab.Preload(cat.VocabFiles()...); err != nil {
		logging.Fatal().Err(err).Msg("Failed to preload vocabulary files")
	}

	registry, err := columns.NewBuilder(vocab).Build(cat)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build column registry")
	}
	if *registryPath != "" {
		if err := writeJSON(*registryPath, registry); err != nil {
			logging.Fatal().Err(err).Msg("Failed to write registry")
		}
	}

	batch, err := readBatch(*batchPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to read batch")
	}

	result, err := preprocess.New(cat, vocab).Process(batch)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to preprocess batch")
	}

	if *outPath == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logging.Fatal().Err(err).Msg("Failed to encode result")
		}
		return
	}
	if err := writeJSON(*outPath, result); err != nil {
		logging.Fatal().Err(err).Msg("Failed to write result")
	}
	logging.Info().Str("path", *outPath).Msg("Parsed batch written")
}

// readBatch loads a JSON batch file: field name to one array per field.
// Arrays must be homogeneous; numbers become float64 columns.
func readBatch(path string) (*field.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("batch file %s: %w", path, err)
	}

	batch := field.NewBatch()
	for name, entries := range raw {
		v, err := decodeColumn(entries)
		if err != nil {
			return nil, fmt.Errorf("batch field %s: %w", name, err)
		}
		batch.Set(name, v)
	}
	return batch, nil
}

// decodeColumn infers the column type from the first entry.
func decodeColumn(entries []json.RawMessage) (field.Value, error) {
	if len(entries) == 0 {
		return field.Vector[string](field.TypeString, nil), nil
	}
	var probe any
	if err := json.Unmarshal(entries[0], &probe); err != nil {
		return field.Value{}, err
	}
	switch probe.(type) {
	case string:
		out := make([]string, len(entries))
		for i, e := range entries {
			if err := json.Unmarshal(e, &out[i]); err != nil {
				return field.Value{}, err
			}
		}
		return field.Vector(field.TypeString, out), nil
	case float64:
		out := make([]float64, len(entries))
		for i, e := range entries {
			if err := json.Unmarshal(e, &out[i]); err != nil {
				return field.Value{}, err
			}
		}
		return field.Vector(field.TypeFloat64, out), nil
	case bool:
		out := make([]bool, len(entries))
		for i, e := range entries {
			if err := json.Unmarshal(e, &out[i]); err != nil {
				return field.Value{}, err
			}
		}
		return field.Vector(field.TypeBool, out), nil
	default:
		return field.Value{}, fmt.Errorf("unsupported entry type %T", probe)
	}
}

// writeJSON marshals v indented and writes it to path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
