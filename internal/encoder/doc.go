// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

// Package encoder maps raw categorical values to integer ids.
//
// Four strategies exist, selected per feature by a hard priority order:
// hash bucket > vocabulary list > vocabulary file > identity range. The
// priority is a contract with catalogue authors: configuring more than
// one strategy is not an error, the higher-priority one simply wins.
//
// Hash ids are computed with xxhash64 over the token's UTF-8 bytes,
// modulo the bucket size. The hash is stable within one process and one
// build of this module; id parity across implementations is explicitly
// not promised.
//
// Vocabulary files are newline-delimited token lists, read in full once
// per distinct path into a process-wide cache (VocabCache). The cache is
// the only mutable shared state in the engine and is safe for concurrent
// use.
package encoder
