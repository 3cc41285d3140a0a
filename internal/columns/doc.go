// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

// Package columns resolves the feature catalogue into lookup-table
// descriptors, once at startup.
//
// Every configured feature is classified into the wide, deep, or
// sequence table by its wide/deep assignment; a feature absent from the
// assignment map is skipped with a warning rather than aborting the
// build. Features sharing an embedding_name resolve to the same
// underlying table descriptor, provided their embedding parameters are
// character-for-character identical; groups that end up with a single
// member degrade to private tables.
//
// The resulting Registry is immutable and consumed by the embedding
// layer alongside each preprocessed batch.
package columns
