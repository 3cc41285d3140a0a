// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package encoder

import (
	"github.com/cespare/xxhash/v2"
)

// Strategy identifies how a categorical value becomes an integer id.
type Strategy int

const (
	// StrategyIdentity passes integer values through when they fall in
	// [0, numBuckets), substituting the default otherwise.
	StrategyIdentity Strategy = iota
	// StrategyHash buckets the value with a stable string hash.
	StrategyHash
	// StrategyVocabList indexes the value in an inline vocabulary.
	StrategyVocabList
	// StrategyVocabFile indexes the value in a newline-delimited file.
	StrategyVocabFile
)

// String returns a human-readable name for the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyHash:
		return "hash_bucket"
	case StrategyVocabList:
		return "vocab_list"
	case StrategyVocabFile:
		return "vocab_file"
	case StrategyIdentity:
		return "identity"
	default:
		return "unknown"
	}
}

// StrategyFor selects the encoding strategy for a feature from its
// categorical parameters. Priority is hash bucket > vocabulary list >
// vocabulary file > identity; when several are configured the
// higher-priority one wins.
func StrategyFor(hashBucketSize int64, vocabList []string, vocabFile string) Strategy {
	switch {
	case hashBucketSize > 0:
		return StrategyHash
	case len(vocabList) > 0:
		return StrategyVocabList
	case vocabFile != "":
		return StrategyVocabFile
	default:
		return StrategyIdentity
	}
}

// crossSep joins the components of a crossed feature before hashing.
// A group-separator byte keeps ("ab","c") distinct from ("a","bc").
const crossSep = "\x1d"

// HashBucket maps a string value to [0, bucketSize) with xxhash64.
func HashBucket(value string, bucketSize int64) int64 {
	return int64(xxhash.Sum64String(value) % uint64(bucketSize))
}

// CrossHash maps a tuple of field values to [0, bucketSize). Used by
// combo features, which cross several raw inputs into one id space.
func CrossHash(parts []string, bucketSize int64) int64 {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.WriteString(crossSep)
		}
		_, _ = d.WriteString(p)
	}
	return int64(d.Sum64() % uint64(bucketSize))
}

// VocabIndex returns the index of value in list, or def when absent.
func VocabIndex(value string, list []string, def int64) int64 {
	for i, v := range list {
		if v == value {
			return int64(i)
		}
	}
	return def
}

// Identity returns value when it falls in [0, numBuckets), def otherwise.
func Identity(value, numBuckets, def int64) int64 {
	if value >= 0 && value < numBuckets {
		return value
	}
	return def
}
