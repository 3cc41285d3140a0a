// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package encoder

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/featforge/featforge/internal/metrics"
)

// VocabCache lazily loads vocabulary files and caches their contents and
// size, at most once per distinct path. It is the only mutable shared
// state in the engine; all methods are safe for concurrent use.
type VocabCache struct {
	mu     sync.RWMutex
	tokens map[string][]string
	index  map[string]map[string]int64
	logger zerolog.Logger
}

// NewVocabCache creates an empty cache. The logger is used for one info
// line per file load.
func NewVocabCache(logger zerolog.Logger) *VocabCache {
	return &VocabCache{
		tokens: make(map[string][]string),
		index:  make(map[string]map[string]int64),
		logger: logger.With().Str("component", "vocab_cache").Logger(),
	}
}

// Lookup returns the index of value in the vocabulary file at path, or
// def when the token is absent. The file is read on first use; an
// unreadable path is a fatal error.
func (c *VocabCache) Lookup(path, value string, def int64) (int64, error) {
	idx, err := c.load(path)
	if err != nil {
		return 0, err
	}
	if id, ok := idx[value]; ok {
		return id, nil
	}
	return def, nil
}

// Size returns the number of tokens in the vocabulary file at path,
// loading it on first use.
func (c *VocabCache) Size(path string) (int64, error) {
	if _, err := c.load(path); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.tokens[path])), nil
}

// Preload reads every given path eagerly. Useful before handing the
// cache to concurrent batch workers, so no worker pays the load.
func (c *VocabCache) Preload(paths ...string) error {
	for _, p := range paths {
		if _, err := c.load(p); err != nil {
			return err
		}
	}
	return nil
}

// load returns the token index for path, reading the file at most once.
func (c *VocabCache) load(path string) (map[string]int64, error) {
	c.mu.RLock()
	idx, ok := c.index[path]
	c.mu.RUnlock()
	if ok {
		return idx, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have loaded it while we waited for the lock.
	if idx, ok := c.index[path]; ok {
		return idx, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("encoder: open vocabulary file %s: %w", path, err)
	}
	defer f.Close()

	var tokens []string
	idx = make(map[string]int64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tok := scanner.Text()
		if _, dup := idx[tok]; !dup {
			idx[tok] = int64(len(tokens))
		}
		tokens = append(tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("encoder: read vocabulary file %s: %w", path, err)
	}

	c.tokens[path] = tokens
	c.index[path] = idx
	metrics.VocabFileLoads.Inc()
	metrics.VocabCacheEntries.Set(float64(len(c.index)))
	c.logger.Info().Str("path", path).Int("tokens", len(tokens)).Msg("Vocabulary file loaded")
	return idx, nil
}
