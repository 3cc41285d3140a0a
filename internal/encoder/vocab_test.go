// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package encoder

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/featforge/featforge/internal/logging"
)

func writeVocab(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	return path
}

func TestVocabCacheLookup(t *testing.T) {
	path := writeVocab(t, "apple\nbanana\ncherry\n")
	cache := NewVocabCache(logging.NewTestLogger(io.Discard))

	tests := []struct {
		value string
		def   int64
		want  int64
	}{
		{"apple", 0, 0},
		{"banana", 0, 1},
		{"cherry", 0, 2},
		{"durian", 0, 0},
		{"durian", 7, 7},
	}
	for _, tt := range tests {
		got, err := cache.Lookup(path, tt.value, tt.def)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", tt.value, err)
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}

	size, err := cache.Size(path)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if size != 3 {
		t.Errorf("Size() = %d, want 3", size)
	}
}

func TestVocabCacheMissingFile(t *testing.T) {
	cache := NewVocabCache(logging.NewTestLogger(io.Discard))
	if _, err := cache.Lookup("/nonexistent/vocab.txt", "a", 0); err == nil {
		t.Error("Lookup() on missing file: want error, got nil")
	}
	if _, err := cache.Size("/nonexistent/vocab.txt"); err == nil {
		t.Error("Size() on missing file: want error, got nil")
	}
}

func TestVocabCacheConcurrentLoad(t *testing.T) {
	path := writeVocab(t, "a\nb\nc\n")
	cache := NewVocabCache(logging.NewTestLogger(io.Discard))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := cache.Lookup(path, "b", 0)
			if err != nil {
				t.Errorf("Lookup() error = %v", err)
				return
			}
			if id != 1 {
				t.Errorf("Lookup() = %d, want 1", id)
			}
		}()
	}
	wg.Wait()
}

func TestVocabCachePreload(t *testing.T) {
	path := writeVocab(t, "x\ny\n")
	cache := NewVocabCache(logging.NewTestLogger(io.Discard))
	if err := cache.Preload(path); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	size, err := cache.Size(path)
	if err != nil || size != 2 {
		t.Errorf("Size() = %d, %v, want 2, nil", size, err)
	}
}
