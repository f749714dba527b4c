// Package filecache implements the CacheStore port as JSON files in a single
// directory, one file per query key.
package filecache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/githubmeta/internal/domain/port/driven"
)

// entryPrefix is shared by every file this store writes; Clear only removes
// files carrying it.
const entryPrefix = "github_metadata__"

// Compile-time interface satisfaction check.
var _ driven.CacheStore = (*Store)(nil)

// Store is the filesystem implementation of the CacheStore port interface.
// It owns the JSON entries in its directory exclusively. There is no
// cross-process locking: concurrent writers of one key race, the last rename
// wins, and every individual write is complete.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path used for key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// ReadFresh decodes the entry for key into v when its modification time is
// within ttl of now. Missing, unreadable and corrupt entries are misses.
func (s *Store) ReadFresh(key string, ttl time.Duration, v any) bool {
	info, err := os.Stat(s.Path(key))
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > ttl {
		slog.Debug("cache entry stale", "key", key, "age", time.Since(info.ModTime()).Round(time.Second))
		return false
	}
	return s.ReadAny(key, v)
}

// ReadAny decodes the entry for key into v regardless of its age. v must be
// a non-nil pointer and is only modified when the whole entry decodes.
func (s *Store) ReadAny(key string, v any) bool {
	dst := reflect.ValueOf(v)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return false
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return false
	}
	tmp := reflect.New(dst.Type().Elem())
	if err := json.Unmarshal(data, tmp.Interface()); err != nil {
		slog.Debug("cache entry unreadable", "key", key, "error", err)
		return false
	}
	dst.Elem().Set(tmp.Elem())
	return true
}

// Write replaces the entry for key with the indented JSON encoding of v.
// Map keys are emitted in sorted order, so equal values produce identical
// files.
func (s *Store) Write(key string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return s.writeFrom(key, &buf)
}

// writeFrom streams r into a temporary file next to the entry and renames it
// into place only once r is fully consumed. A failed write leaves any
// previous entry untouched.
func (s *Store) writeFrom(key string, r io.Reader) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %s: %w", s.dir, err)
	}
	if err := atomic.WriteFile(s.Path(key), r); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return nil
}

// Clear removes every entry written by this store and returns how many were
// deleted. Other files in the directory are left alone.
func (s *Store) Clear() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache dir %s: %w", s.dir, err)
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, entryPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return removed, fmt.Errorf("remove cache entry %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
