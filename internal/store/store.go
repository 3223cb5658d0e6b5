// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists Documents as one artifact file per document in a
// flat directory and bounds how many are retained.
//
// Only files ending in ".md" count as stored items, so the directory can
// also hold intermediate working files. When a save pushes the item count
// above capacity, the oldest items by modification time are removed.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/pdiddy/archive-engine/internal/codec"
	"github.com/pdiddy/archive-engine/pkg/types"
)

const (
	// Suffix marks files that participate in listing and eviction.
	Suffix = ".md"

	sweepLockFile = ".sweep.lock"
)

// Store is a capacity-bounded flat-file document store.
type Store struct {
	dir      string
	capacity int
	logger   *slog.Logger

	// remove deletes evicted files; tests replace it to simulate failures.
	remove func(name string) error
}

// Entry is a listed document together with its file metadata.
type Entry struct {
	Key      string
	Document *types.Document
	ModTime  time.Time
	Size     int64
}

// item is a stored file seen during a directory scan.
type item struct {
	key     string
	modTime time.Time
	size    int64
}

// New returns a store rooted at cfg.DataDir. The directory is created on the
// first save. A nil logger discards log output.
func New(cfg types.StoreConfig, logger *slog.Logger) *Store {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = types.DefaultCapacity
	}
	dir := cfg.DataDir
	if dir == "" {
		dir = types.DefaultDataDir
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{dir: dir, capacity: capacity, logger: logger, remove: os.Remove}
}

// Dir returns the store's backing directory.
func (s *Store) Dir() string { return s.dir }

// KeyFor returns the storage key for a document ID.
func KeyFor(id string) string { return id + Suffix }

// Save writes d under KeyFor(d.ID) and returns the key. The artifact is
// written to a temporary file and renamed into place. If the store then
// holds more than its capacity, the oldest items are evicted; eviction
// problems are logged and never fail the save.
func (s *Store) Save(d types.Document) (string, error) {
	key := KeyFor(d.ID)
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating directory %s: %v", types.ErrStorageFailed, s.dir, err)
	}
	if err := writeAtomic(filepath.Join(s.dir, key), codec.Encode(d)); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", types.ErrStorageFailed, key, err)
	}
	s.logger.Info("document saved", "key", key, "kind", d.Kind, "bytes", len(d.Body))

	s.sweep()
	return key, nil
}

// List returns stored keys, most recently modified first. Keys with equal
// modification times are ordered by key, descending. A missing directory
// yields an empty list.
func (s *Store) List() ([]string, error) {
	items, err := s.scan()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.key
	}
	return keys, nil
}

// Entries decodes every listed document in List order. Items that cannot be
// read or decoded are skipped; their keys are returned in skipped.
func (s *Store) Entries() (entries []Entry, skipped []string, err error) {
	items, err := s.scan()
	if err != nil {
		return nil, nil, err
	}
	for _, it := range items {
		d, err := s.Get(it.key)
		if err != nil {
			s.logger.Warn("skipping unreadable document", "key", it.key, "error", err)
			skipped = append(skipped, it.key)
			continue
		}
		entries = append(entries, Entry{Key: it.key, Document: d, ModTime: it.modTime, Size: it.size})
	}
	return entries, skipped, nil
}

// Get reads and decodes the document stored under key. It fails with
// types.ErrNotFound when the key is absent or unreadable and with
// types.ErrMalformedArtifact when the artifact cannot be decoded.
func (s *Store) Get(key string) (*types.Document, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrNotFound, key, err)
	}
	return codec.Decode(key, data)
}

// Delete removes the document stored under key. Deleting an absent key,
// including one already deleted, fails with types.ErrNotFound.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", types.ErrNotFound, key)
		}
		return fmt.Errorf("%w: deleting %s: %v", types.ErrStorageFailed, key, err)
	}
	s.logger.Info("document deleted", "key", key)
	return nil
}

// sweep evicts every item beyond the capacity most recent. Only one process
// sweeps a directory at a time; if the lock is held elsewhere the sweep is
// skipped and the next save converges the count.
func (s *Store) sweep() {
	items, err := s.scan()
	if err != nil {
		s.logger.Warn("eviction scan failed", "dir", s.dir, "error", err)
		return
	}
	if len(items) <= s.capacity {
		return
	}

	lock := flock.New(filepath.Join(s.dir, sweepLockFile))
	ok, err := lock.TryLock()
	if err != nil {
		s.logger.Warn("eviction lock failed", "dir", s.dir, "error", err)
		return
	}
	if !ok {
		s.logger.Debug("eviction already running elsewhere", "dir", s.dir)
		return
	}
	defer func() { _ = lock.Unlock() }()

	for _, it := range items[s.capacity:] {
		if err := s.remove(filepath.Join(s.dir, it.key)); err != nil {
			s.logger.Warn("failed to evict document", "key", it.key, "error", err)
			continue
		}
		s.logger.Info("evicted document", "key", it.key)
	}
}

// scan lists stored items sorted by modification time descending, then key
// descending.
func (s *Store) scan() ([]item, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", types.ErrStorageFailed, s.dir, err)
	}

	items := make([]item, 0, len(dirEntries))
	for _, e := range dirEntries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !strings.HasSuffix(e.Name(), Suffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		items = append(items, item{key: e.Name(), modTime: info.ModTime(), size: info.Size()})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].modTime.Equal(items[j].modTime) {
			return items[i].modTime.After(items[j].modTime)
		}
		return items[i].key > items[j].key
	})
	return items, nil
}

// validateKey rejects keys that would escape the store directory or are
// not stored items.
func validateKey(key string) error {
	if key == "" || key != filepath.Base(key) || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: invalid key %q", types.ErrInvalidInput, key)
	}
	if !strings.HasSuffix(key, Suffix) || key == Suffix {
		return fmt.Errorf("%w: key %q must end in %s", types.ErrInvalidInput, key, Suffix)
	}
	return nil
}

// writeAtomic writes data to a temporary file in path's directory and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".save-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
