// package stores persists run state as small JSON files
//
// Three independent blobs survive between runs: the list of track IDs
// already added to the playlist, the canonical-key resolution cache, and
// the not-found log from the most recent run. A missing file reads as the
// empty value; writes go through a temp file rename so a crash mid-write
// cannot corrupt prior state.
package stores

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
)

// AddedStore holds the ordered list of track IDs already appended to the
// playlist across runs.
type AddedStore struct {
	path string
}

// CacheStore holds the canonical key → track ID resolution cache,
// accumulated across runs and never pruned automatically.
type CacheStore struct {
	path string
}

// NotFoundStore holds the entries that failed resolution during the most
// recent run. Overwritten each run, never merged.
type NotFoundStore struct {
	path string
}

func NewAddedStore(path string) *AddedStore       { return &AddedStore{path: path} }
func NewCacheStore(path string) *CacheStore       { return &CacheStore{path: path} }
func NewNotFoundStore(path string) *NotFoundStore { return &NotFoundStore{path: path} }

// Load reads the added-track list. A missing file yields an empty list.
func (s *AddedStore) Load() ([]string, error) {
	var ids []string
	if err := readJSON(s.path, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Save writes the added-track list.
func (s *AddedStore) Save(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return writeJSON(s.path, ids)
}

// Path returns the file backing this store.
func (s *AddedStore) Path() string { return s.path }

// Load reads the resolution cache. A missing file yields an empty map.
func (s *CacheStore) Load() (map[string]string, error) {
	cache := map[string]string{}
	if err := readJSON(s.path, &cache); err != nil {
		return nil, err
	}
	return cache, nil
}

// Save writes the resolution cache.
func (s *CacheStore) Save(cache map[string]string) error {
	if cache == nil {
		cache = map[string]string{}
	}
	return writeJSON(s.path, cache)
}

// Path returns the file backing this store.
func (s *CacheStore) Path() string { return s.path }

// Load reads the not-found log from the previous run.
func (s *NotFoundStore) Load() ([]models.NotFoundEntry, error) {
	var entries []models.NotFoundEntry
	if err := readJSON(s.path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Save overwrites the not-found log with this run's failures.
func (s *NotFoundStore) Save(entries []models.NotFoundEntry) error {
	if entries == nil {
		entries = []models.NotFoundEntry{}
	}
	return writeJSON(s.path, entries)
}

// Path returns the file backing this store.
func (s *NotFoundStore) Path() string { return s.path }

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrStoreRead, path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrStoreRead, path, err)
	}
	return nil
}

func writeJSON(path string, data any) error {
	payload, err := shared.MarshalJSON(data, true)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrStoreWrite, path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrStoreWrite, path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", shared.ErrStoreWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", shared.ErrStoreWrite, path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", shared.ErrStoreWrite, path, err)
	}
	return nil
}
