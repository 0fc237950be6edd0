package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gadrian78/he-tokens-snapshot/internal/fileutil"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

// FileStorage persists cache entries as a single JSON document.
type FileStorage struct {
	path string
}

// NewFileStorage creates a new file-based cache storage.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// fileDocument is the on-disk shape of the cache.
type fileDocument struct {
	Entries map[string]Entry `json:"entries"`
}

// Save writes the entries to the filesystem atomically.
func (s *FileStorage) Save(entries map[string]Entry) error {
	if err := fileutil.WriteJSONAtomic(s.path, fileDocument{Entries: entries}); err != nil {
		return fmt.Errorf("saving cache %s: %w: %w", s.path, snaperr.ErrCacheStorage, err)
	}
	return nil
}

// Load reads entries from the filesystem. A missing file yields an empty
// map. A corrupt file is moved aside so the next save starts clean, and an
// ErrCacheStorage error is returned alongside the empty map.
func (s *FileStorage) Load() (map[string]Entry, error) {
	empty := make(map[string]Entry)

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return empty, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return empty, snaperr.Wrap(snaperr.ErrCacheStorage, "reading cache %s", s.path)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			return empty, snaperr.Wrap(snaperr.ErrCacheStorage,
				"cache %s is corrupted and could not be moved aside", s.path)
		}
		return empty, snaperr.Wrap(snaperr.ErrCacheStorage,
			"cache %s is corrupted (moved to %s)", s.path, corruptPath)
	}

	if doc.Entries == nil {
		return empty, nil
	}
	return doc.Entries, nil
}

// Path returns the cache file path.
func (s *FileStorage) Path() string {
	return s.path
}
