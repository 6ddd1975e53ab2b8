package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileStore implements a file-based Store for CLI usage.
// Each key is stored as a JSON file carrying its expiration.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

type fileEntry struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (s *FileStore) read(key string) (*fileEntry, error) {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Invalid cache entry - treat as miss
		_ = os.Remove(path)
		return nil, ErrCacheMiss
	}

	if !entry.ExpiresAt.IsZero() && !s.now().Before(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, ErrCacheMiss
	}
	return &entry, nil
}

// Get retrieves a document from disk.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.read(key)
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

// Set writes a document to disk. data must be valid JSON.
func (s *FileStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Key: key, Data: data}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, entryData, 0644)
}

// TTL returns the remaining lifetime recorded in the file.
func (s *FileStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	entry, err := s.read(key)
	if err != nil {
		return 0, err
	}
	if entry.ExpiresAt.IsZero() {
		return NoExpiry, nil
	}
	return entry.ExpiresAt.Sub(s.now()), nil
}

// Delete removes the file for key.
func (s *FileStore) Delete(ctx context.Context, key string) (bool, error) {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// Exists reports whether a live entry exists for key.
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.read(key)
	if err == ErrCacheMiss {
		return false, nil
	}
	return err == nil, err
}

// Dir returns the directory holding the cache files.
func (s *FileStore) Dir() string { return s.dir }

// Close does nothing for file store.
func (s *FileStore) Close() error {
	return nil
}

// path converts a cache key to a file path.
// The first two hash characters pick a subdirectory to keep directories small.
func (s *FileStore) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

var _ Store = (*FileStore)(nil)
