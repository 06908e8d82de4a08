package offline

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Entry is a cached response: status, headers, and body.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// BucketStore persists cached responses on disk under version-named
// buckets, one JSON file per request identity.
type BucketStore struct {
	root   string
	logger zerolog.Logger
}

// NewBucketStore roots a store at dir.
func NewBucketStore(dir string, logger zerolog.Logger) *BucketStore {
	return &BucketStore{root: dir, logger: logger}
}

// entryPath hashes the request identity into a stable filename.
func (s *BucketStore) entryPath(bucket, key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.root, bucket, fmt.Sprintf("%x.json", sum[:8]))
}

// Get returns the cached entry for the exact request identity, if any.
func (s *BucketStore) Get(bucket, key string) (*Entry, bool) {
	data, err := os.ReadFile(s.entryPath(bucket, key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn().Str("key", key).Err(err).Msg("cache entry corrupt, treating as miss")
		return nil, false
	}
	return &entry, true
}

// Put stores an entry under the request identity.
func (s *BucketStore) Put(bucket, key string, entry *Entry) error {
	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(s.entryPath(bucket, key), data, 0o644)
}

// PruneExcept deletes every bucket other than the named one. A single
// active version exists at a time; there is no rollback.
func (s *BucketStore) PruneExcept(bucket string) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, dirEntry := range entries {
		if !dirEntry.IsDir() || dirEntry.Name() == bucket {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, dirEntry.Name())); err != nil {
			return err
		}
		s.logger.Info().Str("bucket", dirEntry.Name()).Msg("stale cache bucket removed")
	}
	return nil
}
