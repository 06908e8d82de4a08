package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileStore persists values as JSON files on disk, one file per key.
type FileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore returns a JSON-backed store rooted at dir.
func NewFileStore(dir string, logger zerolog.Logger) *FileStore {
	return &FileStore{dir: dir, logger: logger}
}

// LoadSnapshot implements Store.
func (s *FileStore) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := s.load(ctx, SnapshotKey, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SaveSnapshot implements Store.
func (s *FileStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	return s.save(ctx, SnapshotKey, snap)
}

// LoadTracker implements Store.
func (s *FileStore) LoadTracker(ctx context.Context) (TrackerState, error) {
	var state TrackerState
	if err := s.load(ctx, TrackerKey, &state); err != nil {
		return TrackerState{}, err
	}
	return state, nil
}

// SaveTracker implements Store.
func (s *FileStore) SaveTracker(ctx context.Context, state TrackerState) error {
	return s.save(ctx, TrackerKey, state)
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) load(ctx context.Context, key string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn().Str("key", key).Err(err).Msg("stored value corrupt, treating as absent")
		return ErrNotFound
	}
	return nil
}

// save writes the value atomically: encode to a temp file in the same
// directory, fsync, then rename over the destination.
func (s *FileStore) save(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(s.dir, "."+key+"-*.json")
	if err != nil {
		return err
	}

	cleanup := func() {
		_ = os.Remove(tempFile.Name())
	}

	encoder := json.NewEncoder(tempFile)
	if err := encoder.Encode(value); err != nil {
		_ = tempFile.Close()
		cleanup()
		return err
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		cleanup()
		return err
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return err
	}

	if err := os.Rename(tempFile.Name(), s.path(key)); err != nil {
		cleanup()
		return err
	}

	if dirHandle, err := os.Open(s.dir); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}

	return nil
}
