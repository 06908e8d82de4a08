package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore persists values as JSON strings in Redis. Useful when several
// instances share one snapshot; last write wins, no conflict detection.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisStore connects a store to the given Redis address. An empty
// prefix stores keys unqualified.
func NewRedisStore(addr, username, password, prefix string, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// LoadSnapshot implements Store.
func (s *RedisStore) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := s.load(ctx, SnapshotKey, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SaveSnapshot implements Store.
func (s *RedisStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	return s.save(ctx, SnapshotKey, snap)
}

// LoadTracker implements Store.
func (s *RedisStore) LoadTracker(ctx context.Context) (TrackerState, error) {
	var state TrackerState
	if err := s.load(ctx, TrackerKey, &state); err != nil {
		return TrackerState{}, err
	}
	return state, nil
}

// SaveTracker implements Store.
func (s *RedisStore) SaveTracker(ctx context.Context, state TrackerState) error {
	return s.save(ctx, TrackerKey, state)
}

func (s *RedisStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + ":" + name
}

func (s *RedisStore) load(ctx context.Context, key string, out any) error {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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

func (s *RedisStore) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	// Snapshots never expire: unbounded staleness beats no data at all.
	return s.client.Set(ctx, s.key(key), data, 0).Err()
}
