package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no blob exists under the requested key.
// Callers treat it as "start with empty data".
var ErrNotFound = errors.New("blob not found")

// Store is a whole-blob get/put capability. Blobs are read in full and
// replaced in full; there is no partial update.
type Store interface {
	GetJSON(ctx context.Context, key string, out interface{}) error
	PutJSON(ctx context.Context, key string, value interface{}) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) GetJSON(ctx context.Context, key string, out interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read blob %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode blob %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) PutJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode blob %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

// MemoryStore keeps blobs in a map. Used by tests and local runs without
// a redis instance.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	Puts  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) GetJSON(ctx context.Context, key string, out interface{}) error {
	s.mu.Lock()
	data, ok := s.blobs[key]
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, out)
}

func (s *MemoryStore) PutJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.blobs[key] = data
	s.Puts++
	s.mu.Unlock()
	return nil
}
