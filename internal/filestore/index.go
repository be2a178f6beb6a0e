package filestore

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryIndex is an in-process Index.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryIndex returns an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]string)}
}

func (m *MemoryIndex) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hash, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return hash, nil
}

func (m *MemoryIndex) Set(_ context.Context, key, hash string) error {
	m.mu.Lock()
	m.entries[key] = hash
	m.mu.Unlock()
	return nil
}

// DefaultRedisKey is the hash that holds file entries.
const DefaultRedisKey = "qrblock:files"

// RedisIndex stores entries as fields of one Redis hash so every
// instance sharing the blob root sees the same names.
type RedisIndex struct {
	client redis.UniversalClient
	key    string
}

// NewRedisIndex returns a RedisIndex using hashKey, or DefaultRedisKey when empty.
func NewRedisIndex(client redis.UniversalClient, hashKey string) *RedisIndex {
	if hashKey == "" {
		hashKey = DefaultRedisKey
	}
	return &RedisIndex{client: client, key: hashKey}
}

func (r *RedisIndex) Get(ctx context.Context, key string) (string, error) {
	hash, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return hash, err
}

func (r *RedisIndex) Set(ctx context.Context, key, hash string) error {
	return r.client.HSet(ctx, r.key, key, hash).Err()
}

var (
	_ Index = (*MemoryIndex)(nil)
	_ Index = (*RedisIndex)(nil)
)
