// internal/repository/redis/kv_redis.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"securebank/internal/repository"
	"securebank/internal/util"
)

const defaultPrefix = "securebank"

// KVStore implements repository.KVStore on a Redis server.
type KVStore struct {
	client goredis.UniversalClient
	prefix string
}

var (
	_ repository.KVStore     = (*KVStore)(nil)
	_ repository.BatchWriter = (*KVStore)(nil)
)

// NewKVStore wraps client; every key is stored as "<prefix>:<key>".
func NewKVStore(client goredis.UniversalClient, prefix string) *KVStore {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if p == "" {
		p = defaultPrefix
	}
	return &KVStore{client: client, prefix: p}
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (s *KVStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return b, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// WriteBatch sends all writes in one MULTI/EXEC block.
func (s *KVStore) WriteBatch(ctx context.Context, sets map[string][]byte, deletes []string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for k, v := range sets {
			pipe.Set(ctx, s.key(k), v, 0)
		}
		for _, k := range deletes {
			pipe.Del(ctx, s.key(k))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}
