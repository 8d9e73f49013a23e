package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omni/interchain-tracker/config"
)

type KeyValueStore struct {
	rdb *redis.Client
}

func NewKeyValueStore(ctx context.Context, cfg *config.RedisConfig) (*KeyValueStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("can't parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("can't connect to redis: %w", err)
	}
	return &KeyValueStore{rdb: rdb}, nil
}

func NewKeyValueStoreFromClient(rdb *redis.Client) *KeyValueStore {
	return &KeyValueStore{rdb: rdb}
}

func (s *KeyValueStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("can't get redis key: %w", err)
	}
	return value, true, nil
}

func (s *KeyValueStore) SetItem(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("can't set redis key: %w", err)
	}
	return nil
}

func (s *KeyValueStore) RemoveItem(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("can't delete redis key: %w", err)
	}
	return nil
}

func (s *KeyValueStore) Close() error {
	return s.rdb.Close()
}
