package blob

import (
	"context"
	"errors"

	"github.com/pipecenter/pipecenter-api/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each blob as a plain string value under prefix+key
type RedisStore struct {
	cli    *redis.Client
	prefix string
}

func NewRedisStore(cli *redis.Client, prefix string) *RedisStore {
	return &RedisStore{cli: cli, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.cli.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperror.NewStorageError("get", key, err)
	}
	return out, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.cli.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return apperror.NewStorageError("put", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.cli.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return false, apperror.NewStorageError("delete", key, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Persistent() bool { return true }
