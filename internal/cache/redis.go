package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	redisdb *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &RedisStore{redisdb: redisdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.redisdb.Get(ctx, key).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	return b, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.redisdb.Set(ctx, key, val, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.redisdb.Del(ctx, key).Err()
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.redisdb.TTL(ctx, key).Result()

	if err != nil {
		return 0, false, err
	}

	// go-redis maps "no such key" to a negative duration
	if d < 0 {
		return 0, false, nil
	}

	return d, true, nil
}

// this ping function checks redis connectivity

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redisdb.Ping(ctx).Err()
}

// this closes the client

func (s *RedisStore) Close() error {
	return s.redisdb.Close()
}
