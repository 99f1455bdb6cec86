package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func init() {
	Register("redis", newRedis)
}

const redisOpTimeout = 2 * time.Second

// redisCache stores entries as plain string keys with a server-side TTL.
// Capacity is Redis's problem: size the instance with maxmemory and an
// eviction policy instead of tracking LRU order client-side, which is why
// ProviderConfig.Size and OnEvict are ignored here.
type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger Logger
}

func newRedis(config ProviderConfig) (Cache, error) {
	if config.Logger == nil {
		return nil, errors.New("cache: redis provider requires a logger")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddress,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}

	return &redisCache{
		client: client,
		prefix: "movierec:",
		ttl:    config.TTL,
		logger: config.Logger,
	}, nil
}

func (r *redisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Error("redis get failed", err)
		}
		return nil, false
	}
	return value, true
}

func (r *redisCache) Set(key string, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		r.logger.Error("redis set failed", err)
	}
}

func (r *redisCache) Contains(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	if err != nil {
		r.logger.Error("redis exists failed", err)
		return false
	}
	return n > 0
}

// Len reports the key count of the whole logical database, so the cache
// should run in a database of its own.
func (r *redisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.DBSize(ctx).Result()
	if err != nil {
		r.logger.Error("redis dbsize failed", err)
		return 0
	}
	return int(n)
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
