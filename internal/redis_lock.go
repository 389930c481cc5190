package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ticketpay/config"
	"ticketpay/services"
)

const lockPollInterval = 50 * time.Millisecond

// releaseScript deletes the lock only when it still holds our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// RedisClient is the subset of the redis client used for locking.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker serializes work per key across service instances.
type RedisLocker struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	poll   time.Duration
	logger services.LogHandler
}

func NewRedisLocker(client RedisClient, conf *config.Config, logger services.LogHandler) *RedisLocker {
	ttl := time.Duration(conf.Redis.LockTTL) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: client,
		prefix: conf.Redis.KeyPrefix,
		ttl:    ttl,
		poll:   lockPollInterval,
		logger: logger,
	}
}

// NewRedisClient connects to redis and checks the connection.
func NewRedisClient(ctx context.Context, conf *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (r *RedisLocker) key(key string) string {
	return fmt.Sprintf("%s:lock:%s", r.prefix, key)
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.key(key)
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.poll):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := r.client.Eval(releaseCtx, releaseScript, []string{redisKey}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) && r.logger != nil {
				r.logger.Error(fmt.Sprintf("release lock %s", key), err)
			}
		})
	}, nil
}
