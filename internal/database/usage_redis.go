package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// usageKeyTTL keeps a day's hash around long enough for any timezone to finish that day
const usageKeyTTL = 48 * time.Hour

// RedisConfig holds the Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisUsageStore keeps one hash per user and day ("usage:<user>:<day>") with a field per
// action. HINCRBY is atomic, so concurrent increments never lose updates.
type RedisUsageStore struct {
	rdb *goredis.Client
}

// NewRedisUsageStore connects to Redis and verifies the connection
func NewRedisUsageStore(cfg RedisConfig) (*RedisUsageStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: missing address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisUsageStore{rdb: rdb}, nil
}

// NewRedisUsageStoreWithClient wraps an existing client
func NewRedisUsageStoreWithClient(rdb *goredis.Client) *RedisUsageStore {
	return &RedisUsageStore{rdb: rdb}
}

// Close releases the Redis connection pool
func (s *RedisUsageStore) Close() error {
	return s.rdb.Close()
}

func usageKey(userID, day string) string {
	return "usage:" + userID + ":" + day
}

// GetUsage returns the counter for one action, 0 when nothing was recorded that day
func (s *RedisUsageStore) GetUsage(ctx context.Context, userID, day string, action models.ActionType) (int, error) {
	n, err := s.rdb.HGet(ctx, usageKey(userID, day), string(action)).Int()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Persistence("get usage", err)
	}
	return n, nil
}

// GetDailyUsage returns every counter recorded for the user on day
func (s *RedisUsageStore) GetDailyUsage(ctx context.Context, userID, day string) (map[models.ActionType]int, error) {
	fields, err := s.rdb.HGetAll(ctx, usageKey(userID, day)).Result()
	if err != nil {
		return nil, apperr.Persistence("get daily usage", err)
	}

	usage := make(map[models.ActionType]int, len(fields))
	for action, raw := range fields {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		usage[models.ActionType(action)] = n
	}
	return usage, nil
}

// IncrementUsage atomically adds one to the counter and returns the new value
func (s *RedisUsageStore) IncrementUsage(ctx context.Context, userID, day string, action models.ActionType) (int, error) {
	key := usageKey(userID, day)

	pipe := s.rdb.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, string(action), 1)
	pipe.Expire(ctx, key, usageKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, apperr.Persistence("increment usage", err)
	}
	return int(incr.Val()), nil
}
