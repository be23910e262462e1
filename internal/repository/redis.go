package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"iplocator/internal/logging"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects to addr, which may be host:port or a redis:// URL.
func InitRedis(addr string, password string, db int) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		if password != "" {
			parsed.Password = password
		}
		opts = parsed
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}

// GeoCache stores lookup results as JSON. A nil client disables it and every
// Redis error is treated as a miss.
type GeoCache struct {
	rdb    *redis.Client
	logger logging.Logger
}

func NewGeoCache(rdb *redis.Client, logger logging.Logger) *GeoCache {
	return &GeoCache{rdb: rdb, logger: logger}
}

func (c *GeoCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get decodes the cached value for key into dst and reports whether it hit.
func (c *GeoCache) Get(ctx context.Context, key string, dst any) bool {
	if !c.Enabled() {
		return false
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Geo cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		c.logger.Warn("Geo cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *GeoCache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("Geo cache write failed", "key", key, "error", err)
	}
}
