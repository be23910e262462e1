package repository

import (
	"context"
	"testing"
	"time"

	"iplocator/internal/logging"

	"github.com/stretchr/testify/assert"
)

func TestInitRedis_Fail(t *testing.T) {
	client, err := InitRedis("localhost:1", "", 0)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestInitRedis_BadURL(t *testing.T) {
	client, err := InitRedis("redis://:bad port", "", 0)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestGeoCache_Disabled(t *testing.T) {
	cache := NewGeoCache(nil, logging.Discard())
	assert.False(t, cache.Enabled())

	cache.Set(context.Background(), "k", map[string]string{"a": "b"}, time.Minute)

	var out map[string]string
	assert.False(t, cache.Get(context.Background(), "k", &out))
	assert.Nil(t, out)

	var nilCache *GeoCache
	assert.False(t, nilCache.Enabled())
}
