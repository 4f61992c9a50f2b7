package cache

import (
	"context"
	"testing"
	"time"

	"news-aggregator/internal/fetchers"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, New(rdb)
}

func TestKeyFormat(t *testing.T) {
	assert.Equal(t, "news:climate:en", Key("climate", "en"))
	assert.Equal(t, "news:climate:all", Key("climate", ""))
}

func TestCacheRoundTrip(t *testing.T) {
	_, c := setup(t)
	ctx := context.Background()

	articles := []fetchers.RawArticle{{Title: "A", URL: "http://a/1"}}
	require.NoError(t, c.Set(ctx, "climate", "en", articles))

	got, ok := c.Get(ctx, "climate", "en")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "http://a/1", got[0].URL)
}

func TestCacheMiss(t *testing.T) {
	_, c := setup(t)

	_, ok := c.Get(context.Background(), "never-cached", "en")
	assert.False(t, ok)
}

func TestCacheExpires(t *testing.T) {
	mr, c := setup(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "climate", "en", nil))
	assert.Equal(t, TTL, mr.TTL(Key("climate", "en")))

	mr.FastForward(TTL + time.Second)
	_, ok := c.Get(ctx, "climate", "en")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	_, c := setup(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "climate", "en", []fetchers.RawArticle{{URL: "http://a/1"}}))
	require.NoError(t, c.Invalidate(ctx, "climate", "en"))

	_, ok := c.Get(ctx, "climate", "en")
	assert.False(t, ok)
}
