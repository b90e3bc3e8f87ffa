package leaderboard

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("BOOSTLY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BOOSTLY_TEST_REDIS_ADDR не задан, пропускаем тест с Redis")
	}
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	cache := NewRedisCache(rdb, time.Minute)
	cache.Invalidate(ctx)

	v, err := cache.Version(ctx)
	require.NoError(t, err)
	_, ok := cache.Get(ctx, v, 10)
	assert.False(t, ok)

	page := []Entry{{StudentID: uuid.New(), DisplayName: "Bianca", TotalCreditsReceived: 80}}
	cache.Set(ctx, v, 10, page)
	got, ok := cache.Get(ctx, v, 10)
	require.True(t, ok)
	assert.Equal(t, page, got)

	cache.Invalidate(ctx)
	next, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, v+1, next)
	_, ok = cache.Get(ctx, next, 10)
	assert.False(t, ok)

	// запоздалая запись под старым поколением не видна в новом
	cache.Set(ctx, v, 10, page)
	_, ok = cache.Get(ctx, next, 10)
	assert.False(t, ok)
}
