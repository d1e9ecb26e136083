package slots

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

var day = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func sampleSlots() []domain.TimeSlot {
	return []domain.TimeSlot{
		{StartTime: "09:00", EndTime: "09:30", IsAvailable: true, SourceAvailabilityID: ptr.Ptr(int64(7))},
		{StartTime: "09:30", EndTime: "10:00", IsAvailable: false, SourceAvailabilityID: ptr.Ptr(int64(7))},
	}
}

func fill(t *testing.T, cache *Cache, providerID int64, date time.Time, duration int) {
	t.Helper()
	ctx := context.Background()
	gen, err := cache.Generation(ctx, providerID, date)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, providerID, date, duration, sampleSlots(), gen))
}

func TestCache_SetGet(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, 100, day, 30)
	require.NoError(t, err)
	assert.False(t, ok)

	fill(t, cache, 100, day, 30)

	got, ok, err := cache.Get(ctx, 100, day, 30)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleSlots(), got)

	_, ok, err = cache.Get(ctx, 100, day, 60)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, time.Minute, mr.TTL("scheduling:slots:100:2025-10-15"))
}

func TestCache_Expires(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	fill(t, cache, 100, day, 30)
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, 100, day, 30)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()
	nextDay := day.AddDate(0, 0, 1)

	fill(t, cache, 100, day, 30)
	fill(t, cache, 100, day, 60)
	fill(t, cache, 100, nextDay, 30)

	require.NoError(t, cache.Invalidate(ctx, 100, day))

	_, ok, _ := cache.Get(ctx, 100, day, 30)
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, 100, day, 60)
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, 100, nextDay, 30)
	assert.True(t, ok)
}

func TestCache_InvalidateProvider(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	fill(t, cache, 100, day, 30)
	fill(t, cache, 100, day.AddDate(0, 0, 1), 30)
	fill(t, cache, 1000, day, 30)

	require.NoError(t, cache.InvalidateProvider(ctx, 100))

	_, ok, _ := cache.Get(ctx, 100, day, 30)
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, 100, day.AddDate(0, 0, 1), 30)
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, 1000, day, 30)
	assert.True(t, ok)
}

func TestCache_RedisDown(t *testing.T) {
	cache, mr := newCache(t)
	mr.Close()

	_, _, err := cache.Get(context.Background(), 100, day, 30)
	assert.ErrorIs(t, err, ErrCacheRead)
	assert.ErrorIs(t, cache.Set(context.Background(), 100, day, 30, sampleSlots(), "0:0"), ErrCacheWrite)
}

func TestCache_SetDroppedAfterInvalidate(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	// поколение прочитано до расчета, запись создана и кэш сброшен до Set
	gen, err := cache.Generation(ctx, 100, day)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, 100, day))

	err = cache.Set(ctx, 100, day, 30, sampleSlots(), gen)
	assert.ErrorIs(t, err, ErrStale)

	_, ok, err := cache.Get(ctx, 100, day, 30)
	require.NoError(t, err)
	assert.False(t, ok)

	// следующий читатель видит новое поколение и заполняет кэш
	fill(t, cache, 100, day, 30)
	_, ok, _ = cache.Get(ctx, 100, day, 30)
	assert.True(t, ok)
}

func TestCache_SetDroppedAfterInvalidateProvider(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, 100, day)
	require.NoError(t, err)
	require.NoError(t, cache.InvalidateProvider(ctx, 100))

	assert.ErrorIs(t, cache.Set(ctx, 100, day, 30, sampleSlots(), gen), ErrStale)

	// другие исполнители не затронуты
	fill(t, cache, 1000, day, 30)
}

func TestCache_InvalidateOtherDateKeepsGeneration(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, 100, day)
	require.NoError(t, err)
	assert.Equal(t, "0:0", gen)

	require.NoError(t, cache.Invalidate(ctx, 100, day.AddDate(0, 0, 1)))
	assert.NoError(t, cache.Set(ctx, 100, day, 30, sampleSlots(), gen))
}
