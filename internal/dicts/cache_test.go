package dicts

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*ItemCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewItemCache(client, slog.Default()), mr
}

func fixtureItems() []DictItem {
	return []DictItem{
		{ID: uuid.New(), TypeCode: "order_status", Label: "Open", Value: "open", Sort: 1, IsActive: true},
		{ID: uuid.New(), TypeCode: "order_status", Label: "Closed", Value: "closed", Sort: 2, IsActive: true},
	}
}

func TestItemsLoadsOnMissAndServesFromCache(t *testing.T) {
	cache, _ := newTestCache(t)
	items := fixtureItems()
	loads := 0
	load := func(ctx context.Context) ([]DictItem, error) {
		loads++
		return items, nil
	}

	got, err := cache.Items(context.Background(), "order_status", load)
	require.NoError(t, err)
	assert.Equal(t, items, got)
	assert.Equal(t, 1, loads)

	got, err = cache.Items(context.Background(), "order_status", load)
	require.NoError(t, err)
	assert.Equal(t, items, got)
	assert.Equal(t, 1, loads, "second read must hit the cache")
}

func TestInvalidateForcesReload(t *testing.T) {
	cache, _ := newTestCache(t)
	loads := 0
	load := func(ctx context.Context) ([]DictItem, error) {
		loads++
		return fixtureItems(), nil
	}

	_, err := cache.Items(context.Background(), "order_status", load)
	require.NoError(t, err)
	cache.Invalidate(context.Background(), "order_status")
	_, err = cache.Items(context.Background(), "order_status", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestCorruptEntryDegradesToLoader(t *testing.T) {
	cache, mr := newTestCache(t)
	require.NoError(t, mr.Set("dict:items:order_status", "{not json"))
	items := fixtureItems()

	got, err := cache.Items(context.Background(), "order_status", func(ctx context.Context) ([]DictItem, error) {
		return items, nil
	})
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestUnavailableCacheDegradesToLoader(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()
	items := fixtureItems()

	got, err := cache.Items(context.Background(), "order_status", func(ctx context.Context) ([]DictItem, error) {
		return items, nil
	})
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestNilCachePassesThrough(t *testing.T) {
	var cache *ItemCache
	items := fixtureItems()

	got, err := cache.Items(context.Background(), "order_status", func(ctx context.Context) ([]DictItem, error) {
		return items, nil
	})
	require.NoError(t, err)
	assert.Equal(t, items, got)
	cache.Invalidate(context.Background(), "order_status")
}
