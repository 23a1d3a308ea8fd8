package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheCodesReadThrough(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) ([]string, error) {
		loads++
		return []string{"dashboard:view", "rides:view"}, nil
	}

	codes, err := cache.Codes(ctx, "admin-1", loader)
	require.NoError(t, err)
	require.Equal(t, []string{"dashboard:view", "rides:view"}, codes)
	require.Equal(t, 1, loads)

	// Second read is served from redis without touching the loader.
	codes, err = cache.Codes(ctx, "admin-1", loader)
	require.NoError(t, err)
	require.Equal(t, []string{"dashboard:view", "rides:view"}, codes)
	require.Equal(t, 1, loads)
}

func TestCacheInvalidateOrphansEveryAdmin(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	loadsA, loadsB := 0, 0
	loaderA := func(ctx context.Context) ([]string, error) {
		loadsA++
		return []string{"users:view"}, nil
	}
	loaderB := func(ctx context.Context) ([]string, error) {
		loadsB++
		return []string{"drivers:view"}, nil
	}

	_, err := cache.Codes(ctx, "admin-a", loaderA)
	require.NoError(t, err)
	_, err = cache.Codes(ctx, "admin-b", loaderB)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx))

	// A role edit can change any admin's effective set, so both reload.
	_, err = cache.Codes(ctx, "admin-a", loaderA)
	require.NoError(t, err)
	_, err = cache.Codes(ctx, "admin-b", loaderB)
	require.NoError(t, err)
	require.Equal(t, 2, loadsA)
	require.Equal(t, 2, loadsB)
}

func TestCacheRedisDownFallsThroughToLoader(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	mr.Close()

	codes, err := cache.Codes(ctx, "admin-1", func(ctx context.Context) ([]string, error) {
		return []string{"documents:view"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"documents:view"}, codes)
}

func TestCacheNilClientUsesLoader(t *testing.T) {
	var cache *Cache
	codes, err := cache.Codes(context.Background(), "admin-1", func(ctx context.Context) ([]string, error) {
		return []string{"settings:view"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"settings:view"}, codes)
	require.NoError(t, cache.Invalidate(context.Background()))
}

func TestCacheEmptySetIsCached(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) ([]string, error) {
		loads++
		return []string{}, nil
	}

	codes, err := cache.Codes(ctx, "admin-without-roles", loader)
	require.NoError(t, err)
	require.Empty(t, codes)

	// An admin with no roles is a legitimate cached result, not a miss.
	_, err = cache.Codes(ctx, "admin-without-roles", loader)
	require.NoError(t, err)
	require.Equal(t, 1, loads)
}
