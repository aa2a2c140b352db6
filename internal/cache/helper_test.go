package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCircle struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	prev := client
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(prev) })
	return mr
}

func TestCacheAside_MissThenHit(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *cachedCircle) func() error {
		return func() error {
			fetches++
			dest.ID = 9
			dest.Name = "calm-minds"
			return nil
		}
	}

	var got cachedCircle
	require.NoError(t, CacheAside(ctx, CircleKey(9), &got, CircleTTL, fetch(&got)))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, "calm-minds", got.Name)

	var again cachedCircle
	require.NoError(t, CacheAside(ctx, CircleKey(9), &again, CircleTTL, fetch(&again)))
	assert.Equal(t, 1, fetches, "second read should be served from cache")
	assert.Equal(t, got, again)
}

func TestCacheAside_ExpiredEntryRefetches(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	var v cachedCircle
	fetches := 0
	require.NoError(t, CacheAside(ctx, CircleKey(1), &v, time.Minute, func() error {
		fetches++
		v.ID = 1
		return nil
	}))

	mr.FastForward(2 * time.Minute)

	require.NoError(t, CacheAside(ctx, CircleKey(1), &v, time.Minute, func() error {
		fetches++
		return nil
	}))
	assert.Equal(t, 2, fetches)
}

func TestInvalidateCircle_DropsTopList(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, TopCirclesKey, []cachedCircle{{ID: 1}}, TopCirclesTTL))
	require.NoError(t, SetJSON(ctx, CircleKey(1), cachedCircle{ID: 1}, CircleTTL))

	InvalidateCircle(ctx, 1)

	var out []cachedCircle
	found, err := GetJSON(ctx, TopCirclesKey, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTopCirclesEntryExpiresQuickly(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, TopCirclesKey, []cachedCircle{{ID: 1}}, TopCirclesTTL))
	assert.Equal(t, 30*time.Second, mr.TTL(TopCirclesKey))

	// Past the TTL the list is a miss and gets refetched.
	mr.FastForward(31 * time.Second)
	var out []cachedCircle
	found, err := GetJSON(ctx, TopCirclesKey, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetJSON_NilClientIsMiss(t *testing.T) {
	prev := client
	SetClient(nil)
	t.Cleanup(func() { SetClient(prev) })

	var v cachedCircle
	found, err := GetJSON(context.Background(), CircleKey(1), &v)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetJSON(context.Background(), CircleKey(1), v, time.Minute))
}
