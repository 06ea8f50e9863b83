package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type counts struct {
	Total int      `json:"total"`
	Keys  []string `json:"keys"`
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(Options{Addr: mr.Addr(), Prefix: "atlas:"})
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisRoundTrip(t *testing.T) {
	t.Parallel()
	r, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Ping(ctx))

	var got counts
	ok, err := r.Get(ctx, "prefix-count", &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.Set(ctx, "prefix-count", counts{Total: 2, Keys: []string{"a", "b"}}, time.Minute))
	require.True(t, mr.Exists("atlas:prefix-count"))

	ok, err = r.Get(ctx, "prefix-count", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, got.Total)
	require.Equal(t, []string{"a", "b"}, got.Keys)

	mr.FastForward(2 * time.Minute)
	ok, err = r.Get(ctx, "prefix-count", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisDel(t *testing.T) {
	t.Parallel()
	r, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", 1, 0))
	require.NoError(t, r.Set(ctx, "b", 2, 0))
	require.NoError(t, r.Del(ctx, "a", "b"))
	require.False(t, mr.Exists("atlas:a"))
	require.False(t, mr.Exists("atlas:b"))
	require.NoError(t, r.Del(ctx))
}

func TestFetchLoadsOnce(t *testing.T) {
	t.Parallel()
	r, _ := newTestRedis(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (counts, error) {
		calls++
		return counts{Total: 7}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, r, "bible-count", time.Minute, load)
		require.NoError(t, err)
		require.Equal(t, 7, got.Total)
	}
	require.Equal(t, 1, calls)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	t.Parallel()
	r, mr := newTestRedis(t)

	boom := errors.New("boom")
	_, err := Fetch(context.Background(), r, "verse", time.Minute, func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("atlas:verse"))
}

func TestFetchSurvivesRedisOutage(t *testing.T) {
	t.Parallel()
	r, mr := newTestRedis(t)
	mr.Close()

	got, err := Fetch(context.Background(), r, "k", time.Minute, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestNopAndNilCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var n Nop
	require.NoError(t, n.Set(ctx, "k", 1, time.Minute))
	var v int
	ok, err := n.Get(ctx, "k", &v)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, n.Del(ctx, "k"))

	got, err := Fetch(ctx, nil, "k", time.Minute, func(context.Context) (int, error) { return 5, nil })
	require.NoError(t, err)
	require.Equal(t, 5, got)
}
