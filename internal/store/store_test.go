package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpen_emptyPathDisabled(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)
	require.Nil(t, c)
	valid, fresh := c.Get(context.Background(), "https://a/", time.Hour)
	require.False(t, valid)
	require.False(t, fresh)
	require.NoError(t, c.PutResults(context.Background(), []Entry{{URL: "x", Valid: true}}))
	require.NoError(t, c.Close())
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "probe.db"))
	require.NoError(t, err)
	defer c.Close()

	now := time.Now()
	require.NoError(t, c.PutResults(ctx, []Entry{
		{URL: "https://a/premium1/mono.m3u8", Valid: true, StatusCode: 200, CheckedAt: now},
		{URL: "https://a/premium2/mono.m3u8", Valid: false, StatusCode: 404, CheckedAt: now},
		{URL: "https://a/premium3/mono.m3u8", Valid: true, StatusCode: 200, CheckedAt: now.Add(-3 * time.Hour)},
	}))

	valid, fresh := c.Get(ctx, "https://a/premium1/mono.m3u8", time.Hour)
	require.True(t, fresh)
	require.True(t, valid)

	valid, fresh = c.Get(ctx, "https://a/premium2/mono.m3u8", time.Hour)
	require.True(t, fresh)
	require.False(t, valid)

	_, fresh = c.Get(ctx, "https://a/premium3/mono.m3u8", time.Hour)
	require.False(t, fresh, "stale row")

	_, fresh = c.Get(ctx, "https://a/premium4/mono.m3u8", time.Hour)
	require.False(t, fresh, "missing row")

	// Upsert flips the outcome.
	require.NoError(t, c.PutResults(ctx, []Entry{{URL: "https://a/premium2/mono.m3u8", Valid: true, StatusCode: 200}}))
	valid, fresh = c.Get(ctx, "https://a/premium2/mono.m3u8", time.Hour)
	require.True(t, fresh)
	require.True(t, valid)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	c, err := Open(filepath.Join(t.TempDir(), "probe.db"))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.PutResults(ctx, []Entry{
		{URL: "old", Valid: true, CheckedAt: time.Now().Add(-48 * time.Hour)},
		{URL: "new", Valid: true, CheckedAt: time.Now()},
	}))
	n, err := c.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	_, fresh := c.Get(ctx, "new", time.Hour)
	require.True(t, fresh)
}
