package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_ExpiresEntries(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 30))
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(30 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	assert.Equal(t, 1, c.Len())
	c.sweep()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_IgnoresNonPositiveTTL(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", "v", 0))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, 60))
	require.NoError(t, c.Set(ctx, "b", 2, 60))
	require.NoError(t, c.Delete(ctx, "a"))
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
	c.Close()
}
