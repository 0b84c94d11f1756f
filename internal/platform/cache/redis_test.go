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

type payload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func newTestCache(t *testing.T) (*JSONCache, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSONCache(client, "test", time.Minute), mr, client
}

func TestJSONCacheRoundTrip(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tire:1", payload{Name: "All-season 205/55R16", Price: 150}))

	var got payload
	found, err := c.Get(ctx, "tire:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "All-season 205/55R16", got.Name)
	assert.Equal(t, 150.0, got.Price)
}

func TestJSONCacheMiss(t *testing.T) {
	c, _, _ := newTestCache(t)

	var got payload
	found, err := c.Get(context.Background(), "tire:999", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJSONCacheExpiry(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tire:1", payload{Name: "Winter 225/65R17"}))
	mr.FastForward(2 * time.Minute)

	var got payload
	found, err := c.Get(ctx, "tire:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJSONCacheInvalidateScopedToPrefix(t *testing.T) {
	c, _, client := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tire:1", payload{Name: "a"}))
	require.NoError(t, c.Set(ctx, "tire:2", payload{Name: "b"}))
	require.NoError(t, client.Set(ctx, "other:tire:1", "keep", 0).Err())

	require.NoError(t, c.Invalidate(ctx))

	var got payload
	found, err := c.Get(ctx, "tire:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
	found, err = c.Get(ctx, "tire:2", &got)
	require.NoError(t, err)
	assert.False(t, found)

	kept, err := client.Get(ctx, "other:tire:1").Result()
	require.NoError(t, err)
	assert.Equal(t, "keep", kept)
}

func TestJSONCacheNilDegradesToNoop(t *testing.T) {
	ctx := context.Background()

	var c *JSONCache
	assert.NoError(t, c.Set(ctx, "k", payload{}))
	found, err := c.Get(ctx, "k", &payload{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Invalidate(ctx))

	disabled := NewJSONCache(nil, "test", time.Minute)
	assert.NoError(t, disabled.Set(ctx, "k", payload{}))
	found, err = disabled.Get(ctx, "k", &payload{})
	assert.NoError(t, err)
	assert.False(t, found)
}
