package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetExpire(t *testing.T) {
	c := New(time.Minute, 0)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2, time.Nanosecond)
	time.Sleep(time.Millisecond)

	v, ok := c.GetValue("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.GetValue("b")
	assert.False(t, ok, "expired entries are not returned")

	c.Delete("a")
	_, ok = c.GetValue("a")
	assert.False(t, ok)
}

func TestCache_InvalidateProducts(t *testing.T) {
	c := New(time.Minute, 0)
	defer c.Close()

	c.Set(ProductPrefix+"1", "p1")
	c.Set(ProductPrefix+"2", "p2")
	c.Set(ProductsPrefix+"page1", "list")
	c.Set(CategoryPrefix+"all", "cats")

	c.InvalidateProducts("1")

	_, ok := c.GetValue(ProductPrefix + "1")
	assert.False(t, ok)
	_, ok = c.GetValue(ProductsPrefix + "page1")
	assert.False(t, ok)
	_, ok = c.GetValue(ProductPrefix + "2")
	assert.True(t, ok)
	_, ok = c.GetValue(CategoryPrefix + "all")
	assert.True(t, ok)

	var nilCache *Cache
	assert.NotPanics(t, func() { nilCache.InvalidateProducts("1") })
}

func TestCache_MarshalRoundTrip(t *testing.T) {
	c := New(time.Minute, 0)
	defer c.Close()

	type entry struct {
		Name  string `json:"name"`
		Stock int64  `json:"stock"`
	}
	require.NoError(t, c.Marshal("k", entry{Name: "mug", Stock: 3}))

	var got entry
	found, err := c.Unmarshal("k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry{Name: "mug", Stock: 3}, got)
}

func TestCache_CleanupAndClose(t *testing.T) {
	c := New(time.Nanosecond, 5*time.Millisecond)
	c.Set("x", 1)

	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)

	c.Close()
	assert.NotPanics(t, c.Close)
}
