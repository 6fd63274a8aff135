package reading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache()

	_, ok := c.Get(0)
	assert.False(t, ok)

	c.Put(0, "第一章正文")
	text, ok := c.Get(0)
	assert.True(t, ok)
	assert.Equal(t, "第一章正文", text)
	assert.Equal(t, 1, c.Len())
}

func TestCacheInvalidateRemovesSingleEntry(t *testing.T) {
	c := NewCache()
	c.Put(1, "one")
	c.Put(2, "two")

	c.Invalidate(1)

	_, ok := c.Get(1)
	assert.False(t, ok)
	_, ok = c.Get(2)
	assert.True(t, ok)

	// Invalidating an absent index is harmless.
	c.Invalidate(99)
	assert.Equal(t, 1, c.Len())
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	for i := 0; i < 5; i++ {
		c.Put(i, "text")
	}

	c.Clear()

	assert.Zero(t, c.Len())
	_, ok := c.Get(0)
	assert.False(t, ok)
}
