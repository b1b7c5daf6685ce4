package vitaldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackCacheEvictsOldest(t *testing.T) {
	c := NewTrackCache(2)

	c.Put(1, &CaseTracks{})
	c.Put(2, &CaseTracks{})
	c.Put(3, &CaseTracks{})

	_, ok := c.Get(1)
	assert.False(t, ok, "case 1 should have been evicted")
	_, ok = c.Get(2)
	assert.True(t, ok, "case 2 should still be cached")
	_, ok = c.Get(3)
	assert.True(t, ok, "case 3 should still be cached")
	assert.Equal(t, 2, c.Len())
}

func TestTrackCacheUpdateKeepsOrder(t *testing.T) {
	c := NewTrackCache(2)

	c.Put(1, &CaseTracks{})
	c.Put(2, &CaseTracks{})

	fresh := &CaseTracks{}
	c.Put(1, fresh)

	got, ok := c.Get(1)
	assert.True(t, ok)
	assert.Same(t, fresh, got, "Put on an existing key should replace the entry")
	assert.Equal(t, 2, c.Len())
}

func TestTrackCacheNilSafe(t *testing.T) {
	var c *TrackCache

	c.Put(1, &CaseTracks{})
	_, ok := c.Get(1)
	assert.False(t, ok, "nil cache should never report a hit")
	assert.Equal(t, 0, c.Len())
}

func TestTrackCacheReset(t *testing.T) {
	c := NewTrackCache(2)
	c.Put(1, &CaseTracks{})
	c.Put(2, &CaseTracks{})

	c.Reset()
	assert.Equal(t, 0, c.Len())

	// the cache stays usable after a reset
	c.Put(3, &CaseTracks{})
	_, ok := c.Get(3)
	assert.True(t, ok)
}

func TestNewTrackCacheZeroDisables(t *testing.T) {
	assert.Nil(t, NewTrackCache(0))
}
