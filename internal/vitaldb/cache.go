package vitaldb

import "sync"

// TrackCache keeps the decoded tracks of recently loaded cases in memory,
// bounded to max cases with FIFO eviction. A nil *TrackCache is valid and
// caches nothing.
type TrackCache struct {
	mu      sync.Mutex
	max     int
	entries map[int]*CaseTracks
	order   []int
}

// NewTrackCache returns a cache holding up to max cases. A max of zero or
// less returns nil, which disables caching.
func NewTrackCache(max int) *TrackCache {
	if max <= 0 {
		return nil
	}
	return &TrackCache{
		max:     max,
		entries: make(map[int]*CaseTracks, max),
	}
}

// Get returns the cached tracks for a case, if present.
func (c *TrackCache) Get(caseID int) (*CaseTracks, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[caseID]
	return t, ok
}

// Put stores the tracks for a case, evicting the oldest entry when full.
func (c *TrackCache) Put(caseID int, t *CaseTracks) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[caseID]; ok {
		c.entries[caseID] = t
		return
	}
	for len(c.entries) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[caseID] = t
	c.order = append(c.order, caseID)
}

// Reset drops every cached case.
func (c *TrackCache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]*CaseTracks, c.max)
	c.order = c.order[:0]
}

// Len reports the number of cached cases.
func (c *TrackCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
