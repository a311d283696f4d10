// Package thumbs tracks which content addresses have a ready thumbnail, fed
// by the backend's jobs.newThumbnail push stream.
package thumbs

import (
	"sync"

	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/metrics"
)

// Cache is the set of content addresses confirmed ready by a push event.
// Addresses get a stable small id from an arena; membership is a bitset
// over those ids. Entries are only removed by Reset.
//
// One writer (the Watcher) and any number of readers.
type Cache struct {
	mu     sync.RWMutex
	ids    map[string]uint32 // cas id -> arena index
	bits   []uint64          // ready bit per arena index
	ready  int
	closed bool

	// onChange runs after every MarkReady, including repeats, so the view
	// can re-render. Called without the lock held.
	onChange func()
}

// NewCache creates an empty cache. onChange may be nil.
func NewCache(onChange func()) *Cache {
	return &Cache{
		ids:      make(map[string]uint32),
		onChange: onChange,
	}
}

// Has reports whether casID is known to have a ready thumbnail.
func (c *Cache) Has(casID string) bool {
	if casID == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.ids[casID]
	if !ok {
		return false
	}
	return c.bits[id/64]&(1<<(id%64)) != 0
}

// MarkReady records casID as ready. Marking a present address changes
// nothing but still fires onChange. After Close it is a no-op.
func (c *Cache) MarkReady(casID string) {
	if casID == "" {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		debug.Log(debug.THUMB, "MarkReady(%s) after teardown, dropped", casID)
		return
	}
	id, ok := c.ids[casID]
	if !ok {
		id = uint32(len(c.ids))
		c.ids[casID] = id
		if int(id/64) >= len(c.bits) {
			c.bits = append(c.bits, 0)
		}
	}
	word, mask := id/64, uint64(1)<<(id%64)
	added := c.bits[word]&mask == 0
	c.bits[word] |= mask
	if added {
		c.ready++
	}
	n := c.ready
	onChange := c.onChange
	c.mu.Unlock()

	if added {
		metrics.RecordThumbnailReady()
		metrics.SetThumbnailCacheEntries(n)
		debug.Log(debug.THUMB, "ready %s (%d total)", casID, n)
	}
	if onChange != nil {
		onChange()
	}
}

// Reset forgets every address.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.ids = make(map[string]uint32)
	c.bits = nil
	c.ready = 0
	c.mu.Unlock()

	metrics.SetThumbnailCacheEntries(0)
	debug.Log(debug.THUMB, "cache reset")
}

// Close resets the cache and refuses further writes. Used on view teardown.
func (c *Cache) Close() {
	c.Reset()
	c.mu.Lock()
	c.closed = true
	c.onChange = nil
	c.mu.Unlock()
}

// Len returns the number of ready addresses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}
