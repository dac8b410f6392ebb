// Package cache stores cacheable responses keyed by authority with an
// optional time-to-live.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine/wire"
)

// Entry is one stored response. It is usable while now-Timestamp is
// below MaxAge; a nil MaxAge means usable indefinitely while present.
type Entry struct {
	Response  *wire.Response
	Timestamp time.Time
	MaxAge    *time.Duration
}

// Fresh reports whether the entry may still be served at the given time.
func (e Entry) Fresh(now time.Time) bool {
	if e.MaxAge == nil {
		return true
	}
	return now.Sub(e.Timestamp) < *e.MaxAge
}

// Cache maps authority keys to entries. The key is the authority alone,
// not the request path, so every resource on a host shares one slot.
// Entries are only overwritten or swept, never evicted on read.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// SetClock overrides the freshness clock. Used in tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the stored response for an authority if a fresh entry
// exists. Stale entries stay in place but are never served.
func (c *Cache) Get(authority string) (*wire.Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[authority]
	if !ok || !entry.Fresh(c.now()) {
		return nil, false
	}
	return entry.Response, true
}

// Put stores a response if it is cacheable, overwriting any previous
// entry for the authority.
func (c *Cache) Put(authority string, resp *wire.Response) bool {
	if !Cacheable(resp) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[authority] = Entry{
		Response:  resp,
		Timestamp: c.now(),
		MaxAge:    ParseMaxAge(resp),
	}
	return true
}

// Len returns the number of stored entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Sweep removes entries that are no longer fresh and returns how many
// were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, entry := range c.entries {
		if !entry.Fresh(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeper sweeps stale entries at the given interval until the
// returned stop function is called. A non-positive interval disables
// sweeping and the cache grows until Clear.
func (c *Cache) StartSweeper(interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Cacheable reports whether a response may be stored: status 200 and no
// cache-control no-store directive. A missing cache-control header is
// cacheable.
func Cacheable(resp *wire.Response) bool {
	if resp.Status != 200 {
		return false
	}
	cc, ok := resp.Headers["cache-control"]
	if !ok {
		return true
	}
	return !strings.Contains(strings.ToLower(cc), "no-store")
}

// ParseMaxAge extracts the max-age directive from cache-control, or nil
// when absent or unparseable.
func ParseMaxAge(resp *wire.Response) *time.Duration {
	cc, ok := resp.Headers["cache-control"]
	if !ok {
		return nil
	}

	for _, directive := range strings.Split(cc, ",") {
		directive = strings.TrimSpace(strings.ToLower(directive))
		value, found := strings.CutPrefix(directive, "max-age=")
		if !found {
			continue
		}
		secs, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		d := time.Duration(secs) * time.Second
		return &d
	}
	return nil
}
