package timesync

import (
	"sync"
	"time"
)

// ISO8601 is the layout used when reporting the time.
const ISO8601 = "2006-01-02T15:04:05Z"

// Clock is the local clock corrected by the last measured offset.
type Clock struct {
	mu       sync.RWMutex
	offset   time.Duration
	syncedAt time.Time
	synced   bool

	now func() time.Time
}

// NewClock returns an unsynchronized clock.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Set records a new offset.
func (c *Clock) Set(offset time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = offset
	c.synced = true
	c.syncedAt = c.now()
}

// Now returns the corrected time. Before the first Set it is the local time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Add(c.offset)
}

// Offset returns the last recorded offset.
func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// Synced reports whether an offset has been recorded, and when.
func (c *Clock) Synced() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.syncedAt, c.synced
}

// Format returns Now in UTC using ISO8601.
func (c *Clock) Format() string {
	return c.Now().UTC().Format(ISO8601)
}
