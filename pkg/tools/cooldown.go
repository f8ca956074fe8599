package tools

import (
	"sync"
	"time"
)

// Cooldowns tracks, per cooldown_key, the last time a tool call with
// that key executed — grounded on
// original_source/plugins/tools/src/state/router.rs's
// `cooldowns: HashMap<String, Instant>`.
type Cooldowns struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewCooldowns returns an empty tracker.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{last: make(map[string]time.Time)}
}

// Allow reports whether key is outside its cooldown window as of now.
// An empty key never cools down (always allowed).
func (c *Cooldowns) Allow(key string, cooldown time.Duration, now time.Time) bool {
	if key == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.last[key]
	if !ok {
		return true
	}
	return now.Sub(last) >= cooldown
}

// Record stamps key as having just executed at now.
func (c *Cooldowns) Record(key string, now time.Time) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[key] = now
}
