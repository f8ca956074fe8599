// Package abort implements the global panic-hotkey abort flag:
// 3 Escape presses within 1 second sets a sticky abort flag that
// long-running tool side effects (typing, pasting) poll between
// steps. Grounded on
// original_source/crates/input/src/panic_hotkey.rs — the constants
// and the sliding-window counting logic are carried over verbatim;
// the actual OS-level key listener (device_query in the original) is
// explicitly out of core here and left to the caller wiring this in
// at the top level, since it's platform-specific and not part of the
// pipeline's pure domain logic.
package abort

import (
	"sync"
	"time"
)

// EscCountThreshold is the number of Esc presses required to trigger
// panic.
const EscCountThreshold = 3

// Window is the time span within which the presses must occur.
const Window = 1 * time.Second

// PollInterval is the suggested polling interval for OS-level key
// state, fast enough to catch human keypresses (typically >100ms)
// while staying cheap.
const PollInterval = 50 * time.Millisecond

// Counter tracks a sliding window of Esc press timestamps and raises
// a sticky Flag once EscCountThreshold presses land within Window.
type Counter struct {
	mu        sync.Mutex
	presses   []time.Time
	triggered bool
}

// NewCounter returns a Counter with the flag cleared.
func NewCounter() *Counter {
	return &Counter{}
}

// RecordEscPress registers one Esc keydown edge at now, pruning
// presses older than Window, and returns true the moment the
// threshold is crossed (it also stays true on every subsequent call
// until Reset — "sticky").
func (c *Counter) RecordEscPress(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.triggered {
		return true
	}

	kept := c.presses[:0]
	for _, t := range c.presses {
		if now.Sub(t) < Window {
			kept = append(kept, t)
		}
	}
	c.presses = append(kept, now)

	if len(c.presses) >= EscCountThreshold {
		c.triggered = true
		c.presses = nil
	}
	return c.triggered
}

// Triggered reports whether the abort flag is currently set.
func (c *Counter) Triggered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.triggered
}

// Reset clears the abort flag and any pending press history, for
// reuse after a tool acknowledges the abort.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.triggered = false
	c.presses = nil
}
