// Package status implements the Pipeline Status data model (spec §3,
// §9): five counters shared with many readers, writable from exactly
// one place each, implemented with atomics rather than a lock because
// the design requirement is lock-free reads from many observers with
// single-writer updates.
package status

import "sync/atomic"

// Snapshot is a point-in-time, non-atomic copy of Pipeline's counters,
// safe to serialize or print.
type Snapshot struct {
	FramesReceived    uint64
	FramesDropped     uint64
	CommitsEmitted    uint64
	LastCommitUnixMs  int64
	RouterInflight    bool
}

// Pipeline holds the five atomics. Zero value is ready to use.
type Pipeline struct {
	framesReceived   atomic.Uint64
	framesDropped    atomic.Uint64
	commitsEmitted   atomic.Uint64
	lastCommitUnixMs atomic.Int64
	routerInflight   atomic.Bool
}

// New returns a ready Pipeline status block.
func New() *Pipeline {
	return &Pipeline{}
}

func (p *Pipeline) IncFramesReceived() { p.framesReceived.Add(1) }
func (p *Pipeline) IncFramesDropped()  { p.framesDropped.Add(1) }
func (p *Pipeline) IncCommitsEmitted() { p.commitsEmitted.Add(1) }

func (p *Pipeline) SetLastCommitUnixMs(ms int64) { p.lastCommitUnixMs.Store(ms) }
func (p *Pipeline) SetRouterInflight(v bool)      { p.routerInflight.Store(v) }

func (p *Pipeline) FramesReceived() uint64   { return p.framesReceived.Load() }
func (p *Pipeline) FramesDropped() uint64    { return p.framesDropped.Load() }
func (p *Pipeline) CommitsEmitted() uint64   { return p.commitsEmitted.Load() }
func (p *Pipeline) LastCommitUnixMs() int64  { return p.lastCommitUnixMs.Load() }
func (p *Pipeline) RouterInflight() bool     { return p.routerInflight.Load() }

// Snapshot reads all five counters. Not atomic as a whole (invariant 4
// in spec §8 holds at every instant per-counter, not across the
// snapshot call), which is the expected behavior for a lock-free
// multi-writer read.
func (p *Pipeline) Snapshot() Snapshot {
	return Snapshot{
		FramesReceived:   p.FramesReceived(),
		FramesDropped:    p.FramesDropped(),
		CommitsEmitted:   p.CommitsEmitted(),
		LastCommitUnixMs: p.LastCommitUnixMs(),
		RouterInflight:   p.RouterInflight(),
	}
}
