// Package events defines the topic contract between the core pipeline
// and whatever transport the desktop shell wires up (out of core, see
// spec §6). It also ships two in-process buses used for tests and for
// the debug bridge.
package events

import (
	"sync"
)

// Topic names, mirrored from original_source/crates/events/src/lib.rs's
// event_names module.
const (
	TopicStreamCommit   = "stt:stream_commit"
	TopicContextChanged = "context:changed"
	TopicActionProposed = "tools:action_proposed"
	TopicRouterStatus   = "tools:router_status"
	TopicToolError      = "tools:tool_error"
)

// StreamCommitEvent is published on TopicStreamCommit.
type StreamCommitEvent struct {
	Text  string `json:"text"`
	TsMs  int64  `json:"ts_ms,omitempty"`
	Final bool   `json:"final"`
}

// ContextChangedEvent is published on TopicContextChanged.
type ContextChangedEvent struct {
	Mode          string `json:"mode"`
	DetectedMode  string `json:"detected_mode"`
	PinnedMode    string `json:"pinned_mode,omitempty"`
	ActiveApp     string `json:"active_app,omitempty"`
	ActiveAppName string `json:"active_app_name,omitempty"`
	IsMeeting     bool   `json:"is_meeting"`
	TimestampMs   int64  `json:"timestamp_ms"`
}

// ActionProposedEvent is published on TopicActionProposed when a
// proposal requires explicit approval (not auto-run read-only).
type ActionProposedEvent struct {
	Tool     string `json:"tool"`
	Args     any    `json:"args"`
	Evidence string `json:"evidence"`
}

// RouterStatusEvent is published on TopicRouterStatus for lifecycle
// signals: started, inferring, tool_executing, completed, cancelled,
// limit_reached.
type RouterStatusEvent struct {
	Phase   string `json:"phase"`
	TsMs    int64  `json:"ts_ms"`
	Payload any    `json:"payload,omitempty"`
}

// ToolErrorEvent is published on TopicToolError.
type ToolErrorEvent struct {
	Tool  string `json:"tool"`
	Error string `json:"error"`
}

// Bus is the minimal emit contract consumed by every pipeline
// component; it is the Go mirror of original_source's EventBus trait.
type Bus interface {
	Emit(topic string, payload any)
}

// EmittedEvent records one Emit call, used by InMemoryBus.
type EmittedEvent struct {
	Topic   string
	Payload any
}

// InMemoryBus records every emitted event; used by tests and as the
// inner bus the debug bridge forwards to. Recorded history is not
// replayed to bridge subscribers.
type InMemoryBus struct {
	mu     sync.Mutex
	events []EmittedEvent
}

// NewInMemoryBus returns an empty InMemoryBus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{}
}

func (b *InMemoryBus) Emit(topic string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, EmittedEvent{Topic: topic, Payload: payload})
}

// Events returns a copy of every event recorded so far.
func (b *InMemoryBus) Events() []EmittedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]EmittedEvent, len(b.events))
	copy(out, b.events)
	return out
}

// EventsFor returns only the events recorded under topic.
func (b *InMemoryBus) EventsFor(topic string) []EmittedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []EmittedEvent
	for _, e := range b.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

func (b *InMemoryBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

func (b *InMemoryBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func (b *InMemoryBus) IsEmpty() bool {
	return b.Len() == 0
}

// NullBus discards every event; the default for components that don't
// care to observe the stream.
type NullBus struct{}

func (NullBus) Emit(string, any) {}
