package events

import "testing"

func TestInMemoryBusRecordsEvents(t *testing.T) {
	bus := NewInMemoryBus()
	if !bus.IsEmpty() {
		t.Fatalf("expected new bus to be empty")
	}

	bus.Emit(TopicStreamCommit, StreamCommitEvent{Text: "hello there", Final: true})
	bus.Emit(TopicToolError, ToolErrorEvent{Tool: "typer", Error: "aborted"})

	if bus.Len() != 2 {
		t.Fatalf("expected 2 events, got %d", bus.Len())
	}

	commits := bus.EventsFor(TopicStreamCommit)
	if len(commits) != 1 {
		t.Fatalf("expected 1 stream_commit event, got %d", len(commits))
	}
	got, ok := commits[0].Payload.(StreamCommitEvent)
	if !ok || got.Text != "hello there" {
		t.Fatalf("unexpected payload: %#v", commits[0].Payload)
	}

	bus.Clear()
	if !bus.IsEmpty() {
		t.Fatalf("expected bus to be empty after Clear")
	}
}

func TestNullBusDiscards(t *testing.T) {
	var bus Bus = NullBus{}
	bus.Emit(TopicStreamCommit, StreamCommitEvent{Text: "ignored"})
}
