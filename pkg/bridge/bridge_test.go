package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lokutor-ai/gibberish/pkg/events"
)

func TestEmitForwardsToInnerBus(t *testing.T) {
	inner := events.NewInMemoryBus()
	b, err := New(inner, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Emit("topic", map[string]any{"x": 1})
	if inner.Len() != 1 {
		t.Fatalf("expected inner bus to record 1 event, got %d", inner.Len())
	}
}

func TestCloseWithoutListenerIsNoop(t *testing.T) {
	inner := events.NewInMemoryBus()
	b, _ := New(inner, "", nil)
	if err := b.Close(); err != nil {
		t.Fatalf("expected no-op close, got %v", err)
	}
}

func TestSubscriberReceivesBroadcastEvent(t *testing.T) {
	inner := events.NewInMemoryBus()
	b, err := New(inner, "127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+b.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Give the server's accept loop a moment to register the
	// subscriber before emitting.
	time.Sleep(50 * time.Millisecond)
	b.Emit(events.TopicStreamCommit, map[string]any{"text": "hello"})

	var got wireEvent
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("reading broadcast event: %v", err)
	}
	if got.Topic != events.TopicStreamCommit {
		t.Fatalf("expected topic %q, got %q", events.TopicStreamCommit, got.Topic)
	}
}
