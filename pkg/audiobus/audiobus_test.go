package audiobus

import (
	"testing"

	"github.com/lokutor-ai/gibberish/pkg/status"
)

func TestPublishSlicesIntoFixedChunks(t *testing.T) {
	st := status.New()
	bus := New(50, 1500, st) // 50ms chunks -> 800 samples @16kHz

	rx, err := bus.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	samples := make([]float32, 800*2) // exactly two chunks
	bus.Publish(samples)

	got := 0
	for got < 2 {
		<-rx.Chunks()
		got++
	}
	if st.FramesReceived() != 2 {
		t.Fatalf("FramesReceived = %d, want 2", st.FramesReceived())
	}
}

func TestSubscribeOnceThenUnsubscribe(t *testing.T) {
	bus := New(50, 1500, nil)
	rx, err := bus.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := bus.Subscribe(); err != ErrAlreadySubscribed {
		t.Fatalf("expected ErrAlreadySubscribed, got %v", err)
	}
	bus.Unsubscribe(rx)
	if _, err := bus.Subscribe(); err != nil {
		t.Fatalf("expected re-subscribe to succeed: %v", err)
	}
}

func TestOverflowDropsOldestAndCountsIt(t *testing.T) {
	st := status.New()
	// capacity of exactly 1 chunk (50ms chunk, 50ms capacity -> 1 slot)
	bus := New(50, 50, st)
	rx, err := bus.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	chunk := make([]float32, 800)
	bus.Publish(chunk) // fills the one slot
	bus.Publish(chunk) // must drop the first to make room

	if st.FramesDropped() == 0 {
		t.Fatalf("expected at least one dropped frame on overflow")
	}
	// exactly one chunk should be readable now
	select {
	case <-rx.Chunks():
	default:
		t.Fatalf("expected one chunk available after overflow")
	}
}
