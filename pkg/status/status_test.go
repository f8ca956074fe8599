package status

import "testing"

// TestFramesReceivedEqualsDeliveredPlusDropped exercises invariant 4
// from spec §8: frames_received = frames_delivered_to_consumer +
// frames_dropped at every instant. "Delivered" here is simply
// received-minus-dropped since Pipeline doesn't track delivery
// separately (the audio bus channel depth is the delivery record).
func TestFramesReceivedEqualsDeliveredPlusDropped(t *testing.T) {
	p := New()
	for i := 0; i < 10; i++ {
		p.IncFramesReceived()
	}
	for i := 0; i < 3; i++ {
		p.IncFramesDropped()
	}
	delivered := p.FramesReceived() - p.FramesDropped()
	if p.FramesReceived() != delivered+p.FramesDropped() {
		t.Fatalf("invariant violated: received=%d dropped=%d", p.FramesReceived(), p.FramesDropped())
	}
	if delivered != 7 {
		t.Fatalf("delivered = %d, want 7", delivered)
	}
}

func TestRouterInflightToggle(t *testing.T) {
	p := New()
	if p.RouterInflight() {
		t.Fatalf("expected inflight false initially")
	}
	p.SetRouterInflight(true)
	if !p.RouterInflight() {
		t.Fatalf("expected inflight true after set")
	}
	snap := p.Snapshot()
	if !snap.RouterInflight {
		t.Fatalf("expected snapshot to reflect inflight true")
	}
}
