package turn

import (
	"errors"
	"sync"
	"testing"
)

func TestWindowPadsShortBufferWithLeadingSilence(t *testing.T) {
	buf := make([]float32, 1000)
	for i := range buf {
		buf[i] = 1
	}
	win := Window(buf, 2.0) // 2s window = 32000 samples
	if len(win) != 32000 {
		t.Fatalf("expected window length 32000, got %d", len(win))
	}
	if win[0] != 0 {
		t.Fatalf("expected leading silence padding")
	}
	if win[len(win)-1] != 1 {
		t.Fatalf("expected trailing content preserved")
	}
}

func TestWindowTrailingSliceWhenLongEnough(t *testing.T) {
	buf := make([]float32, 4*sampleRate)
	for i := len(buf) - 16000; i < len(buf); i++ {
		buf[i] = 2
	}
	win := Window(buf, 1.0)
	if len(win) != 16000 {
		t.Fatalf("expected 1s window, got %d", len(win))
	}
	for _, v := range win {
		if v != 2 {
			t.Fatalf("expected trailing window to match buffer tail")
		}
	}
}

func TestPredictionIsComplete(t *testing.T) {
	p := Prediction{Probability: 0.5, Threshold: 0.5}
	if !p.IsComplete() {
		t.Fatalf("expected inclusive threshold to count as complete")
	}
	p.Probability = 0.49
	if p.IsComplete() {
		t.Fatalf("expected below threshold to be incomplete")
	}
}

type countingDetector struct {
	mu    sync.Mutex
	calls int
}

func (c *countingDetector) Name() string { return "counting" }

func (c *countingDetector) PredictEndpointProbability(audio []float32) (float64, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if len(audio) == 0 {
		return 0, errors.New("empty audio")
	}
	return 0.9, nil
}

func TestSerializingDetectorSerializesConcurrentCalls(t *testing.T) {
	inner := &countingDetector{}
	d := Serialize(inner)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.PredictEndpointProbability(make([]float32, 10))
		}()
	}
	wg.Wait()

	if inner.calls != 20 {
		t.Fatalf("expected all 20 calls to land, got %d", inner.calls)
	}
}
