package transcriber

import (
	"fmt"
	"testing"
)

// fakeEngine deterministically derives one 400ms word every 500ms of
// buffer audio, so tests can exercise stability partitioning without a
// real STT model.
type fakeEngine struct{ resets int }

func (f *fakeEngine) Reset() { f.resets++ }

func (f *fakeEngine) Transcribe(buffer []float32) ([]TimedWord, error) {
	durationMs := int64(len(buffer)) * 1000 / sampleRate
	var words []TimedWord
	for start := int64(0); start+400 <= durationMs; start += 500 {
		words = append(words, TimedWord{
			Text:       fmt.Sprintf("w%d", start),
			StartMs:    start,
			EndMs:      start + 400,
			Confidence: 0.9,
		})
	}
	return words, nil
}

func samplesFor(ms int) []float32 {
	return make([]float32, ms*sampleRate/1000)
}

func defaultConfig() Config {
	return Config{
		MaxBufferSeconds:      5,
		StableWindowSeconds:   3,
		TranscribeThresholdMs: 250,
		TrimPaddingMs:         150,
	}
}

func TestTranscribeBelowThresholdReturnsUnchanged(t *testing.T) {
	tr := New(&fakeEngine{}, defaultConfig(), nil)
	tr.Feed(samplesFor(3000))
	first, _ := tr.Transcribe()
	tr.Feed(samplesFor(100)) // below 250ms threshold
	second, _ := tr.Transcribe()
	if second != first {
		t.Fatalf("expected unchanged result below threshold, got %+v vs %+v", first, second)
	}
}

func TestStabilityBoundaryInclusive(t *testing.T) {
	// word ending exactly stableWindowMs before buffer end must be stable
	// (spec §8 boundary property 10).
	words := []TimedWord{{Text: "a", StartMs: 0, EndMs: 2000}}
	count := PartitionStable(words, 5000, 3000)
	if count != 1 {
		t.Fatalf("expected inclusive boundary to classify word stable, got count=%d", count)
	}
	count = PartitionStable(words, 4999, 3000)
	if count != 0 {
		t.Fatalf("expected word 1ms short of window to be volatile, got count=%d", count)
	}
}

func TestInvariantStableEndsBeforeVolatileStarts(t *testing.T) {
	tr := New(&fakeEngine{}, defaultConfig(), nil)
	tr.Feed(samplesFor(4500))
	_, _ = tr.Transcribe()

	words, _ := tr.engine.Transcribe(tr.buffer)
	bufferEndMs := tr.bufferStartOffsetMs + tr.BufferDurationMs()
	stableCount := PartitionStable(words, bufferEndMs, tr.stableWindowMs)

	if stableCount == 0 || stableCount == len(words) {
		t.Skip("fixture doesn't produce a mixed stable/volatile split")
	}
	lastStable := words[stableCount-1]
	firstVolatile := words[stableCount]
	if lastStable.EndMs > firstVolatile.StartMs+25 {
		t.Fatalf("invariant violated: stable.EndMs=%d > volatile.StartMs+25=%d", lastStable.EndMs, firstVolatile.StartMs+25)
	}
}

func TestBufferTrimsAtMaxSamples(t *testing.T) {
	tr := New(&fakeEngine{}, defaultConfig(), nil)
	tr.Feed(samplesFor(5000)) // exactly MAX_BUFFER_SAMPLES
	if tr.BufferSamples() != 5*sampleRate {
		t.Fatalf("expected buffer at bound, got %d", tr.BufferSamples())
	}
	tr.Feed(samplesFor(100)) // next feed must trim
	if tr.BufferSamples() > 5*sampleRate {
		t.Fatalf("expected trim to keep buffer at or below bound, got %d", tr.BufferSamples())
	}
}

func TestResetThenSameAlignmentProducesSamePartition(t *testing.T) {
	engine := &fakeEngine{}
	tr := New(engine, defaultConfig(), nil)
	tr.Feed(samplesFor(4500))
	first, _ := tr.Transcribe()

	tr.Reset()
	tr.Feed(samplesFor(4500))
	second, _ := tr.Transcribe()

	if first.Text != second.Text || first.VolatileText != second.VolatileText {
		t.Fatalf("expected idempotent result across reset, got %+v vs %+v", first, second)
	}
}

func TestSecondTranscribeEmitsOnlyNewlyStableWords(t *testing.T) {
	tr := New(&fakeEngine{}, defaultConfig(), nil)
	tr.Feed(samplesFor(4500))
	first, _ := tr.Transcribe()
	if first.Text == "" {
		t.Fatalf("expected some stable text to seed the delta state")
	}

	// Feed just enough new audio to trigger another transcribe call.
	// The same words come back, one more of them is now stable, and
	// only that one may be emitted.
	tr.Feed(samplesFor(300))
	second, _ := tr.Transcribe()
	if second.Text == first.Text && first.Text != "" {
		t.Fatalf("expected delta tracking to avoid re-emitting the exact same stable text twice")
	}
}
