package commit

import (
	"testing"
	"time"

	"github.com/lokutor-ai/gibberish/pkg/events"
	"github.com/lokutor-ai/gibberish/pkg/status"
	"github.com/lokutor-ai/gibberish/pkg/transcriber"
	"github.com/lokutor-ai/gibberish/pkg/vad"
)

// wordyEngine always reports the whole buffer as one word ending 50ms
// before the buffer end. Under the 3s stable window that word stays
// volatile, so it reaches the final commit as volatile text — enough
// to drive the coordinator deterministically without a real STT model.
type wordyEngine struct{}

func (wordyEngine) Reset() {}

func (wordyEngine) Transcribe(buffer []float32) ([]transcriber.TimedWord, error) {
	durationMs := int64(len(buffer)) * 1000 / 16000
	if durationMs < 400 {
		return nil, nil
	}
	return []transcriber.TimedWord{{Text: "hello", StartMs: 0, EndMs: durationMs - 50, Confidence: 0.9}}, nil
}

type zeroTurn struct{}

func (zeroTurn) Name() string { return "zero" }
func (zeroTurn) PredictEndpointProbability([]float32) (float64, error) { return 0, nil }

func samples(ms int) []float32 { return make([]float32, ms*16000/1000) }

func newCoordinator(t *testing.T, onCommit func(Commit)) *Coordinator {
	t.Helper()
	gate := vad.New(vad.PresetResponsive)
	gate.SetMinConfirmed(1)
	tr := transcriber.New(wordyEngine{}, transcriber.Config{
		MaxBufferSeconds:      5,
		StableWindowSeconds:   3,
		TranscribeThresholdMs: 250,
		TrimPaddingMs:         150,
	}, nil)
	cfg := Config{
		CommitThresholdSeconds: 4,
		SilenceInjectionMs:     100,
		TurnThreshold:          0.5,
		TurnWindowSeconds:      2,
		RedemptionTime:         250 * time.Millisecond,
	}
	return New(gate, tr, zeroTurn{}, cfg, events.NullBus{}, status.New(), nil, onCommit)
}

func loudChunk() []float32 {
	c := make([]float32, 1600) // 100ms @16kHz
	for i := range c {
		if i%2 == 0 {
			c[i] = 0.5
		} else {
			c[i] = -0.5
		}
	}
	return c
}

func TestIdleToSpeakingOnSpeechStart(t *testing.T) {
	c := newCoordinator(t, nil)
	now := time.Now()
	if c.State() != Idle {
		t.Fatalf("expected Idle initially")
	}
	c.ProcessChunk(loudChunk(), now)
	if c.State() != Speaking {
		t.Fatalf("expected Speaking after a loud chunk, got %s", c.State())
	}
}

func TestSpeakingToCommittingViaRedemptionFallback(t *testing.T) {
	var commits []Commit
	c := newCoordinator(t, func(cm Commit) { commits = append(commits, cm) })

	now := time.Now()
	c.ProcessChunk(loudChunk(), now) // SpeechStart -> Speaking
	if c.State() != Speaking {
		t.Fatalf("expected Speaking, got %s", c.State())
	}

	// feed enough speech to clear min-speech-duration, then go silent
	now = now.Add(600 * time.Millisecond)
	c.ProcessChunk(make([]float32, 1600), now) // still speaking, no event since <redemption

	// long continuous silence triggers SpeechEnd inside ProcessChunk
	var ev State
	for i := 0; i < 10; i++ {
		now = now.Add(100 * time.Millisecond)
		c.ProcessChunk(make([]float32, 1600), now)
		ev = c.State()
		if ev == AwaitingEnd {
			break
		}
	}
	if ev != AwaitingEnd {
		t.Fatalf("expected AwaitingEnd after sustained silence, got %s", ev)
	}

	// with a zero-probability turn detector, only the redemption*2
	// fallback can move us to Committing (then back to Idle).
	for i := 0; i < 10; i++ {
		now = now.Add(100 * time.Millisecond)
		c.ProcessChunk(make([]float32, 1600), now)
		if c.State() == Idle {
			break
		}
	}
	if c.State() != Idle {
		t.Fatalf("expected coordinator to return to Idle after committing, got %s", c.State())
	}
	if len(commits) == 0 {
		t.Fatalf("expected at least one commit to have been emitted")
	}
	last := commits[len(commits)-1]
	if !last.Final {
		t.Fatalf("expected the terminal commit to be marked final")
	}
}

func TestCommitsAreMonotonic(t *testing.T) {
	var commits []Commit
	c := newCoordinator(t, func(cm Commit) { commits = append(commits, cm) })
	now := time.Now()
	c.emit(Commit{Text: "a", TsMs: 1000})
	c.emit(Commit{Text: "b", TsMs: 500}) // would go backwards
	_ = now
	if commits[1].TsMs < commits[0].TsMs {
		t.Fatalf("expected monotonic timestamps, got %v", commits)
	}
}
