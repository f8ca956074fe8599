// Package transcriber implements the Streaming Transcriber (spec
// §4.3): a bounded PCM buffer plus a word-timed hypothesis, split into
// a stable prefix (won't be revised) and a volatile tail (may still
// change), with commit-time trimming.
//
// Ownership: exactly one goroutine (the STT worker loop) ever calls
// Feed or Transcribe on a given Transcriber — §5/§9 require the buffer
// never be shared, satisfied here simply by not taking any lock at
// all; the caller supplies the mutual exclusion by construction.
package transcriber

import (
	"strings"

	"github.com/lokutor-ai/gibberish/pkg/logging"
)

// TimedWord mirrors spec §3's data model entry.
type TimedWord struct {
	Text       string
	StartMs    int64
	EndMs      int64
	Confidence float64
}

// Engine is the abstract streaming STT capability consumed by the
// transcriber (spec §6 "Model interfaces: consumed, not defined"). A
// concrete implementation re-decodes the current buffer and returns a
// word-timed alignment; this package ships none.
type Engine interface {
	Transcribe(buffer []float32) ([]TimedWord, error)
	Reset()
}

// Result mirrors spec §4.3's StreamingResult / original_source's
// StreamingResultDto.
type Result struct {
	Text             string
	VolatileText     string
	IsPartial        bool
	BufferDurationMs int64
}

const sampleRate = 16000

// Transcriber holds the PCM buffer and engine-derived hypothesis for
// one utterance-tracking session.
type Transcriber struct {
	engine Engine
	logger logging.Logger

	maxBufferSamples      int
	stableWindowMs        int64
	transcribeThresholdMs int64
	trimPaddingMs         int64

	buffer             []float32
	bufferStartOffsetMs int64 // how much prefix audio has been discarded

	lastTranscribedLen int // samples, for the TRANSCRIBE_THRESHOLD gate
	stablePrefixCount  int
	lastResult         Result

	lastEmittedWord   string
	lastEmittedEndMs  int64
	haveEmittedWord   bool
}

// Config bundles the tunable constants (spec §3/§4.3 defaults).
type Config struct {
	MaxBufferSeconds      float64
	StableWindowSeconds   float64
	TranscribeThresholdMs int
	TrimPaddingMs         int
}

// New builds a Transcriber bound to engine.
func New(engine Engine, cfg Config, logger logging.Logger) *Transcriber {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Transcriber{
		engine:                engine,
		logger:                logger,
		maxBufferSamples:      int(cfg.MaxBufferSeconds * sampleRate),
		stableWindowMs:        int64(cfg.StableWindowSeconds * 1000),
		transcribeThresholdMs: int64(cfg.TranscribeThresholdMs),
		trimPaddingMs:         int64(cfg.TrimPaddingMs),
	}
}

// BufferSamples returns the current buffer length in samples, used by
// the Commit Coordinator's force-commit threshold check and by the
// boundary test for invariant 9.
func (t *Transcriber) BufferSamples() int { return len(t.buffer) }

// BufferDurationMs returns the current buffer's duration.
func (t *Transcriber) BufferDurationMs() int64 {
	return int64(len(t.buffer)) * 1000 / sampleRate
}

// Feed appends samples and trims from the front if the bound is
// exceeded, per spec §3's PCM buffer invariants.
func (t *Transcriber) Feed(samples []float32) {
	t.buffer = append(t.buffer, samples...)
	if len(t.buffer) > t.maxBufferSamples {
		excess := len(t.buffer) - t.maxBufferSamples
		t.trimFront(excess)
	}
}

func (t *Transcriber) trimFront(samples int) {
	if samples <= 0 {
		return
	}
	if samples > len(t.buffer) {
		samples = len(t.buffer)
	}
	t.bufferStartOffsetMs += int64(samples) * 1000 / sampleRate
	t.buffer = t.buffer[samples:]
	if t.lastTranscribedLen > samples {
		t.lastTranscribedLen -= samples
	} else {
		t.lastTranscribedLen = 0
	}
}

// Transcribe runs the underlying engine if enough new audio has
// accumulated, partitions the resulting words into stable/volatile,
// and returns the incremental StreamingResult.
func (t *Transcriber) Transcribe() (Result, error) {
	newSamples := len(t.buffer) - t.lastTranscribedLen
	newMs := int64(newSamples) * 1000 / sampleRate
	if newMs < t.transcribeThresholdMs {
		return t.lastResult, nil
	}

	words, err := t.engine.Transcribe(t.buffer)
	if err != nil {
		// SttInferenceFailed (spec §7): logged, treated as no new words.
		t.logger.Warn("stt inference failed, treating as no-op", "error", err)
		return t.lastResult, nil
	}
	t.lastTranscribedLen = len(t.buffer)

	bufferEndMs := t.bufferStartOffsetMs + t.BufferDurationMs()
	stableCount := PartitionStable(words, bufferEndMs, t.stableWindowMs)

	delta := t.newlyStableDelta(words, stableCount)
	t.stablePrefixCount = stableCount

	volatile := words[stableCount:]

	result := Result{
		Text:             joinWords(delta),
		VolatileText:     joinWords(volatile),
		IsPartial:        true,
		BufferDurationMs: t.BufferDurationMs(),
	}
	t.lastResult = result
	return result, nil
}

// newlyStableDelta returns the words that became stable since the
// last call, applying the ±100ms/identical-text tie-break from spec
// §4.3 against the most recently emitted word so an engine's re-decode
// jitter doesn't double-emit a word.
func (t *Transcriber) newlyStableDelta(words []TimedWord, stableCount int) []TimedWord {
	if stableCount <= t.stablePrefixCount {
		return nil
	}
	delta := words[t.stablePrefixCount:stableCount]
	if len(delta) == 0 {
		return delta
	}
	if t.haveEmittedWord {
		first := delta[0]
		if first.Text == t.lastEmittedWord && abs64(first.EndMs-t.lastEmittedEndMs) <= 100 {
			delta = delta[1:]
		}
	}
	if len(delta) > 0 {
		last := delta[len(delta)-1]
		t.lastEmittedWord = last.Text
		t.lastEmittedEndMs = last.EndMs
		t.haveEmittedWord = true
	}
	return delta
}

// TrimOnCommit implements spec §4.3's "Trim-on-commit": keep only
// audio ending after (firstUnstableWordStartMs - TRIM_PADDING_MS); if
// there is no unstable word, trim to the last (commitThresholdMs -
// 1000ms) to bound future variance. Resets the stable-prefix tracking
// since word indices are relative to whatever buffer remains.
func (t *Transcriber) TrimOnCommit(firstUnstableWordStartMs *int64, commitThresholdMs int64) {
	bufferEndMs := t.bufferStartOffsetMs + t.BufferDurationMs()

	var keepFromMs int64
	if firstUnstableWordStartMs != nil {
		keepFromMs = *firstUnstableWordStartMs - t.trimPaddingMs
	} else {
		keepFromMs = bufferEndMs - (commitThresholdMs - 1000)
	}
	if keepFromMs < t.bufferStartOffsetMs {
		keepFromMs = t.bufferStartOffsetMs
	}

	trimMs := keepFromMs - t.bufferStartOffsetMs
	if trimMs <= 0 {
		t.resetStableTracking()
		return
	}
	trimSamples := int(trimMs * sampleRate / 1000)
	t.trimFront(trimSamples)
	t.resetStableTracking()
}

func (t *Transcriber) resetStableTracking() {
	t.stablePrefixCount = 0
	t.lastTranscribedLen = 0
	t.lastResult = Result{}
}

// Reset clears all transcriber state and the underlying engine,
// starting a fresh hypothesis from an empty buffer.
func (t *Transcriber) Reset() {
	t.buffer = nil
	t.bufferStartOffsetMs = 0
	t.lastTranscribedLen = 0
	t.stablePrefixCount = 0
	t.lastResult = Result{}
	t.haveEmittedWord = false
	t.engine.Reset()
}

// ResetRetainingTrailingMs implements the Committing state's "reset
// transcriber state (retain last 250ms of audio as context)" from
// spec §4.5: the engine and stability tracking reset, but the last
// trailingMs of buffered audio survive as the new buffer's content.
func (t *Transcriber) ResetRetainingTrailingMs(trailingMs int64) {
	keepSamples := int(trailingMs * sampleRate / 1000)
	if keepSamples > len(t.buffer) {
		keepSamples = len(t.buffer)
	}
	tail := make([]float32, keepSamples)
	copy(tail, t.buffer[len(t.buffer)-keepSamples:])

	t.bufferStartOffsetMs += int64(len(t.buffer)-keepSamples) * 1000 / sampleRate
	t.buffer = tail
	t.lastTranscribedLen = 0
	t.stablePrefixCount = 0
	t.lastResult = Result{}
	t.haveEmittedWord = false
	t.engine.Reset()
}

// Snapshot returns a copy of the current PCM buffer, for callers (the
// Turn Detector query) that need read-only access without taking
// ownership.
func (t *Transcriber) Snapshot() []float32 {
	out := make([]float32, len(t.buffer))
	copy(out, t.buffer)
	return out
}

// PartitionStable returns the stable-prefix count for words given the
// current buffer end time: a word is stable iff
// bufferEndMs - word.EndMs >= stableWindowMs (inclusive lower bound,
// spec §8 boundary property 10). Words are assumed non-decreasing in
// StartMs (spec §3 invariant), so the stable set is always a prefix.
func PartitionStable(words []TimedWord, bufferEndMs, stableWindowMs int64) int {
	count := 0
	for _, w := range words {
		if bufferEndMs-w.EndMs >= stableWindowMs {
			count++
		} else {
			break
		}
	}
	return count
}

func joinWords(words []TimedWord) string {
	if len(words) == 0 {
		return ""
	}
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
