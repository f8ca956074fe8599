// Package commit implements the Commit Coordinator (spec §4.5): the
// state machine that fuses VAD events, buffer length, and turn-
// detector probability into commit decisions, handed off to the
// Router Queue.
//
// Coordinator holds no lock: it is driven by a single goroutine (the
// STT worker loop) and is not safe for concurrent use.
package commit

import (
	"time"

	"github.com/lokutor-ai/gibberish/pkg/events"
	"github.com/lokutor-ai/gibberish/pkg/logging"
	"github.com/lokutor-ai/gibberish/pkg/status"
	"github.com/lokutor-ai/gibberish/pkg/transcriber"
	"github.com/lokutor-ai/gibberish/pkg/turn"
	"github.com/lokutor-ai/gibberish/pkg/vad"
)

// State names the four coordinator states from spec §4.5.
type State int

const (
	Idle State = iota
	Speaking
	AwaitingEnd
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Speaking:
		return "speaking"
	case AwaitingEnd:
		return "awaiting_end"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

// Commit is emitted text plus a monotonic timestamp, spec §3.
type Commit struct {
	Text  string
	TsMs  int64
	Final bool // false => "partial" (from Speaking), true => "final" (from Committing)
}

// Config bundles the coordinator's tunable constants.
type Config struct {
	CommitThresholdSeconds float64
	SilenceInjectionMs     int
	TurnThreshold          float64
	TurnWindowSeconds      float64
	RedemptionTime         time.Duration
}

// Coordinator drives one utterance-tracking session end to end: VAD →
// Streaming Transcriber → Turn Detector → Commit.
type Coordinator struct {
	cfg Config

	gate        *vad.Gate
	transcriber *transcriber.Transcriber
	turnModel   turn.Detector

	bus    events.Bus
	st     *status.Pipeline
	logger logging.Logger

	state        State
	speechEndAt  time.Time
	lastCommitTs int64

	onCommit func(Commit)
}

// New builds a Coordinator. onCommit is called synchronously with
// every emitted Commit — callers typically hand it straight to the
// Router Queue's EnqueueCommit.
func New(gate *vad.Gate, tr *transcriber.Transcriber, turnModel turn.Detector, cfg Config, bus events.Bus, st *status.Pipeline, logger logging.Logger, onCommit func(Commit)) *Coordinator {
	if bus == nil {
		bus = events.NullBus{}
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Coordinator{
		cfg:         cfg,
		gate:        gate,
		transcriber: tr,
		turnModel:   turnModel,
		bus:         bus,
		st:          st,
		logger:      logger,
		onCommit:    onCommit,
	}
}

// State returns the current coordinator state.
func (c *Coordinator) State() State { return c.state }

// ProcessChunk is called once per audio chunk by the STT worker loop.
// now is injected for deterministic tests.
func (c *Coordinator) ProcessChunk(chunk []float32, now time.Time) {
	vadEvent := c.gate.Process(chunk, now)
	c.transcriber.Feed(chunk)

	switch c.state {
	case Idle:
		if vadEvent != nil && vadEvent.Type == vad.SpeechStart {
			c.state = Speaking
		}
		return

	case Speaking:
		if vadEvent != nil && vadEvent.Type == vad.SpeechEnd {
			c.injectSilence()
			c.speechEndAt = now
			c.state = AwaitingEnd
			return
		}
		c.runTranscribeAndMaybeForceCommit(now)
		return

	case AwaitingEnd:
		c.evaluateAwaitingEnd(now)
		return

	case Committing:
		// Transitional state; ProcessChunk never observes it directly
		// since commit() moves straight back to Idle.
		return
	}
}

// runTranscribeAndMaybeForceCommit implements "Speaking on every
// streaming result: if buffer_samples >= COMMIT_THRESHOLD, force
// commit of all stable words, trim buffer, stay in Speaking."
func (c *Coordinator) runTranscribeAndMaybeForceCommit(now time.Time) {
	result, err := c.transcriber.Transcribe()
	if err != nil {
		c.logger.Warn("transcribe failed, treating as no-op", "error", err)
		return
	}
	if result.Text != "" {
		c.emitPartial(result.Text, now)
	}

	threshold := int(c.cfg.CommitThresholdSeconds * 16000)
	if c.transcriber.BufferSamples() >= threshold {
		c.forceCommit(now)
	}
}

func (c *Coordinator) forceCommit(now time.Time) {
	// Volatile words are not committed here, and the trim does not pad
	// from the first unstable word even when one exists: it always
	// keeps only the last COMMIT_THRESHOLD-1s of audio (spec §4.3's
	// no-unstable-word rule). A forced trim can therefore cut through a
	// word that is still being spoken; that tradeoff is accepted.
	commitThresholdMs := int64(c.cfg.CommitThresholdSeconds * 1000)
	c.transcriber.TrimOnCommit(nil, commitThresholdMs)
	// Remains in Speaking; the emitPartial above already delivered the
	// stable text, so forceCommit's job is purely the buffer trim that
	// bounds future variance.
}

func (c *Coordinator) injectSilence() {
	silenceSamples := c.cfg.SilenceInjectionMs * 16000 / 1000
	c.transcriber.Feed(make([]float32, silenceSamples))
}

func (c *Coordinator) evaluateAwaitingEnd(now time.Time) {
	// Snapshot what we need, then release any expensive work (the
	// turn-detector call) without holding coordinator-specific state
	// locked — Coordinator itself isn't shared across goroutines, but
	// the discipline mirrors the teacher's "cancel outside the lock"
	// pattern for anything that blocks.
	elapsed := now.Sub(c.speechEndAt)
	redemption2x := c.cfg.RedemptionTime * 2

	prob := c.queryTurnProbability()
	complete := prob >= c.cfg.TurnThreshold || elapsed >= redemption2x

	if complete {
		c.commit(now)
	}
}

func (c *Coordinator) queryTurnProbability() float64 {
	if c.turnModel == nil {
		return 0
	}
	window := turn.Window(c.snapshotBuffer(), c.cfg.TurnWindowSeconds)
	p, err := c.turnModel.PredictEndpointProbability(window)
	if err != nil {
		// TurnDetectorFailed (spec §7): treated as p=0, never the sole
		// reason to commit.
		c.logger.Warn("turn detector failed, treating as p=0", "error", err)
		return 0
	}
	return p
}

// snapshotBuffer exposes just enough of the transcriber to build a
// turn-detector window without giving the coordinator direct ownership
// of the PCM slice.
func (c *Coordinator) snapshotBuffer() []float32 {
	return c.transcriber.Snapshot()
}

// commit implements the Committing state: mark everything stable,
// emit one final commit, reset transcriber retaining 250ms of trailing
// context, return to Idle.
func (c *Coordinator) commit(now time.Time) {
	c.state = Committing
	result, _ := c.transcriber.Transcribe()
	text := result.Text
	if result.VolatileText != "" {
		if text != "" {
			text += " "
		}
		text += result.VolatileText
	}

	c.transcriber.ResetRetainingTrailingMs(250)
	c.gate.Reset()

	ts := now.UnixMilli()
	if text != "" {
		c.emit(Commit{Text: text, TsMs: ts, Final: true})
	}
	c.state = Idle
}

func (c *Coordinator) emitPartial(text string, now time.Time) {
	c.emit(Commit{Text: text, TsMs: now.UnixMilli(), Final: false})
}

func (c *Coordinator) emit(commit Commit) {
	if c.lastCommitTs != 0 && commit.TsMs < c.lastCommitTs {
		commit.TsMs = c.lastCommitTs // monotonic per spec §8 invariant 2
	}
	c.lastCommitTs = commit.TsMs

	if c.st != nil {
		c.st.IncCommitsEmitted()
		c.st.SetLastCommitUnixMs(commit.TsMs)
	}
	c.bus.Emit(events.TopicStreamCommit, events.StreamCommitEvent{
		Text:  commit.Text,
		TsMs:  commit.TsMs,
		Final: commit.Final,
	})
	if c.onCommit != nil {
		c.onCommit(commit)
	}
}
