// Package turn implements the Turn Detector capability (spec §4.4): a
// semantic endpoint-probability model over a trailing audio window.
// The model itself is an abstract capability (spec §1 — concrete turn
// models are out of core); this package defines the Detector
// interface, the fixed-window buffering helper, and the
// TurnPrediction result type, grounded on
// original_source/crates/turn/src/lib.rs and crates/smart-turn/src/
// lib.rs (whose SmartTurnV31Cpu wraps an inference session behind a
// Mutex — "may serialize internally" per spec §4.4).
package turn

import "sync"

// Prediction mirrors original_source's TurnPrediction.
type Prediction struct {
	Probability float64
	Threshold   float64
}

// IsComplete reports whether Probability meets or exceeds Threshold.
func (p Prediction) IsComplete() bool { return p.Probability >= p.Threshold }

// Detector is the abstract capability consumed by the Commit
// Coordinator. Implementations may serialize internally (spec §4.4);
// callers may invoke PredictEndpointProbability from any goroutine.
type Detector interface {
	Name() string
	PredictEndpointProbability(audio16kMono []float32) (float64, error)
}

const sampleRate = 16000

// Window extracts the trailing N-second window from buffer, front-
// padding with silence if the buffer is shorter than the model's
// fixed input length. Open Question (iii) in spec §9 leaves the exact
// window length model-specific; config.Default sets it to 8s,
// configurable per DESIGN.md's Open Question decisions.
func Window(buffer []float32, windowSeconds float64) []float32 {
	want := int(windowSeconds * sampleRate)
	if len(buffer) >= want {
		return buffer[len(buffer)-want:]
	}
	out := make([]float32, want)
	copy(out[want-len(buffer):], buffer)
	return out
}

// SerializingDetector wraps a Detector known not to be goroutine-safe
// (e.g. a single ONNX inference session) behind a mutex, mirroring
// SmartTurnV31Cpu's internal Mutex<Session>.
type SerializingDetector struct {
	mu    sync.Mutex
	inner Detector
}

// Serialize wraps inner so concurrent callers are queued rather than
// racing the underlying session.
func Serialize(inner Detector) *SerializingDetector {
	return &SerializingDetector{inner: inner}
}

func (s *SerializingDetector) Name() string { return s.inner.Name() }

func (s *SerializingDetector) PredictEndpointProbability(audio []float32) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.PredictEndpointProbability(audio)
}
