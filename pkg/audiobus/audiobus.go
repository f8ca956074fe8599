// Package audiobus implements the Audio Bus (spec §4.1): a bounded,
// multi-producer/single-consumer ring that fans fixed-size PCM chunks
// from microphone capture to the STT worker loop, dropping the oldest
// chunk on overflow rather than blocking the producer.
//
// The producer side is not lock-free: Publish holds the bus mutex while
// it slices samples into chunks and sends them, so concurrent producers
// are serialized. The sends themselves never block (a buffered channel
// send with a non-blocking drop-oldest fallback). The consumer side
// holds the same mutex only while taking or returning the receiver,
// never while reading.
package audiobus

import (
	"errors"
	"sync"

	"github.com/lokutor-ai/gibberish/pkg/status"
)

// SampleRate is the fixed mono sample rate the whole pipeline assumes.
const SampleRate = 16000

// Chunk is one immutable, fixed-size slice of 16kHz mono float32
// samples, once published.
type Chunk []float32

// ErrAlreadySubscribed is returned by Subscribe when a consumer is
// already attached; the receiver must be returned via Unsubscribe
// before a new one can attach.
var ErrAlreadySubscribed = errors.New("audiobus: receiver already taken")

// Receiver is the single-owner read side of the bus.
type Receiver struct {
	ch <-chan Chunk
}

// Chunks returns the channel to range or select over.
func (r *Receiver) Chunks() <-chan Chunk { return r.ch }

// Bus is a bounded ring of fixed-size PCM chunks.
type Bus struct {
	chunkSamples int
	capacity     int
	status       *status.Pipeline

	ch chan Chunk

	mu         sync.Mutex
	taken      bool
	partial    []float32 // accumulates samples smaller than chunkSamples
}

// New builds a Bus. chunkMs/capacityMs follow spec §4.1 defaults (50ms
// chunks, 1500ms capacity) when the caller passes the config values.
func New(chunkMs, capacityMs int, st *status.Pipeline) *Bus {
	chunkSamples := SampleRate * chunkMs / 1000
	capacity := capacityMs / chunkMs
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{
		chunkSamples: chunkSamples,
		capacity:     capacity,
		status:       st,
		ch:           make(chan Chunk, capacity),
	}
}

// Publish accepts any number of raw mono float32 samples and slices
// them into fixed-size chunks, publishing each as it fills. Never
// blocks: on a full ring, the oldest chunk is dropped and
// frames_dropped incremented.
func (b *Bus) Publish(samples []float32) {
	b.mu.Lock()
	b.partial = append(b.partial, samples...)
	for len(b.partial) >= b.chunkSamples {
		chunk := make(Chunk, b.chunkSamples)
		copy(chunk, b.partial[:b.chunkSamples])
		b.partial = b.partial[b.chunkSamples:]
		b.publishChunk(chunk)
	}
	b.mu.Unlock()
}

func (b *Bus) publishChunk(c Chunk) {
	if b.status != nil {
		b.status.IncFramesReceived()
	}
	select {
	case b.ch <- c:
	default:
		// Ring full: drop the oldest chunk to make room, then publish.
		select {
		case <-b.ch:
			if b.status != nil {
				b.status.IncFramesDropped()
			}
		default:
		}
		select {
		case b.ch <- c:
		default:
			// Ring still full (publishes are serialized by b.mu, so
			// this is only a guard); count this chunk itself as
			// dropped rather than block.
			if b.status != nil {
				b.status.IncFramesDropped()
			}
		}
	}
}

// Subscribe attaches the single consumer. Returns ErrAlreadySubscribed
// if a Receiver is already outstanding.
func (b *Bus) Subscribe() (*Receiver, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.taken {
		return nil, ErrAlreadySubscribed
	}
	b.taken = true
	return &Receiver{ch: b.ch}, nil
}

// Unsubscribe returns the receiver so a new consumer can reattach.
// It does not drain or close the channel — in-flight chunks remain
// available to the next subscriber, matching "FIFO per sample across
// all retained chunks."
func (b *Bus) Unsubscribe(*Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.taken = false
}
