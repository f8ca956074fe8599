// Package bridge fans out pipeline events to local websocket
// subscribers for debugging/introspection — a desktop shell or a
// terminal dashboard can attach and watch stt:stream_commit,
// tools:router_status, etc. live. This is explicitly NOT the
// "external event transport" spec §6 leaves out of core: it is a
// same-machine debug aid, grounded on no teacher file (the teacher
// never wires coder/websocket into pkg/orchestrator) but using the
// teacher's module dependency, per SPEC_FULL §11.
package bridge

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lokutor-ai/gibberish/pkg/events"
	"github.com/lokutor-ai/gibberish/pkg/logging"
)

// wireEvent is what's broadcast to each subscriber.
type wireEvent struct {
	Topic     string `json:"topic"`
	Payload   any    `json:"payload"`
	TimestampMs int64 `json:"timestamp_ms"`
}

// Bus wraps an inner events.Bus, forwarding every Emit to it and
// additionally broadcasting to every connected websocket subscriber.
type Bus struct {
	inner  events.Bus
	logger logging.Logger

	mu          sync.Mutex
	subscribers map[chan wireEvent]struct{}

	server   *http.Server
	listener net.Listener
}

// New builds a Bus that also serves a debug websocket endpoint at
// addr (e.g. ":7711"), path "/ws". inner receives every event exactly
// as before; the bridge is purely additive. Pass addr == "" to disable
// the websocket listener and just use Bus as an events.Bus pass-through
// (useful in tests).
func New(inner events.Bus, addr string, logger logging.Logger) (*Bus, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	b := &Bus{inner: inner, logger: logger, subscribers: make(map[chan wireEvent]struct{})}

	if addr == "" {
		return b, nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWS)
	b.server = &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	b.listener = ln
	go func() {
		if err := b.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			b.logger.Warn("bridge server stopped", "error", err)
		}
	}()
	return b, nil
}

// Addr returns the bound listener address ("host:port"), or "" if the
// bridge was built without a websocket listener.
func (b *Bus) Addr() string {
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

func (b *Bus) Emit(topic string, payload any) {
	b.inner.Emit(topic, payload)

	evt := wireEvent{Topic: topic, Payload: payload, TimestampMs: time.Now().UnixMilli()}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			// Slow subscriber: drop rather than block the pipeline.
		}
	}
}

func (b *Bus) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := make(chan wireEvent, 32)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.subscribers, ch)
		b.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, evt); err != nil {
				return
			}
		}
	}
}

// Close shuts down the websocket listener, if one was started.
func (b *Bus) Close() error {
	if b.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return b.server.Shutdown(ctx)
}
