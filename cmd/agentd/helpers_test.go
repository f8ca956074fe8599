package main

import (
	"context"
	"strings"
	"testing"

	"github.com/lokutor-ai/gibberish/pkg/abort"
	gocontext "github.com/lokutor-ai/gibberish/pkg/context"
	"github.com/lokutor-ai/gibberish/pkg/events"
	"github.com/lokutor-ai/gibberish/pkg/inference"
	"github.com/lokutor-ai/gibberish/pkg/logging"
	"github.com/lokutor-ai/gibberish/pkg/tools"
)

// stubLookupTool stands in for WikipediaTool in TestRunInferenceCycleDispatchesProposedTool
// so the cycle is exercised without a real network call.
type stubLookupTool struct {
	executed int
}

func (s *stubLookupTool) Name() string        { return "wikipedia_city_lookup" }
func (s *stubLookupTool) Description() string { return "stub city lookup for tests" }
func (s *stubLookupTool) ArgsSchema() string {
	return `{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`
}
func (s *stubLookupTool) IsReadOnly() bool                    { return true }
func (s *stubLookupTool) Modes() []gocontext.Mode             { return nil }
func (s *stubLookupTool) CacheKey(args map[string]any) string { return "" }
func (s *stubLookupTool) CooldownKey(args map[string]any) string { return "" }
func (s *stubLookupTool) Execute(ctx context.Context, args map[string]any) (tools.Result, error) {
	s.executed++
	return tools.Result{EventName: "tools:wikipedia_city", Payload: map[string]any{"city": args["city"]}}, nil
}

func TestBuildRegistryRegistersBundledTools(t *testing.T) {
	registry := buildRegistry(abort.NewCounter())
	names := registry.Names()
	want := map[string]bool{"wikipedia_city_lookup": false, "web_search": false, "typer": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("expected registry to contain tool %q, got %v", name, names)
		}
	}
}

func TestBuildDeveloperContextIncludesEveryToolDeclaration(t *testing.T) {
	registry := buildRegistry(abort.NewCounter())
	ctxStr := buildDeveloperContext(registry)
	for _, name := range registry.Names() {
		if !strings.Contains(ctxStr, name) {
			t.Fatalf("expected developer context to mention tool %q", name)
		}
	}
}

func TestNoTypistReportsFailureRatherThanTyping(t *testing.T) {
	if err := (noTypist{}).TypeRune('a'); err == nil {
		t.Fatalf("expected noTypist to refuse to type, got nil error")
	}
}

// scriptedRunner proposes a single wikipedia_city_lookup call on its
// first decode, then an empty decode on any later call, so a chained
// cycle terminates instead of looping.
type scriptedRunner struct {
	calls int
}

func (r *scriptedRunner) InferOnce(ctx context.Context, prompt string) (string, error) {
	r.calls++
	if r.calls == 1 {
		return "<start_function_call>call:wikipedia_city_lookup{city:<escape>Girona<escape>}<end_function_call><end_of_turn>", nil
	}
	return "<end_of_turn>", nil
}

func TestRunInferenceCycleDispatchesProposedTool(t *testing.T) {
	registry := tools.NewRegistry()
	stub := &stubLookupTool{}
	registry.Register(stub)
	engine := inference.NewEngine(&scriptedRunner{})
	bus := events.NewInMemoryBus()
	logger := logging.NoOpLogger{}
	executor := tools.NewExecutor(registry, tools.Config{
		ToolCooldown:            0,
		CacheTTL:                0,
		MinConfidence:           0.35,
		FirstAttemptConfidence:  0.85,
		RepairAttemptConfidence: 0.55,
		AutoRunReadOnly:         true,
	}, engine, bus, logger)

	devContext := buildDeveloperContext(registry)

	runInferenceCycle(context.Background(), engine, executor, registry, devContext, "what's the weather like in Girona", gocontext.ModeGlobal, bus, logger)

	if stub.executed != 1 {
		t.Fatalf("expected the proposed tool to execute exactly once, got %d", stub.executed)
	}

	statusEvents := bus.EventsFor(events.TopicRouterStatus)
	if len(statusEvents) == 0 {
		t.Fatal("expected at least one router_status event")
	}
	first, ok := statusEvents[0].Payload.(events.RouterStatusEvent)
	if !ok || first.Phase != "started" {
		t.Fatalf("expected the first router_status event to be 'started', got %+v", statusEvents[0].Payload)
	}
	last, ok := statusEvents[len(statusEvents)-1].Payload.(events.RouterStatusEvent)
	if !ok || last.Phase != "completed" {
		t.Fatalf("expected the last router_status event to be 'completed', got %+v", statusEvents[len(statusEvents)-1].Payload)
	}
}

func TestRunInferenceCycleEmitsLimitReachedWhenChainDepthExhausted(t *testing.T) {
	registry := tools.NewRegistry()
	stub := &stubLookupTool{}
	registry.Register(stub)
	engine := inference.NewEngine(&scriptedRunner{})
	bus := events.NewInMemoryBus()
	logger := logging.NoOpLogger{}
	executor := tools.NewExecutor(registry, tools.Config{
		ToolCooldown:            0,
		CacheTTL:                0,
		MinConfidence:           0.35,
		FirstAttemptConfidence:  0.85,
		RepairAttemptConfidence: 0.55,
		AutoRunReadOnly:         true,
	}, engine, bus, logger)

	devContext := buildDeveloperContext(registry)

	// Depth is already at the chain limit, so the single dispatched
	// proposal's ShouldChain check reports ChainLimitReached instead of
	// recursing into a followup call.
	pipelineCtx := tools.PipelineContext{Depth: tools.MaxChainDepth}
	runChainStep(context.Background(), engine, executor, registry, devContext, "what's the weather like in Girona", gocontext.ModeGlobal, pipelineCtx, bus, logger)

	limitEvents := bus.EventsFor(events.TopicRouterStatus)
	found := false
	for _, e := range limitEvents {
		if evt, ok := e.Payload.(events.RouterStatusEvent); ok && evt.Phase == "limit_reached" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a limit_reached router_status event, got %+v", limitEvents)
	}
}

func TestResultPreviewHandlesEmptyPayload(t *testing.T) {
	got := resultPreview(tools.DispatchResult{})
	if got != "{}" {
		t.Fatalf("expected %q for an empty payload, got %q", "{}", got)
	}
}
