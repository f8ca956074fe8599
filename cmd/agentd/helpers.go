package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/lokutor-ai/gibberish/pkg/abort"
	"github.com/lokutor-ai/gibberish/pkg/bridge"
	gocontext "github.com/lokutor-ai/gibberish/pkg/context"
	"github.com/lokutor-ai/gibberish/pkg/events"
	"github.com/lokutor-ai/gibberish/pkg/inference"
	"github.com/lokutor-ai/gibberish/pkg/logging"
	"github.com/lokutor-ai/gibberish/pkg/tools"
	"github.com/lokutor-ai/gibberish/pkg/transcriber"
)

// newDebugBridge wraps bus in a bridge.Bus so a local dashboard can
// attach over websocket and watch pipeline events live. The listen
// address is optional: with GIBBERISH_DEBUG_ADDR unset, the bridge is
// built with addr == "" and behaves as a pure pass-through.
func newDebugBridge(bus events.Bus, logger logging.Logger) *bridge.Bus {
	addr := debugAddrFromEnv()
	b, err := bridge.New(bus, addr, logger)
	if err != nil {
		logger.Warn("debug bridge disabled", "error", err, "addr", addr)
		b, _ = bridge.New(bus, "", logger)
	}
	return b
}

func debugAddrFromEnv() string {
	return os.Getenv("GIBBERISH_DEBUG_ADDR")
}

// sttEngine is a placeholder transcriber.Engine. The real speech-to-
// text model is an external binding (spec §6 leaves the on-device ML
// runtime out of core) — wiring a concrete engine here is deployment
// specific, so this stub returns no words rather than fabricating
// transcript text.
type sttEngine struct{}

func (sttEngine) Transcribe(buffer []float32) ([]transcriber.TimedWord, error) {
	return nil, nil
}

func (sttEngine) Reset() {}

// endpointModel is a placeholder turn.Detector. Like sttEngine, the
// real turn-taking model is an external ML binding; this stub reports
// a constant low endpoint probability so the commit coordinator falls
// back to its silence/threshold heuristics instead of ever forcing an
// early commit.
type endpointModel struct{}

func (endpointModel) Name() string { return "stub-endpoint-model" }

func (endpointModel) PredictEndpointProbability(audio16kMono []float32) (float64, error) {
	return 0, nil
}

// noopRunner is a placeholder inference.Runner. The real FunctionGemma
// (or equivalent) model is an external ML binding (spec §6); this stub
// always yields an empty decode, which inference.Engine treats as zero
// proposals.
type noopRunner struct{}

func (noopRunner) InferOnce(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

// buildRegistry wires the bundled tools into a Registry. The typist
// binding is, like sttEngine/endpointModel/noopRunner above, an
// external OS-level capability (spec §6) — noTypist reports failure
// rather than pretending to type.
func buildRegistry(abortCounter *abort.Counter) *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(tools.NewWikipediaTool(http.DefaultClient))
	registry.Register(tools.NewWebSearchTool(http.DefaultClient))
	registry.Register(tools.NewTyperTool(noTypist{}, abortCounter.Triggered))
	return registry
}

type noTypist struct{}

func (noTypist) TypeRune(r rune) error {
	return fmt.Errorf("agentd: no typist binding configured for this platform")
}

// buildDeveloperContext renders the registry's tool manifest into the
// developer-context block every inference prompt is built against.
func buildDeveloperContext(registry *tools.Registry) string {
	return inference.BuildFunctionDeclarations(registry.FunctionDeclarations())
}

// runInferenceCycle is the Router Queue's Cycle callback: decide a
// function call for the committed text, dispatch it, and follow one
// bounded chained call if the tool registry's ShouldChain policy
// allows it (spec §4.9, MAX_CHAIN_DEPTH=1). It emits the tools:router_status
// lifecycle (spec §6: started/inferring/tool_executing/completed/
// cancelled/limit_reached) around the whole cycle.
func runInferenceCycle(
	ctx context.Context,
	engine *inference.Engine,
	executor *tools.Executor,
	registry *tools.Registry,
	developerContext, text string,
	mode gocontext.Mode,
	bus events.Bus,
	logger logging.Logger,
) {
	emitRouterStatus(bus, "started", nil)

	if ctx.Err() != nil {
		emitRouterStatus(bus, "cancelled", nil)
		return
	}

	pipelineCtx := tools.NewPipelineContext()
	runChainStep(ctx, engine, executor, registry, developerContext, text, mode, pipelineCtx, bus, logger)

	if ctx.Err() != nil {
		emitRouterStatus(bus, "cancelled", nil)
		return
	}
	emitRouterStatus(bus, "completed", nil)
}

func runChainStep(
	ctx context.Context,
	engine *inference.Engine,
	executor *tools.Executor,
	registry *tools.Registry,
	developerContext, text string,
	mode gocontext.Mode,
	pipelineCtx tools.PipelineContext,
	bus events.Bus,
	logger logging.Logger,
) {
	emitRouterStatus(bus, "inferring", nil)
	decision, err := engine.Decide(ctx, developerContext, text)
	if err != nil {
		logger.Warn("inference decode failed", "error", err)
		return
	}
	if len(decision.Proposals) == 0 {
		logger.Debug("no function call proposed", "text", text)
		return
	}

	for _, proposal := range decision.Proposals {
		emitRouterStatus(bus, "tool_executing", map[string]string{"tool": proposal.Tool})
		result := executor.Dispatch(ctx, proposal, decision.Confidence, mode, text, developerContext, nil)
		if result.Err != nil {
			logger.Warn("tool dispatch failed", "tool", proposal.Tool, "error", result.Err)
			continue
		}
		logger.Info("tool dispatched", "tool", proposal.Tool, "outcome", result.Outcome)

		outcome, step := tools.ShouldChain(pipelineCtx, decision.Proposals, decision.Confidence, 0.55, func(name string) bool {
			t, ok := registry.Get(name)
			return ok && t.IsReadOnly()
		})
		switch outcome {
		case tools.ChainLimitReached:
			emitRouterStatus(bus, "limit_reached", map[string]string{"tool": proposal.Tool})
			continue
		case tools.ChainStop:
			continue
		}

		followup := inference.BuildFollowupPrompt(text, step.Tool, resultPreview(result))
		runChainStep(ctx, engine, executor, registry, developerContext, followup, mode, tools.PipelineContext{Depth: pipelineCtx.Depth + 1}, bus, logger)
	}
}

// emitRouterStatus publishes a RouterStatusEvent for one lifecycle
// phase (spec §6). payload is attached as-is; nil omits it.
func emitRouterStatus(bus events.Bus, phase string, payload any) {
	bus.Emit(events.TopicRouterStatus, events.RouterStatusEvent{
		Phase:   phase,
		TsMs:    time.Now().UnixMilli(),
		Payload: payload,
	})
}

func resultPreview(result tools.DispatchResult) string {
	if result.Result.Payload == nil {
		return "{}"
	}
	b, err := json.Marshal(result.Result.Payload)
	if err != nil {
		return "{}"
	}
	return string(b)
}
