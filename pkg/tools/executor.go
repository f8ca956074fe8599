package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	gocontext "github.com/lokutor-ai/gibberish/pkg/context"
	"github.com/lokutor-ai/gibberish/pkg/events"
	"github.com/lokutor-ai/gibberish/pkg/inference"
	"github.com/lokutor-ai/gibberish/pkg/logging"
)

// ArgsRepairer reruns inference for a single tool whose arguments
// failed schema validation (spec §4.7's args-only repair mode). It is
// satisfied by *inference.Engine; declared as an interface here so
// pkg/tools never needs a concrete Runner to test against.
type ArgsRepairer interface {
	DecideArgsOnly(ctx context.Context, developerContext, tool, committedText string) (inference.Decision, error)
}

// Outcome reports how a single Dispatch call was resolved, for
// logging/telemetry and for deciding whether to chain.
type Outcome int

const (
	OutcomeExecuted Outcome = iota
	OutcomeCached
	OutcomeNeedsConfirmation
	OutcomeCoolingDown
	OutcomeSchemaInvalid
	OutcomeUnknownTool
	OutcomeModeBlocked
	OutcomeAborted
	OutcomeBelowConfidence
)

// DispatchResult is what one Dispatch call produces.
type DispatchResult struct {
	Outcome Outcome
	Result  Result
	Err     error
}

// Executor ties the Registry, Cache, Cooldowns, and Config together
// to run one Proposal end-to-end, per spec §4.8's 6-step algorithm:
// policy gate, cache lookup, cooldown gate, schema validation (with
// one args-only repair attempt), execute, then defer chaining to the
// caller (cmd/agentd's runChainStep, via ShouldChain and PipelineContext).
type Executor struct {
	registry  *Registry
	cache     *Cache
	cooldowns *Cooldowns
	cfg       Config
	bus       events.Bus
	logger    logging.Logger
	repairer  ArgsRepairer
}

// NewExecutor builds an Executor. bus and logger may be nil.
func NewExecutor(registry *Registry, cfg Config, repairer ArgsRepairer, bus events.Bus, logger logging.Logger) *Executor {
	if bus == nil {
		bus = events.NullBus{}
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Executor{
		registry:  registry,
		cache:     NewCache(cfg.CacheTTL),
		cooldowns: NewCooldowns(),
		cfg:       cfg,
		bus:       bus,
		logger:    logger,
		repairer:  repairer,
	}
}

// Dispatch runs the full confidence/policy/cache/cooldown/validate/
// execute chain for one proposal. confidence is the Decision-level
// score that produced proposal (spec §4.7/§4.9 score one confidence
// per decode, shared by every proposal it yields). originalText is the
// evidence attached to an action_proposed event and, with
// developerContext, the input to the args-only repair path; pass ""
// if repair should be skipped (e.g. the proposal is itself already a
// repair result).
func (e *Executor) Dispatch(ctx context.Context, proposal inference.Proposal, confidence float64, mode gocontext.Mode, originalText, developerContext string, abortFlag func() bool) DispatchResult {
	// Step 1: confidence gate (spec §4.8) — reject below cfg.MinConfidence
	// before even looking the tool up.
	if confidence < e.cfg.MinConfidence {
		return DispatchResult{Outcome: OutcomeBelowConfidence}
	}

	tool, ok := e.registry.Get(proposal.Tool)
	if !ok {
		err := ErrUnknownTool{Name: proposal.Tool}
		e.emitToolError(proposal.Tool, err)
		return DispatchResult{Outcome: OutcomeUnknownTool, Err: err}
	}

	// Policy gate — mode eligibility and auto-run-read-only.
	if !modeAllowed(tool, mode) {
		return DispatchResult{Outcome: OutcomeModeBlocked}
	}
	if requiresConfirmation(tool, e.cfg) {
		e.bus.Emit(events.TopicActionProposed, events.ActionProposedEvent{
			Tool:     tool.Name(),
			Args:     proposal.Args,
			Evidence: originalText,
		})
		return DispatchResult{Outcome: OutcomeNeedsConfirmation}
	}
	if abortFlag != nil && abortFlag() {
		return DispatchResult{Outcome: OutcomeAborted}
	}

	// Step 4 happens before step 2/3 cache key derivation: args must
	// be schema-valid (and thus type-coerced) before a cache/cooldown
	// key that depends on their shape can be trusted.
	args, validationErr := e.validateArgs(ctx, tool, proposal, originalText, developerContext)
	if validationErr != nil {
		e.emitToolError(tool.Name(), validationErr)
		return DispatchResult{Outcome: OutcomeSchemaInvalid, Err: validationErr}
	}

	cacheKey := tool.CacheKey(args)
	if cacheKey != "" {
		if cached, hit := e.cache.Get(cacheKey); hit {
			return DispatchResult{Outcome: OutcomeCached, Result: cached}
		}
	}

	cooldownKey := tool.CooldownKey(args)
	if !e.cooldowns.Allow(cooldownKey, e.cfg.ToolCooldown, time.Now()) {
		return DispatchResult{Outcome: OutcomeCoolingDown}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		e.emitToolError(tool.Name(), err)
		return DispatchResult{Outcome: OutcomeExecuted, Err: err}
	}

	if cacheKey != "" {
		e.cache.Put(cacheKey, result)
	}
	e.cooldowns.Record(cooldownKey, time.Now())

	if result.EventName != "" {
		e.bus.Emit(result.EventName, result.Payload)
	}
	return DispatchResult{Outcome: OutcomeExecuted, Result: result}
}

// emitToolError publishes a ToolErrorEvent for any failure along the
// dispatch path — unknown tool, schema validation (post-repair), or
// the tool's own Execute error (spec §4.8 step 4 / §7).
func (e *Executor) emitToolError(toolName string, err error) {
	e.bus.Emit(events.TopicToolError, events.ToolErrorEvent{Tool: toolName, Error: err.Error()})
}

// validateArgs coerces the proposal's string args against the tool's
// schema and validates them with gojsonschema. On failure, if a
// repairer and committed text are available, it makes exactly one
// args-only repair attempt (spec §4.7) before giving up.
func (e *Executor) validateArgs(ctx context.Context, tool Tool, proposal inference.Proposal, originalText, developerContext string) (map[string]any, error) {
	args, err := e.coerceAndValidate(tool, proposal.Args)
	if err == nil {
		return args, nil
	}
	if e.repairer == nil || originalText == "" {
		return nil, err
	}

	decision, rerr := e.repairer.DecideArgsOnly(ctx, developerContext, tool.Name(), originalText)
	if rerr != nil || len(decision.Proposals) == 0 {
		return nil, fmt.Errorf("tools: schema validation failed and args-only repair yielded nothing: %w", err)
	}
	return e.coerceAndValidate(tool, decision.Proposals[0].Args)
}

func (e *Executor) coerceAndValidate(tool Tool, rawArgs map[string]string) (map[string]any, error) {
	doc, err := inference.CoerceArgs(rawArgs, tool.ArgsSchema())
	if err != nil {
		return nil, fmt.Errorf("tools: coercing args for %s: %w", tool.Name(), err)
	}

	schemaLoader := gojsonschema.NewStringLoader(tool.ArgsSchema())
	docLoader := gojsonschema.NewStringLoader(doc)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("tools: schema load/validate for %s: %w", tool.Name(), err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("tools: args for %s failed schema validation: %v", tool.Name(), result.Errors())
	}

	parsed, err := jsonToMap(doc)
	if err != nil {
		return nil, fmt.Errorf("tools: decoding coerced args for %s: %w", tool.Name(), err)
	}
	return parsed, nil
}
