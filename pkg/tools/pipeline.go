package tools

import "github.com/lokutor-ai/gibberish/pkg/inference"

// MaxChainDepth bounds followup tool execution after the primary
// tool. Depth 0 is the primary tool only; depth 1 allows exactly one
// followup. Grounded verbatim on
// original_source/plugins/tools/src/pipeline.rs's MAX_CHAIN_DEPTH.
// Open Question (i) from spec §9 decides this stays a constant rather
// than becoming manifest-driven — see DESIGN.md.
const MaxChainDepth = 1

// PipelineContext tracks how deep the current chain is.
type PipelineContext struct {
	Depth int
}

// NewPipelineContext starts a chain at the primary tool.
func NewPipelineContext() PipelineContext {
	return PipelineContext{Depth: 0}
}

// CanChain reports whether another followup may run.
func (p PipelineContext) CanChain() bool {
	return p.Depth < MaxChainDepth
}

// Step is one tool call in the chain.
type Step struct {
	Tool     string
	Args     map[string]string
	Evidence string
	Depth    int
}

// ChainOutcome is the result of deciding whether to continue chaining.
type ChainOutcome int

const (
	ChainStop ChainOutcome = iota
	ChainContinue
	ChainLimitReached
)

// ShouldChain mirrors pipeline.rs's should_chain: it picks the first
// proposal whose decode confidence meets minConfidence and passes
// toolFilter, respecting the depth limit. confidence is the Decision's
// overall confidence (spec §4.7/§4.9 score one confidence per decode,
// shared by every proposal it yields). toolFilter exists so callers
// can exclude tools that aren't safe/meaningful as followups.
func ShouldChain(ctx PipelineContext, proposals []inference.Proposal, confidence, minConfidence float64, toolFilter func(string) bool) (ChainOutcome, Step) {
	if !ctx.CanChain() {
		return ChainLimitReached, Step{}
	}
	if confidence < minConfidence {
		return ChainStop, Step{}
	}
	for _, p := range proposals {
		if toolFilter(p.Tool) {
			return ChainContinue, Step{
				Tool:  p.Tool,
				Args:  p.Args,
				Depth: ctx.Depth + 1,
			}
		}
	}
	return ChainStop, Step{}
}
