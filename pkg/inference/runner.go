package inference

import "context"

// Runner is the abstract function-calling language model capability
// consumed, not defined, by this package — spec §6 calls this out as
// an external interface. A concrete FunctionGemma binding (or any
// other instruction-tuned model that accepts this prompt shape) lives
// outside pkg/inference and is injected at wiring time.
type Runner interface {
	// InferOnce decodes the model's continuation of prompt and returns
	// the raw decoded text, unparsed.
	InferOnce(ctx context.Context, prompt string) (string, error)
}

// Proposal is one parsed function call extracted from a model's raw
// output.
type Proposal struct {
	Tool string
	Args map[string]string
}

// Decision is the outcome of one inference attempt: either a set of
// proposals with a confidence score, or none.
type Decision struct {
	RawText    string
	Proposals  []Proposal
	Confidence float64
	Repaired   bool
}

// Confidence levels from spec §4.7/§4.9.
const (
	ConfidenceFirstParse float64 = 0.85
	ConfidenceRepair     float64 = 0.55
	ConfidenceNone       float64 = 0.0
)

// Engine ties prompt construction, the runner, parsing, and the single
// repair attempt together.
type Engine struct {
	runner Runner
}

// NewEngine builds an Engine around a concrete Runner.
func NewEngine(runner Runner) *Engine {
	return &Engine{runner: runner}
}

// Decide runs the primary decode, and — only if it yields zero
// proposals — one repair attempt with the bad output echoed back, per
// spec §4.7 ("one repair attempt max"). It never retries more than
// once.
func (e *Engine) Decide(ctx context.Context, developerContext, committedText string) (Decision, error) {
	prompt := BuildPrompt(developerContext, committedText)
	raw, err := e.runner.InferOnce(ctx, prompt)
	if err != nil {
		return Decision{}, err
	}

	proposals := ParseProposals(raw)
	if len(proposals) > 0 {
		return Decision{RawText: raw, Proposals: proposals, Confidence: ConfidenceFirstParse}, nil
	}

	repairPrompt := BuildRepairPrompt(developerContext, committedText, raw)
	repaired, err := e.runner.InferOnce(ctx, repairPrompt)
	if err != nil {
		return Decision{}, err
	}
	proposals = ParseProposals(repaired)
	if len(proposals) > 0 {
		return Decision{RawText: repaired, Proposals: proposals, Confidence: ConfidenceRepair, Repaired: true}, nil
	}

	return Decision{RawText: repaired, Proposals: nil, Confidence: ConfidenceNone, Repaired: true}, nil
}

// DecideArgsOnly reruns inference for a single known tool whose
// arguments failed schema validation (spec §4.7's args-only repair
// mode). It counts as the one repair attempt for this commit.
func (e *Engine) DecideArgsOnly(ctx context.Context, developerContext, tool, committedText string) (Decision, error) {
	prompt := BuildArgsPrompt(developerContext, tool, committedText)
	raw, err := e.runner.InferOnce(ctx, prompt)
	if err != nil {
		return Decision{}, err
	}
	proposals := ParseProposals(raw)
	for i := range proposals {
		proposals[i].Tool = tool
	}
	if len(proposals) > 0 {
		return Decision{RawText: raw, Proposals: proposals, Confidence: ConfidenceRepair, Repaired: true}, nil
	}
	return Decision{RawText: raw, Proposals: nil, Confidence: ConfidenceNone, Repaired: true}, nil
}
