// Package tools implements the Tool Registry & Executor (spec §4.8):
// a policy-gated, cached, cooldown-limited dispatcher that runs
// Proposals produced by pkg/inference and, within a bounded chain
// depth, their followups.
//
// Grounded on original_source/plugins/tools/src/{registry,policy,
// pipeline,state/router,tools/*}.rs.
package tools

import (
	"context"

	gocontext "github.com/lokutor-ai/gibberish/pkg/context"
)

// Tool is one callable capability. Concrete tools are registered into
// a Registry and dispatched by an Executor.
type Tool interface {
	Name() string
	Description() string
	// ArgsSchema returns the tool's JSON-schema-subset argument
	// contract (spec §4.8), used both for prompt declaration and for
	// validating a proposal's coerced arguments before execution.
	ArgsSchema() string
	// IsReadOnly controls eligibility under the auto-run-read-only
	// policy (spec §4.8, policy.rs's auto_run_read_only).
	IsReadOnly() bool
	// Modes restricts which resolved modes (pkg/context) may trigger
	// this tool. An empty slice means "all modes."
	Modes() []gocontext.Mode
	// CacheKey returns a cache identity for these (already validated)
	// args, or "" to opt the call out of caching entirely.
	CacheKey(args map[string]any) string
	// CooldownKey returns a cooldown identity for these args, or ""
	// to opt the call out of cooldown gating.
	CooldownKey(args map[string]any) string
	// Execute runs the tool and returns a JSON-encodable result.
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// Result is what a Tool call produces: an event name (for pushing to
// pkg/events / pkg/bridge) and a JSON payload.
type Result struct {
	EventName string
	Payload   map[string]any
}
