package tools

import (
	"context"
	"fmt"
	"strings"

	gocontext "github.com/lokutor-ai/gibberish/pkg/context"
)

// Typist simulates keyboard input one rune at a time. The concrete
// OS-level implementation (accessibility APIs, synthetic key events)
// lives outside this package, exactly like the VAD Gate/Transcriber
// Engine/Turn Detector capabilities in the core pipeline — this
// interface is consumed, not defined, here.
type Typist interface {
	TypeRune(r rune) error
}

// TyperTool types text via voice command. Grounded on
// original_source/plugins/tools/src/tools/typer.rs: not read-only, no
// cache/cooldown key, and it polls the shared panic-hotkey abort flag
// between characters rather than only checking it once up front.
type TyperTool struct {
	typist  Typist
	aborted func() bool
}

// NewTyperTool builds a TyperTool. aborted may be nil (never aborts);
// pass (*abort.Counter).Triggered for the real panic-hotkey wiring.
func NewTyperTool(typist Typist, aborted func() bool) *TyperTool {
	return &TyperTool{typist: typist, aborted: aborted}
}

func (t *TyperTool) Name() string               { return "typer" }
func (t *TyperTool) Description() string        { return "Type text using keyboard simulation" }
func (t *TyperTool) IsReadOnly() bool            { return false }
func (t *TyperTool) Modes() []gocontext.Mode     { return nil }
func (t *TyperTool) CacheKey(map[string]any) string    { return "" }
func (t *TyperTool) CooldownKey(map[string]any) string { return "" }

func (t *TyperTool) ArgsSchema() string {
	return `{
  "type": "object",
  "properties": {
    "text": {"type": "string", "description": "The text to type. Extract exactly what the user wants typed."}
  },
  "required": ["text"]
}`
}

func (t *TyperTool) isAborted() bool {
	return t.aborted != nil && t.aborted()
}

// AbortedError reports that a tool stopped partway through because
// the panic hotkey fired (or the run context was cancelled) mid-
// execution, rather than failing outright. Executors surface this via
// tools:tool_error same as any other Execute error.
type AbortedError struct {
	Tool       string
	CharsDone  int
	TotalChars int
}

func (e AbortedError) Error() string {
	return fmt.Sprintf("Aborted after %d of %d characters", e.CharsDone, e.TotalChars)
}

func (t *TyperTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	if t.isAborted() {
		return Result{}, AbortedError{Tool: t.Name()}
	}

	text, _ := args["text"].(string)
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("tools: typer requires non-empty text")
	}

	runes := []rune(text)
	charsTyped := 0
	for _, r := range runes {
		if t.isAborted() {
			return Result{}, AbortedError{Tool: t.Name(), CharsDone: charsTyped, TotalChars: len(runes)}
		}
		select {
		case <-ctx.Done():
			return Result{}, AbortedError{Tool: t.Name(), CharsDone: charsTyped, TotalChars: len(runes)}
		default:
		}
		if err := t.typist.TypeRune(r); err != nil {
			return Result{}, fmt.Errorf("tools: typer failed after %d chars: %w", charsTyped, err)
		}
		charsTyped++
	}

	return Result{
		EventName: "tools:typer_result",
		Payload: map[string]any{
			"text":        text,
			"chars_typed": charsTyped,
			"completed":   true,
		},
	}, nil
}
