// Package inference implements Function-Calling Inference (spec §4.7)
// and Bounded Chaining (spec §4.9): pure prompt construction, a
// structured-call parser, confidence scoring, and one repair attempt.
// The underlying language model is the abstract Runner capability;
// this package owns everything around it.
//
// Prompt literals are grounded verbatim on
// original_source/plugins/tools/src/prompt_builder.rs and inference.rs
// — the `<start_of_turn>`/`<end_of_turn>`/`<start_function_call>`/
// `<end_function_call>`/`<escape>` markers are part of the wire
// contract with the model and must not be altered.
package inference

import (
	"fmt"
	"strings"
)

// BuildPrompt is the primary prompt shape from spec §4.7.
func BuildPrompt(developerContext, committedText string) string {
	return fmt.Sprintf(
		"<start_of_turn>developer\n%s<end_of_turn>\n<start_of_turn>user\n%s<end_of_turn>\n<start_of_turn>model\n",
		developerContext, committedText)
}

// BuildArgsPrompt is the args-only recovery prompt (spec §4.7's
// "Args-only mode") used when a tool name is known but its arguments
// failed schema validation.
func BuildArgsPrompt(developerContext, tool, committedText string) string {
	instruction := fmt.Sprintf("Call the function %s with the correct arguments for this text:\n%s", tool, committedText)
	return fmt.Sprintf(
		"<start_of_turn>developer\n%s<end_of_turn>\n<start_of_turn>user\n%s<end_of_turn>\n<start_of_turn>model\n",
		developerContext, instruction)
}

// BuildRepairPrompt is issued once, after a first decode yields zero
// proposals, with the invalid output included verbatim.
func BuildRepairPrompt(developerContext, committedText, badOutput string) string {
	instruction := fmt.Sprintf(
		"The previous model output was invalid.\n\nOutput ONLY valid function call(s) using EXACTLY this format:\n<start_function_call>call:TOOL_NAME{arg1:<escape>value<escape>,arg2:...}<end_function_call>\n\nText:\n%s\n\nInvalid output:\n%s",
		committedText, badOutput)
	return fmt.Sprintf(
		"<start_of_turn>developer\n%s<end_of_turn>\n<start_of_turn>user\n%s<end_of_turn>\n<start_of_turn>model\n",
		developerContext, instruction)
}

// BuildFollowupPrompt implements spec §4.9's chaining prompt: the
// original request plus a truncated JSON preview of the tool output.
func BuildFollowupPrompt(originalText, toolName, toolOutputJSON string) string {
	preview := TruncatePreview(toolOutputJSON, 1400)
	return fmt.Sprintf(
		"Original request:\n%s\n\nTool `%s` output (JSON):\n%s\n\nIf another tool should be called to fully satisfy the original request, call it now. Otherwise output <end_of_turn>.",
		originalText, toolName, preview)
}

// BuildSummaryPrompt builds the optional post-execution natural-
// language confirmation (SPEC_FULL §12, grounded on
// original_source/plugins/tools/src/inference.rs's generate_summary).
func BuildSummaryPrompt(toolName, outputPreview, userRequest string) string {
	return fmt.Sprintf(
		"Summarize the result of calling %s for the request %q in one short sentence.\n\nResult:\n%s",
		toolName, userRequest, outputPreview)
}

// TruncatePreview truncates text to maxLen runes, appending "..." if
// truncated — the literal rule from inference.rs: "if output_preview
// .len() > 1400 { format!("{}...", &output_preview[..1400]) }".
func TruncatePreview(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen]) + "..."
}

// FunctionDeclaration is one entry of the tool manifest rendered into
// the developer prompt.
type FunctionDeclaration struct {
	Name        string
	Description string
	ParametersJSON string // the tool's args_schema, verbatim JSON text
}

// BuildFunctionDeclarations renders the manifest's tool set into the
// `function_declarations` block referenced by spec §4.7: for each
// tool, "declaration:<name>{description:<escape>...<escape>,
// parameters:{...}}" delimited by
// <start_function_declaration>...<end_function_declaration>.
func BuildFunctionDeclarations(decls []FunctionDeclaration) string {
	var b strings.Builder
	for _, d := range decls {
		b.WriteString("<start_function_declaration>")
		fmt.Fprintf(&b, "declaration:%s{description:<escape>%s<escape>,parameters:%s}", d.Name, d.Description, d.ParametersJSON)
		b.WriteString("<end_function_declaration>")
	}
	return b.String()
}
