package inference

import "regexp"

// callBlockRe extracts each <start_function_call>...<end_function_call>
// span. (?s) makes '.' match newlines, since an argument value may
// itself span lines.
var callBlockRe = regexp.MustCompile(`(?s)<start_function_call>(.*?)<end_function_call>`)

// callHeaderRe splits a block into its tool name and argument body:
// call:TOOL_NAME{ ... }
var callHeaderRe = regexp.MustCompile(`(?s)^call:(\w+)\{(.*)\}$`)

// argPairRe extracts each arg:<escape>value<escape> pair from the
// argument body. Matching key/value pairs directly (rather than
// splitting the body on commas) is deliberate: an argument value may
// itself contain commas, and the <escape> markers are the only
// reliable delimiter the wire format provides.
var argPairRe = regexp.MustCompile(`(?s)(\w+):<escape>(.*?)<escape>`)

// ParseProposals scans raw decoded model output for well-formed
// function call blocks and returns one Proposal per block. Blocks that
// don't match the call:TOOL{...} header shape are silently skipped —
// spec §4.7 treats unparseable output as zero proposals, not an error.
func ParseProposals(raw string) []Proposal {
	var proposals []Proposal
	for _, block := range callBlockRe.FindAllStringSubmatch(raw, -1) {
		header := callHeaderRe.FindStringSubmatch(block[1])
		if header == nil {
			continue
		}
		tool := header[1]
		body := header[2]

		args := make(map[string]string)
		for _, pair := range argPairRe.FindAllStringSubmatch(body, -1) {
			args[pair[1]] = pair[2]
		}
		proposals = append(proposals, Proposal{Tool: tool, Args: args})
	}
	return proposals
}
