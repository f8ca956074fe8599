package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gocontext "github.com/lokutor-ai/gibberish/pkg/context"
)

// WebSearchTool is a generic search-for-a-topic tool. It currently
// delegates to the same Wikipedia summary endpoint as WikipediaTool
// (wikipedia is the only supported source), extensible to other
// sources later — grounded on
// original_source/plugins/tools/src/tools/web_search.rs, which notes
// the same design.
type WebSearchTool struct {
	wiki *WikipediaTool
}

// NewWebSearchTool builds a WebSearchTool using client, or
// http.DefaultClient if nil.
func NewWebSearchTool(client *http.Client) *WebSearchTool {
	return &WebSearchTool{wiki: NewWikipediaTool(client)}
}

func (t *WebSearchTool) Name() string { return "web_search" }
func (t *WebSearchTool) Description() string {
	return "Search for information about a topic, look up facts, or answer questions"
}
func (t *WebSearchTool) IsReadOnly() bool         { return true }
func (t *WebSearchTool) Modes() []gocontext.Mode { return nil }

func (t *WebSearchTool) ArgsSchema() string {
	return `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "The topic or question to search for."},
    "source": {"type": "string", "description": "Search source to use. Currently only 'wikipedia' is supported.", "enum": ["wikipedia"], "default": "wikipedia"},
    "lang": {"type": "string", "description": "Language code for results, e.g. en, es, ca.", "default": "en"}
  },
  "required": ["query"]
}`
}

func (t *WebSearchTool) keyFor(args map[string]any) string {
	query, _ := args["query"].(string)
	if query == "" {
		return ""
	}
	source, _ := args["source"].(string)
	if source == "" {
		source = "wikipedia"
	}
	lang, _ := args["lang"].(string)
	if lang == "" {
		lang = "en"
	}
	return fmt.Sprintf("%s:%s:%s", source, lang, strings.ToLower(strings.TrimSpace(query)))
}

func (t *WebSearchTool) CacheKey(args map[string]any) string    { return t.keyFor(args) }
func (t *WebSearchTool) CooldownKey(args map[string]any) string { return t.keyFor(args) }

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, fmt.Errorf("tools: web_search requires a non-empty query")
	}
	source, _ := args["source"].(string)
	if source == "" {
		source = "wikipedia"
	}

	wikiArgs := map[string]any{"city": query, "sentences": float64(3)}
	if lang, ok := args["lang"].(string); ok && lang != "" {
		wikiArgs["lang"] = lang
	}

	wikiResult, err := t.wiki.Execute(ctx, wikiArgs)
	if err != nil {
		return Result{}, err
	}
	return buildSearchResult(query, source, wikiResult.Payload), nil
}

// buildSearchResult reshapes a Wikipedia-lookup payload into the
// web_search result contract (spec ground truth
// original_source/plugins/tools/src/tools/web_search.rs): top-level
// query/source, and a result block keyed "summary" rather than the
// Wikipedia tool's own "extract" naming.
func buildSearchResult(query, source string, wikiPayload map[string]any) Result {
	inner, _ := wikiPayload["result"].(map[string]any)
	return Result{
		EventName: "tools:search_result",
		Payload: map[string]any{
			"query":  query,
			"source": source,
			"result": map[string]any{
				"title":   inner["title"],
				"summary": inner["extract"],
				"url":     inner["url"],
			},
		},
	}
}
