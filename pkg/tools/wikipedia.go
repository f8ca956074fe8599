package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gocontext "github.com/lokutor-ai/gibberish/pkg/context"
)

// defaultSentences mirrors wikipedia.rs's DEFAULT_SENTENCES.
const defaultSentences = 2

// WikipediaTool looks up a city summary from Wikipedia's REST API.
// Grounded on original_source/plugins/tools/src/tools/wikipedia.rs;
// the HTTP call shape (context-aware request, JSON decode, explicit
// status check) follows the teacher's
// pkg/providers/llm/anthropic.go.
type WikipediaTool struct {
	client *http.Client
}

// NewWikipediaTool builds a WikipediaTool using client, or
// http.DefaultClient if nil.
func NewWikipediaTool(client *http.Client) *WikipediaTool {
	if client == nil {
		client = http.DefaultClient
	}
	return &WikipediaTool{client: client}
}

func (t *WikipediaTool) Name() string        { return "wikipedia_city_lookup" }
func (t *WikipediaTool) Description() string { return "Look up city information from Wikipedia" }
func (t *WikipediaTool) IsReadOnly() bool     { return true }
func (t *WikipediaTool) Modes() []gocontext.Mode { return nil }

func (t *WikipediaTool) ArgsSchema() string {
	return `{
  "type": "object",
  "properties": {
    "city": {"type": "string", "description": "City name only (no extra words)."},
    "lang": {"type": "string", "description": "Wikipedia language code, e.g. en, es, ca.", "default": "en"},
    "sentences": {"type": "integer", "description": "How many sentences to return (1-10).", "minimum": 1, "maximum": 10, "default": 2}
  },
  "required": ["city"]
}`
}

func (t *WikipediaTool) cacheKeyFor(args map[string]any) string {
	city, _ := args["city"].(string)
	if city == "" {
		return ""
	}
	lang, _ := args["lang"].(string)
	if lang == "" {
		lang = "en"
	}
	return fmt.Sprintf("%s:%s", lang, strings.ToLower(strings.TrimSpace(city)))
}

func (t *WikipediaTool) CacheKey(args map[string]any) string    { return t.cacheKeyFor(args) }
func (t *WikipediaTool) CooldownKey(args map[string]any) string { return t.cacheKeyFor(args) }

type wikipediaSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	URL     struct {
		Page string `json:"page"`
	} `json:"content_urls,omitempty"`
}

func (t *WikipediaTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	city, _ := args["city"].(string)
	city = strings.TrimSpace(city)
	if city == "" {
		return Result{}, fmt.Errorf("tools: wikipedia_city_lookup requires a non-empty city")
	}
	lang, _ := args["lang"].(string)
	if strings.TrimSpace(lang) == "" {
		lang = "en"
	}
	sentences := defaultSentences
	if n, ok := args["sentences"].(float64); ok && n >= 1 && n <= 10 {
		sentences = int(n)
	}

	endpoint := fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1/page/summary/%s", lang, url.PathEscape(city))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return Result{}, fmt.Errorf("wikipedia lookup error (status %d): %v", resp.StatusCode, errResp)
	}

	var summary wikipediaSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return Result{}, fmt.Errorf("tools: decoding wikipedia response: %w", err)
	}

	extract := truncateSentences(summary.Extract, sentences)

	return Result{
		EventName: "tools:wikipedia_city",
		Payload: map[string]any{
			"city": summary.Title,
			"result": map[string]any{
				"title":   summary.Title,
				"extract": extract,
				"url":     summary.URL.Page,
			},
		},
	}, nil
}

// truncateSentences keeps the first n "sentences" of text, splitting
// on ". " as a simple heuristic — the original implementation's
// summary API already returns short extracts, so this is a belt-and-
// suspenders clamp rather than the primary mechanism.
func truncateSentences(text string, n int) string {
	if n <= 0 {
		return text
	}
	parts := strings.SplitAfter(text, ". ")
	if len(parts) <= n {
		return text
	}
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		b.WriteString(parts[i])
	}
	return strings.TrimSpace(b.String())
}
