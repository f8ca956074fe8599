package inference

import (
	"context"
	"strings"
	"testing"
)

func TestBuildPromptContainsTurnMarkers(t *testing.T) {
	p := BuildPrompt("you are a helper", "turn off the lights")
	for _, marker := range []string{"<start_of_turn>developer", "<end_of_turn>", "<start_of_turn>user", "<start_of_turn>model"} {
		if !strings.Contains(p, marker) {
			t.Fatalf("prompt missing marker %q: %s", marker, p)
		}
	}
	if !strings.Contains(p, "turn off the lights") {
		t.Fatalf("prompt missing committed text: %s", p)
	}
}

func TestTruncatePreviewRule(t *testing.T) {
	short := strings.Repeat("a", 1400)
	if got := TruncatePreview(short, 1400); got != short {
		t.Fatalf("exactly-1400 input should not be truncated")
	}
	long := strings.Repeat("a", 1401)
	got := TruncatePreview(long, 1400)
	if len(got) != 1403 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 1400 chars + '...', got len=%d suffix=%q", len(got), got[len(got)-3:])
	}
}

func TestParseProposalsSingleCall(t *testing.T) {
	raw := `<start_function_call>call:set_timer{minutes:<escape>5<escape>,label:<escape>tea<escape>}<end_function_call>`
	proposals := ParseProposals(raw)
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	p := proposals[0]
	if p.Tool != "set_timer" {
		t.Fatalf("expected tool set_timer, got %q", p.Tool)
	}
	if p.Args["minutes"] != "5" || p.Args["label"] != "tea" {
		t.Fatalf("unexpected args: %#v", p.Args)
	}
}

func TestParseProposalsArgValueWithCommaSurvives(t *testing.T) {
	raw := `<start_function_call>call:web_search{query:<escape>cats, dogs, and birds<escape>}<end_function_call>`
	proposals := ParseProposals(raw)
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	if proposals[0].Args["query"] != "cats, dogs, and birds" {
		t.Fatalf("comma-bearing value was mis-split: %q", proposals[0].Args["query"])
	}
}

func TestParseProposalsMultipleCalls(t *testing.T) {
	raw := `<start_function_call>call:a{x:<escape>1<escape>}<end_function_call>` +
		`<start_function_call>call:b{y:<escape>2<escape>}<end_function_call>`
	proposals := ParseProposals(raw)
	if len(proposals) != 2 {
		t.Fatalf("expected 2 proposals, got %d", len(proposals))
	}
}

func TestParseProposalsUnparseableYieldsNone(t *testing.T) {
	raw := "I think you should set a timer for five minutes."
	if got := ParseProposals(raw); len(got) != 0 {
		t.Fatalf("expected zero proposals for free text, got %d", len(got))
	}
}

// fakeRunner returns a scripted sequence of responses, one per call.
type fakeRunner struct {
	responses []string
	calls     int
}

func (f *fakeRunner) InferOnce(ctx context.Context, prompt string) (string, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return f.responses[i], nil
}

func TestDecideFirstParseConfidence(t *testing.T) {
	r := &fakeRunner{responses: []string{
		`<start_function_call>call:set_timer{minutes:<escape>5<escape>}<end_function_call>`,
	}}
	e := NewEngine(r)
	d, err := e.Decide(context.Background(), "dev ctx", "set a 5 minute timer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Confidence != ConfidenceFirstParse || d.Repaired {
		t.Fatalf("expected first-parse confidence without repair, got %+v", d)
	}
	if r.calls != 1 {
		t.Fatalf("expected exactly 1 runner call, got %d", r.calls)
	}
}

func TestDecideRepairsOnceThenGivesUp(t *testing.T) {
	r := &fakeRunner{responses: []string{
		"not a call at all",
		"still not a call",
	}}
	e := NewEngine(r)
	d, err := e.Decide(context.Background(), "dev ctx", "do something")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Proposals) != 0 || d.Confidence != ConfidenceNone || !d.Repaired {
		t.Fatalf("expected zero-confidence repaired-but-failed decision, got %+v", d)
	}
	if r.calls != 2 {
		t.Fatalf("expected exactly 2 runner calls (one repair max), got %d", r.calls)
	}
}

func TestDecideRepairSucceedsWithRepairConfidence(t *testing.T) {
	r := &fakeRunner{responses: []string{
		"garbage",
		`<start_function_call>call:set_timer{minutes:<escape>5<escape>}<end_function_call>`,
	}}
	e := NewEngine(r)
	d, err := e.Decide(context.Background(), "dev ctx", "do something")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Confidence != ConfidenceRepair || !d.Repaired || len(d.Proposals) != 1 {
		t.Fatalf("expected repair-confidence success, got %+v", d)
	}
}

func TestCoerceArgsTypesFromSchema(t *testing.T) {
	schema := `{"properties":{"minutes":{"type":"number"},"silent":{"type":"boolean"},"label":{"type":"string"}}}`
	args := map[string]string{"minutes": "5", "silent": "true", "label": "tea"}
	doc, err := CoerceArgs(args, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc, `"minutes":5`) {
		t.Fatalf("expected numeric coercion, got %s", doc)
	}
	if !strings.Contains(doc, `"silent":true`) {
		t.Fatalf("expected boolean coercion, got %s", doc)
	}
	if !strings.Contains(doc, `"label":"tea"`) {
		t.Fatalf("expected string passthrough, got %s", doc)
	}
}
