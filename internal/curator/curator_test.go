package curator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"hallyu-journalist/internal/ai"
	"hallyu-journalist/internal/config"
	"hallyu-journalist/internal/failure"
	"hallyu-journalist/internal/model"
)

type fakeModel struct {
	name   string
	answer string
	err    error
	prompt string
	calls  int
}

func (f *fakeModel) Name() string { return f.name }

func (f *fakeModel) Complete(_ context.Context, _, user string, _ bool) (string, error) {
	f.calls++
	f.prompt = user
	return f.answer, f.err
}

func batch(n int) []model.Candidate {
	out := make([]model.Candidate, n)
	for i := range out {
		out[i] = model.Candidate{
			Title:   fmt.Sprintf("기사 %d", i),
			Link:    fmt.Sprintf("https://n.example/%d", i),
			Snippet: fmt.Sprintf("요약 %d", i),
			Query:   "컴백",
		}
	}
	return out
}

func newCurator(models ...ai.Completer) *Curator {
	return New(ai.NewChain(0, models...), Options{AdmissionMin: 4.0, Policies: map[model.Category]Policy{
		model.KCulture: {Band: config.BandLenient},
	}})
}

func TestCurateParsesWrappedJSON(t *testing.T) {
	m := &fakeModel{name: "m", answer: "Sure! Here's the JSON:\n```json\n" +
		`{"articles": [{"original_index": 1, "eng_title": "Comeback", "summary": "A summary.", "score": 8.5}]}` +
		"\n```"}
	res, err := newCurator(m).Curate(context.Background(), model.KPop, batch(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items = %+v", res.Items)
	}
	it := res.Items[0]
	if it.Title != "Comeback" || model.StringValue(it.Link) != "https://n.example/1" || it.Score != 8.5 || it.Category != model.KPop {
		t.Fatalf("item = %+v", it)
	}
}

func TestCurateValidatesEachArticle(t *testing.T) {
	answer := `{"articles": [
		{"original_index": 0, "eng_title": "ok", "summary": "s", "score": 12},
		{"original_index": 7, "eng_title": "out of range", "summary": "s", "score": 9},
		{"original_index": -1, "eng_title": "negative", "summary": "s", "score": 9},
		{"eng_title": "missing index", "summary": "s", "score": 9},
		{"original_index": 1, "eng_title": "too low", "summary": "s", "score": 3.9},
		{"original_index": 2, "eng_title": "", "summary": "s", "score": "4.0"},
		{"original_index": 0, "eng_title": "repeat", "summary": "s", "score": 9}
	]}`
	res, err := newCurator(&fakeModel{name: "m", answer: answer}).Curate(context.Background(), model.KDrama, batch(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %+v", res.Items)
	}
	if res.Items[0].Score != 10 {
		t.Fatalf("score not clamped: %v", res.Items[0].Score)
	}
	if res.Items[1].Title != "기사 2" || res.Items[1].Score != 4.0 {
		t.Fatalf("fallback title or threshold wrong: %+v", res.Items[1])
	}
	if res.Invalid != 4 || res.BelowMin != 1 {
		t.Fatalf("invalid = %d, below = %d", res.Invalid, res.BelowMin)
	}
	for _, it := range res.Items {
		if it.Score < 4.0 {
			t.Fatalf("admitted below threshold: %+v", it)
		}
	}
}

func TestCurateKeepsValidArticlesNextToMalformedOnes(t *testing.T) {
	answer := `{"articles": [
		{"original_index": 0, "eng_title": "good", "summary": "s", "score": 8.5},
		{"original_index": 1, "eng_title": "bad score", "summary": "s", "score": "N/A"},
		{"original_index": "2", "eng_title": "string index", "summary": "s", "score": "7"},
		{"original_index": 1.5, "eng_title": "fractional", "summary": "s", "score": 9},
		{"original_index": 1, "eng_title": ["not", "a", "string"], "score": 9}
	]}`
	m := &fakeModel{name: "m", answer: answer}
	res, err := newCurator(m).Curate(context.Background(), model.KPop, batch(3))
	if err != nil {
		t.Fatal(err)
	}
	if m.calls != 1 || res.Model != "m" {
		t.Fatalf("calls = %d, model = %q", m.calls, res.Model)
	}
	if len(res.Items) != 2 || res.Items[0].Title != "good" || res.Items[1].Title != "string index" {
		t.Fatalf("items = %+v", res.Items)
	}
	if model.StringValue(res.Items[1].Link) != "https://n.example/2" || res.Items[1].Score != 7 {
		t.Fatalf("item = %+v", res.Items[1])
	}
	if res.Returned != 5 || res.Invalid != 3 {
		t.Fatalf("returned = %d, invalid = %d", res.Returned, res.Invalid)
	}
}

func TestCurateDedupsByLink(t *testing.T) {
	cands := batch(2)
	cands[1].Link = cands[0].Link
	answer := `{"articles": [{"original_index": 0, "eng_title": "a", "summary": "s", "score": 7}, {"original_index": 1, "eng_title": "b", "summary": "s", "score": 8}]}`
	res, _ := newCurator(&fakeModel{name: "m", answer: answer}).Curate(context.Background(), model.KPop, cands)
	if len(res.Items) != 1 || res.Duplicates != 1 {
		t.Fatalf("res = %+v", res)
	}
}

func TestCurateFallsBackToNextModel(t *testing.T) {
	broken := &fakeModel{name: "broken", err: errors.New("429")}
	prose := &fakeModel{name: "prose", answer: "I cannot help with that."}
	empty := &fakeModel{name: "empty", answer: `{"articles": []}`}
	good := &fakeModel{name: "good", answer: `{"articles": [{"original_index": 0, "eng_title": "t", "summary": "s", "score": 6}]}`}
	res, err := newCurator(broken, prose, empty, good).Curate(context.Background(), model.KMovie, batch(1))
	if err != nil {
		t.Fatal(err)
	}
	if res.Model != "good" || len(res.Items) != 1 {
		t.Fatalf("res = %+v", res)
	}
}

func TestCurateAllModelsFailIsTransient(t *testing.T) {
	_, err := newCurator(&fakeModel{name: "a", answer: "nope"}).Curate(context.Background(), model.KMovie, batch(1))
	if failure.KindOf(err) != failure.KindTransient {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestCurateCapsBatchAndUsesBandPrompt(t *testing.T) {
	m := &fakeModel{name: "m", answer: `{"articles": [{"original_index": 0, "eng_title": "t", "summary": "s", "score": 6}]}`}
	c := newCurator(m)
	c.opts.BatchSize = 5
	if _, err := c.Curate(context.Background(), model.KCulture, batch(9)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(m.prompt, "[5] Title") {
		t.Fatal("prompt should stop at the batch size")
	}
	if !strings.Contains(m.prompt, "[4] Title: 기사 4") {
		t.Fatal("prompt should list the batch")
	}
	if !strings.Contains(m.prompt, "GENEROUS") {
		t.Fatal("k-culture should use the lenient band")
	}
}

func TestCurateEmptyBatchSkipsLLM(t *testing.T) {
	m := &fakeModel{name: "m"}
	res, err := newCurator(m).Curate(context.Background(), model.KPop, nil)
	if err != nil || len(res.Items) != 0 || m.calls != 0 {
		t.Fatalf("res = %+v, err = %v, calls = %d", res, err, m.calls)
	}
}

func TestScoreInstructionOverride(t *testing.T) {
	if got := ScoreInstruction(Policy{Band: config.BandLenient, Instruction: "custom"}); got != "custom" {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(ScoreInstruction(Policy{}), "STRICT") {
		t.Fatal("unknown band should default to strict")
	}
}
