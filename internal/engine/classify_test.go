package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func testBatch(ids ...string) []CandidateVideo {
	batch := make([]CandidateVideo, len(ids))
	for i, id := range ids {
		batch[i] = CandidateVideo{ID: id, Title: "video " + id}
	}
	return batch
}

func fakeClassifier(resp string, err error) *Classifier {
	return &Classifier{complete: func(ctx context.Context, prompt string) (string, error) {
		return resp, err
	}}
}

func TestClassifyBatchPartition(t *testing.T) {
	Init(Config{})

	c := fakeClassifier(`{"relevant_ids": ["aaaaaaaaaaa", "bbbbbbbbbbb"], "filtered_out_ids": ["ccccccccccc"]}`, nil)
	out := c.ClassifyBatch(context.Background(), testBatch("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"), FilterContext{Criteria: "go talks"})

	if len(out.Relevant) != 2 || len(out.FilteredOut) != 1 || len(out.Unresolved) != 0 {
		t.Fatalf("partition = %d/%d/%d, want 2/1/0", len(out.Relevant), len(out.FilteredOut), len(out.Unresolved))
	}
	if out.Err != nil {
		t.Errorf("unexpected err: %v", out.Err)
	}
}

func TestClassifyBatchDiscardsHallucinatedIDs(t *testing.T) {
	Init(Config{})

	// Oracle invents "zzzzzzzzzzz" which was never submitted.
	c := fakeClassifier(`{"relevant_ids": ["aaaaaaaaaaa", "zzzzzzzzzzz"], "filtered_out_ids": ["bbbbbbbbbbb"]}`, nil)
	out := c.ClassifyBatch(context.Background(), testBatch("aaaaaaaaaaa", "bbbbbbbbbbb"), FilterContext{Criteria: "x"})

	if len(out.Relevant) != 1 || out.Relevant[0] != "aaaaaaaaaaa" {
		t.Errorf("relevant = %v, want [aaaaaaaaaaa]", out.Relevant)
	}
	for _, id := range append(out.Relevant, out.FilteredOut...) {
		if id == "zzzzzzzzzzz" {
			t.Fatal("hallucinated id leaked into results")
		}
	}
}

func TestClassifyBatchMissingIDsUnresolved(t *testing.T) {
	Init(Config{})

	// Oracle only places one of three ids.
	c := fakeClassifier(`{"relevant_ids": ["aaaaaaaaaaa"], "filtered_out_ids": []}`, nil)
	out := c.ClassifyBatch(context.Background(), testBatch("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"), FilterContext{Criteria: "x"})

	if len(out.Unresolved) != 2 {
		t.Fatalf("unresolved = %v, want 2 ids", out.Unresolved)
	}
	if out.Err != nil {
		t.Errorf("missing ids should not set Err, got %v", out.Err)
	}
}

func TestClassifyBatchDuplicateKeepsFirstPlacement(t *testing.T) {
	Init(Config{})

	c := fakeClassifier(`{"relevant_ids": ["aaaaaaaaaaa"], "filtered_out_ids": ["aaaaaaaaaaa"]}`, nil)
	out := c.ClassifyBatch(context.Background(), testBatch("aaaaaaaaaaa"), FilterContext{Criteria: "x"})

	if len(out.Relevant) != 1 || len(out.FilteredOut) != 0 {
		t.Errorf("duplicate id placed as %d relevant / %d filtered, want 1/0", len(out.Relevant), len(out.FilteredOut))
	}
}

func TestClassifyBatchCallFailure(t *testing.T) {
	Init(Config{})

	c := fakeClassifier("", errors.New("upstream 500"))
	out := c.ClassifyBatch(context.Background(), testBatch("aaaaaaaaaaa", "bbbbbbbbbbb"), FilterContext{Criteria: "x"})

	if len(out.Unresolved) != 2 {
		t.Errorf("unresolved = %v, want whole batch", out.Unresolved)
	}
	if out.Err == nil {
		t.Error("expected Err set on call failure")
	}
}

func TestClassifyBatchMalformedResponse(t *testing.T) {
	Init(Config{})

	c := fakeClassifier("I think video A is great!", nil)
	out := c.ClassifyBatch(context.Background(), testBatch("aaaaaaaaaaa"), FilterContext{Criteria: "x"})

	if len(out.Unresolved) != 1 || out.Err == nil {
		t.Errorf("malformed response: unresolved=%v err=%v, want whole batch + err", out.Unresolved, out.Err)
	}
}

func TestClassifyBatchEmpty(t *testing.T) {
	Init(Config{})

	called := false
	c := &Classifier{complete: func(ctx context.Context, prompt string) (string, error) {
		called = true
		return "", nil
	}}
	out := c.ClassifyBatch(context.Background(), nil, FilterContext{Criteria: "x"})

	if called {
		t.Error("oracle called for empty batch")
	}
	if len(out.Relevant)+len(out.FilteredOut)+len(out.Unresolved) != 0 {
		t.Errorf("empty batch produced non-empty outcome: %+v", out)
	}
}

func TestReconcileHallucinationCounter(t *testing.T) {
	before := GetMetrics()["hallucinated_ids"]
	reconcile([]string{"aaaaaaaaaaa"}, oracleResponse{
		RelevantIDs:    []string{"xxxxxxxxxxx", "yyyyyyyyyyy"},
		FilteredOutIDs: []string{"aaaaaaaaaaa"},
	})
	if got := GetMetrics()["hallucinated_ids"] - before; got != 2 {
		t.Errorf("hallucinated counter delta = %d, want 2", got)
	}
}

func ExampleClassifier_ClassifyBatch() {
	Init(Config{})
	c := fakeClassifier(`{"relevant_ids": ["dQw4w9WgXcQ"], "filtered_out_ids": []}`, nil)
	out := c.ClassifyBatch(context.Background(), testBatch("dQw4w9WgXcQ"), FilterContext{Criteria: "music"})
	fmt.Println(out.Relevant)
	// Output: [dQw4w9WgXcQ]
}
