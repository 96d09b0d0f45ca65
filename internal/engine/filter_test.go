package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// scriptedOracle returns canned responses in call order, falling back to the
// last one when calls exceed the script.
func scriptedOracle(responses ...string) *Classifier {
	call := 0
	return &Classifier{complete: func(ctx context.Context, prompt string) (string, error) {
		resp := responses[min(call, len(responses)-1)]
		call++
		if resp == "ERROR" {
			return "", errors.New("oracle down")
		}
		return resp, nil
	}}
}

// echoOracle classifies every submitted id as relevant by parsing ids back
// out of the prompt payload.
func echoOracle(t *testing.T) *Classifier {
	t.Helper()
	return &Classifier{complete: func(ctx context.Context, prompt string) (string, error) {
		start := strings.Index(prompt, "[{")
		end := strings.LastIndex(prompt, "}]")
		if start < 0 || end < 0 {
			return `{"relevant_ids": [], "filtered_out_ids": []}`, nil
		}
		var items []promptItem
		if err := json.Unmarshal([]byte(prompt[start:end+2]), &items); err != nil {
			t.Fatalf("echo oracle: %v", err)
		}
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = fmt.Sprintf("%q", it.ID)
		}
		return fmt.Sprintf(`{"relevant_ids": [%s], "filtered_out_ids": []}`, strings.Join(ids, ",")), nil
	}}
}

func TestRunFilterDisjointUnion(t *testing.T) {
	Init(Config{BatchSize: 2, CleanupBatchSize: 1})

	videos := testBatch("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd", "eeeeeeeeeee")
	// Main pass: first batch splits, second batch fails, third batch filters.
	// Cleanup pass resolves one of the two failed ids.
	c := scriptedOracle(
		`{"relevant_ids": ["aaaaaaaaaaa"], "filtered_out_ids": ["bbbbbbbbbbb"]}`,
		"ERROR",
		`{"relevant_ids": [], "filtered_out_ids": ["eeeeeeeeeee"]}`,
		`{"relevant_ids": ["ccccccccccc"], "filtered_out_ids": []}`,
		`{"relevant_ids": [], "filtered_out_ids": []}`,
	)

	result := RunFilter(context.Background(), videos, FilterContext{Criteria: "x"}, c)

	total := len(result.Relevant) + len(result.FilteredOut) + len(result.FailedBatch)
	if total != len(videos) {
		t.Fatalf("partition covers %d of %d inputs", total, len(videos))
	}

	seen := make(map[string]int)
	for _, v := range result.Relevant {
		seen[v.ID]++
	}
	for _, v := range result.FilteredOut {
		seen[v.ID]++
	}
	for _, v := range result.FailedBatch {
		seen[v.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("id %s appears %d times across partition", id, n)
		}
	}

	if !result.CleanupAttempted {
		t.Error("cleanup pass should have run")
	}
	if result.CleanupRecovered != 1 {
		t.Errorf("CleanupRecovered = %d, want 1", result.CleanupRecovered)
	}
	if len(result.FailedBatch) != 1 || result.FailedBatch[0].ID != "ddddddddddd" {
		t.Errorf("FailedBatch = %v, want [ddddddddddd]", result.FailedBatch)
	}
}

func TestRunFilterAllResolvedNoCleanup(t *testing.T) {
	Init(Config{BatchSize: 10})

	result := RunFilter(context.Background(), testBatch("aaaaaaaaaaa", "bbbbbbbbbbb"), FilterContext{Criteria: "x"}, echoOracle(t))

	if result.CleanupAttempted {
		t.Error("cleanup should not run when main pass resolves everything")
	}
	if len(result.Relevant) != 2 {
		t.Errorf("relevant = %d, want 2", len(result.Relevant))
	}
}

func TestRunFilterBatchFailureDoesNotAbort(t *testing.T) {
	Init(Config{BatchSize: 1, CleanupBatchSize: 1})

	// Every call fails: the run must still terminate with a full partition.
	c := scriptedOracle("ERROR")
	videos := testBatch("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc")
	result := RunFilter(context.Background(), videos, FilterContext{Criteria: "x"}, c)

	if len(result.FailedBatch) != 3 {
		t.Errorf("FailedBatch = %d, want all 3", len(result.FailedBatch))
	}
	if result.CleanupRecovered != 0 {
		t.Errorf("CleanupRecovered = %d, want 0", result.CleanupRecovered)
	}
}

func TestRunFilterPreservesInputOrder(t *testing.T) {
	Init(Config{BatchSize: 2})

	videos := testBatch("ccccccccccc", "aaaaaaaaaaa", "bbbbbbbbbbb")
	result := RunFilter(context.Background(), videos, FilterContext{Criteria: "x"}, echoOracle(t))

	want := []string{"ccccccccccc", "aaaaaaaaaaa", "bbbbbbbbbbb"}
	for i, v := range result.Relevant {
		if v.ID != want[i] {
			t.Errorf("relevant[%d] = %s, want %s", i, v.ID, want[i])
		}
	}
}

func TestRunFilterDedupesInput(t *testing.T) {
	Init(Config{BatchSize: 10})

	videos := testBatch("aaaaaaaaaaa", "aaaaaaaaaaa", "bbbbbbbbbbb")
	result := RunFilter(context.Background(), videos, FilterContext{Criteria: "x"}, echoOracle(t))

	if total := len(result.Relevant) + len(result.FilteredOut) + len(result.FailedBatch); total != 2 {
		t.Errorf("partition size = %d, want 2 after dedupe", total)
	}
}

func TestChunkVideos(t *testing.T) {
	tests := []struct {
		name  string
		count int
		size  int
		want  []int // chunk lengths
	}{
		{"even split", 4, 2, []int{2, 2}},
		{"remainder", 5, 2, []int{2, 2, 1}},
		{"single chunk", 3, 10, []int{3}},
		{"zero size clamps to 1", 2, 0, []int{1, 1}},
		{"empty input", 0, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos := make([]CandidateVideo, tt.count)
			for i := range videos {
				videos[i].ID = fmt.Sprintf("%011d", i)
			}
			chunks := chunkVideos(videos, tt.size)
			if len(chunks) != len(tt.want) {
				t.Fatalf("chunks = %d, want %d", len(chunks), len(tt.want))
			}
			for i, c := range chunks {
				if len(c) != tt.want[i] {
					t.Errorf("chunk[%d] len = %d, want %d", i, len(c), tt.want[i])
				}
			}
		})
	}
}
