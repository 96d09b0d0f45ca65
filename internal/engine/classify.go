package engine

import (
	"context"
	"log/slog"
)

// Classifier sends bounded batches of candidates to the relevance oracle and
// reconciles every returned id against the submitted batch. It never retries
// on its own — retry policy belongs to the caller (the cleanup pass).
type Classifier struct {
	// complete is the oracle call; defaults to CallLLM, overridden in tests.
	complete func(ctx context.Context, prompt string) (string, error)
}

// NewClassifier builds a classifier backed by the configured LLM client.
func NewClassifier() *Classifier {
	return &Classifier{complete: CallLLM}
}

// ClassifyBatch runs one oracle call for the batch and reconciles the
// response. On total call failure every submitted id becomes unresolved and
// Err is set; the error never propagates as a panic or aborts a run.
func (c *Classifier) ClassifyBatch(ctx context.Context, batch []CandidateVideo, fc FilterContext) BatchOutcome {
	if len(batch) == 0 {
		return BatchOutcome{}
	}

	ids := make([]string, len(batch))
	for i, v := range batch {
		ids[i] = v.ID
	}

	prompt, err := buildClassifyPrompt(batch, fc)
	if err != nil {
		return BatchOutcome{Unresolved: ids, Err: err}
	}

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		slog.Warn("classify: oracle call failed, batch unresolved",
			slog.Int("batch_size", len(batch)), slog.Any("error", err))
		return BatchOutcome{Unresolved: ids, Err: err}
	}

	resp, err := parseOracleResponse(raw)
	if err != nil {
		IncrOracleErrors()
		slog.Warn("classify: malformed oracle response, batch unresolved",
			slog.Int("batch_size", len(batch)), slog.Any("error", err))
		return BatchOutcome{Unresolved: ids, Err: err}
	}

	return reconcile(ids, resp)
}

// reconcile classifies every returned id as accepted, hallucinated, or
// duplicate, then derives the unresolved remainder. Hallucinated ids (not in
// the submitted batch) are discarded with a warning; an id claimed by both
// lists keeps its first placement.
func reconcile(batchIDs []string, resp oracleResponse) BatchOutcome {
	known := make(map[string]bool, len(batchIDs))
	for _, id := range batchIDs {
		known[id] = true
	}

	placed := make(map[string]bool, len(batchIDs))
	var out BatchOutcome
	var hallucinated int64

	accept := func(list []string, into *[]string, label string) {
		for _, id := range list {
			if !known[id] {
				hallucinated++
				slog.Warn("classify: discarding id not in submitted batch",
					slog.String("id", id), slog.String("list", label))
				continue
			}
			if placed[id] {
				slog.Warn("classify: id returned in both lists, keeping first placement",
					slog.String("id", id))
				continue
			}
			placed[id] = true
			*into = append(*into, id)
		}
	}

	accept(resp.RelevantIDs, &out.Relevant, "relevant")
	accept(resp.FilteredOutIDs, &out.FilteredOut, "filtered_out")

	if hallucinated > 0 {
		IncrHallucinatedIDs(hallucinated)
	}

	for _, id := range batchIDs {
		if !placed[id] {
			out.Unresolved = append(out.Unresolved, id)
		}
	}
	return out
}
