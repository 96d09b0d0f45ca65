package engine

import (
	"context"
	"log/slog"
)

// RunFilter executes the full classification pipeline: a sequential main pass
// over BatchSize batches, then one cleanup pass over whatever the oracle left
// unresolved, regrouped into CleanupBatchSize batches. Items still unresolved
// after cleanup end up in FailedBatch — the run itself always completes with
// a full partition of the input set.
func RunFilter(ctx context.Context, videos []CandidateVideo, fc FilterContext, c *Classifier) FilterResult {
	videos = dedupeByID(videos)

	relevant := make(map[string]bool)
	filtered := make(map[string]bool)

	// Main pass: sequential batches for reproducible partial results.
	for _, batch := range chunkVideos(videos, cfg.BatchSize) {
		out := c.ClassifyBatch(ctx, batch, fc)
		for _, id := range out.Relevant {
			relevant[id] = true
		}
		for _, id := range out.FilteredOut {
			filtered[id] = true
		}
		if out.Err != nil {
			slog.Warn("filter: batch call failed, continuing with next batch",
				slog.Int("unresolved", len(out.Unresolved)), slog.Any("error", out.Err))
		}
	}

	var unresolved []CandidateVideo
	for _, v := range videos {
		if !relevant[v.ID] && !filtered[v.ID] {
			unresolved = append(unresolved, v)
		}
	}

	result := FilterResult{}

	// Cleanup pass: smaller batches reduce the oracle's hallucination rate.
	// Single retry round; anything still unresolved afterwards is terminal.
	if len(unresolved) > 0 {
		result.CleanupAttempted = true
		slog.Info("filter: cleanup pass",
			slog.Int("unresolved", len(unresolved)), slog.Int("batch_size", cfg.CleanupBatchSize))

		for _, batch := range chunkVideos(unresolved, cfg.CleanupBatchSize) {
			IncrCleanupBatches()
			out := c.ClassifyBatch(ctx, batch, fc)
			for _, id := range out.Relevant {
				relevant[id] = true
				result.CleanupRecovered++
			}
			for _, id := range out.FilteredOut {
				filtered[id] = true
				result.CleanupRecovered++
			}
		}
	}

	// Partition in input order: relevant / filtered_out / failed are pairwise
	// disjoint and together cover the input set.
	for _, v := range videos {
		switch {
		case relevant[v.ID]:
			result.Relevant = append(result.Relevant, v)
		case filtered[v.ID]:
			result.FilteredOut = append(result.FilteredOut, v)
		default:
			result.FailedBatch = append(result.FailedBatch, v)
		}
	}

	if len(result.FailedBatch) > 0 {
		slog.Warn("filter: unresolved items after cleanup",
			slog.Int("failed", len(result.FailedBatch)))
	}
	return result
}

// chunkVideos splits videos into groups of at most size, preserving order.
func chunkVideos(videos []CandidateVideo, size int) [][]CandidateVideo {
	if size <= 0 {
		size = 1
	}
	var chunks [][]CandidateVideo
	for start := 0; start < len(videos); start += size {
		end := min(start+size, len(videos))
		chunks = append(chunks, videos[start:end])
	}
	return chunks
}

// dedupeByID drops later duplicates, keeping first occurrence order.
func dedupeByID(videos []CandidateVideo) []CandidateVideo {
	seen := make(map[string]bool, len(videos))
	out := make([]CandidateVideo, 0, len(videos))
	for _, v := range videos {
		if v.ID == "" || seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}
