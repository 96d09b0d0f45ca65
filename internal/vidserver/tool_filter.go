package vidserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
	"github.com/anatolykoptev/go_tube/internal/toolutil"
)

func registerVideoFilter(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_filter",
		Description: "Classify candidate YouTube videos as relevant or not against free-text criteria using batched LLM calls. Accepts an explicit video list or a search query to build the candidate set. Returns the relevant/filtered_out/failed partition with cleanup-pass recovery stats.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.VideoFilterInput) (*mcp.CallToolResult, engine.VideoFilterOutput, error) {
		if strings.TrimSpace(input.Criteria) == "" {
			return nil, engine.VideoFilterOutput{}, fmt.Errorf("criteria is required")
		}

		videos := input.Videos
		if len(videos) == 0 {
			if strings.TrimSpace(input.Query) == "" {
				return nil, engine.VideoFilterOutput{}, fmt.Errorf("either videos or query is required")
			}
			found, err := sources.SearchVideos(ctx, input.Query, input.Limit)
			if err != nil {
				return nil, engine.VideoFilterOutput{}, fmt.Errorf("youtube search: %w", err)
			}
			videos = found
		}
		if len(videos) == 0 {
			return nil, engine.VideoFilterOutput{}, nil
		}

		cacheKey := filterCacheKey(input, videos)
		if out, ok := engine.CacheLoadJSON[engine.VideoFilterOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		fc := engine.FilterContext{
			Criteria:      input.Criteria,
			RequiredTerms: input.RequiredTerms,
		}
		result := engine.RunFilter(ctx, videos, fc, engine.NewClassifier())

		if err := engine.RecordFilterOutcomes(ctx, result); err != nil {
			slog.Warn("outcomes: record filter results failed", slog.Any("error", err))
		}

		out := engine.VideoFilterOutput{
			Result:        result,
			RelevantCount: len(result.Relevant),
			FilteredCount: len(result.FilteredOut),
			FailedCount:   len(result.FailedBatch),
		}
		engine.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}

// filterCacheKey keys a classification run on its criteria plus the exact
// candidate id set. Same videos under different criteria never collide.
func filterCacheKey(input engine.VideoFilterInput, videos []engine.CandidateVideo) string {
	parts := []string{"video_filter", input.Criteria, strings.Join(input.RequiredTerms, ",")}
	parts = append(parts, toolutil.IDsOf(videos)...)
	return engine.CacheKey(parts...)
}
