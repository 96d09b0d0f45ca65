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

func registerVideoResearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_research",
		Description: "End-to-end video research pipeline: search YouTube, filter candidates against relevance criteria with batched LLM classification, then extract metadata and transcripts for the relevant subset concurrently. Returns the filter partition, per-video extraction results, and tallies.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.VideoResearchInput) (*mcp.CallToolResult, engine.VideoResearchOutput, error) {
		if strings.TrimSpace(input.Query) == "" {
			return nil, engine.VideoResearchOutput{}, fmt.Errorf("query is required")
		}
		if strings.TrimSpace(input.Criteria) == "" {
			return nil, engine.VideoResearchOutput{}, fmt.Errorf("criteria is required")
		}

		videos, err := sources.SearchVideos(ctx, input.Query, input.Limit)
		if err != nil {
			return nil, engine.VideoResearchOutput{}, fmt.Errorf("youtube search: %w", err)
		}
		if len(videos) == 0 {
			return nil, engine.VideoResearchOutput{Query: input.Query}, nil
		}

		fc := engine.FilterContext{
			Criteria:      input.Criteria,
			RequiredTerms: input.RequiredTerms,
		}
		filter := engine.RunFilter(ctx, videos, fc, engine.NewClassifier())
		if err := engine.RecordFilterOutcomes(ctx, filter); err != nil {
			slog.Warn("outcomes: record filter results failed", slog.Any("error", err))
		}

		out := engine.VideoResearchOutput{Query: input.Query, Filter: filter}
		if len(filter.Relevant) == 0 {
			return nil, out, nil
		}

		out.Results, out.Tally = runExtraction(ctx, toolutil.IDsOf(filter.Relevant), input.Language)
		return nil, out, nil
	})
}
