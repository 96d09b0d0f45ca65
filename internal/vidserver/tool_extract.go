package vidserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/toolutil"
)

func registerVideoExtract(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_extract",
		Description: "Fetch metadata and transcripts for a set of YouTube videos concurrently, with rate limiting and per-video retry. Accepts bare 11-char ids or any YouTube URL form. Returns one terminal result per video (succeeded, failed_transient, failed_fatal) plus aggregate tallies.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.VideoExtractInput) (*mcp.CallToolResult, engine.VideoExtractOutput, error) {
		ids := toolutil.NormalizeIDs(input.IDs)
		if len(ids) == 0 {
			return nil, engine.VideoExtractOutput{}, fmt.Errorf("no valid video ids in input")
		}

		results, tally := runExtraction(ctx, ids, input.Language)
		return nil, engine.VideoExtractOutput{Results: results, Tally: tally}, nil
	})
}

// runExtraction dispatches the extraction pipeline for the given ids and
// collects every terminal result. Shared by video_extract and video_research.
func runExtraction(ctx context.Context, ids []string, language string) ([]engine.ExtractionResult, engine.Tally) {
	langs := toolutil.TranscriptLangs(language)

	sched := engine.NewScheduler(func(ctx context.Context, id string) (*engine.Artifact, error) {
		return extractArtifact(ctx, id, langs)
	})
	agg := engine.NewAggregator(len(ids), outcomeSink(ctx))

	return agg.Collect(sched.Run(ctx, ids, engine.Cfg.Concurrency))
}
