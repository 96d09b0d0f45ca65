// Package vidserver registers the video research MCP tools: relevance
// filtering, concurrent extraction, the combined research pipeline, and the
// outcome store listing.
package vidserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

// limiter is shared by every extraction worker across all tools: the
// per-minute cap applies to the process, not to a single request.
var limiter *engine.Limiter

// RegisterTools registers all video research tools on the given MCP server:
// video_filter, video_extract, video_research, video_outcomes_list.
func RegisterTools(server *mcp.Server) {
	limiter = engine.NewLimiter(engine.Cfg.RateLimitPerMin)

	registerVideoFilter(server)
	registerVideoExtract(server)
	registerVideoResearch(server)
	registerOutcomesList(server)
}

// extractArtifact is the per-task extraction pipeline handed to the
// scheduler: limiter → metadata → limiter → transcript → cache.
// Cached artifacts skip upstream entirely.
func extractArtifact(ctx context.Context, id string, langs []string) (*engine.Artifact, error) {
	if a, ok := engine.CacheGetArtifact(ctx, id); ok {
		return a, nil
	}

	if err := limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	md, err := sources.FetchMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	transcript, err := sources.FetchTranscript(ctx, id, langs)
	if err != nil {
		return nil, err
	}

	a := &engine.Artifact{
		VideoID:    id,
		Metadata:   md,
		Transcript: engine.TruncateRunes(transcript, engine.Cfg.MaxTranscriptChars, "..."),
	}
	engine.CacheSetArtifact(ctx, id, a)
	return a, nil
}

// outcomeSink persists one terminal extraction result to the outcome store.
// Persistence failures are logged, never propagated: the result itself has
// already been delivered to the caller.
func outcomeSink(ctx context.Context) func(engine.ExtractionResult) {
	return func(r engine.ExtractionResult) {
		if err := engine.RecordExtractionOutcome(ctx, r); err != nil {
			slog.Warn("outcomes: record failed",
				slog.String("id", r.VideoID), slog.Any("error", err))
		}
	}
}
