package vidserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

func registerOutcomesList(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_outcomes_list",
		Description: "List persisted per-video terminal outcomes from past filter and extraction runs, most recently updated first. Optionally filter by final status (relevant, filtered_out, classification_failed, extraction_succeeded, extraction_failed_transient_exhausted, extraction_failed_fatal).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.OutcomesListInput) (*mcp.CallToolResult, engine.OutcomesListOutput, error) {
		out, err := engine.ListOutcomes(ctx, input)
		if err != nil {
			return nil, engine.OutcomesListOutput{}, fmt.Errorf("outcomes list: %w", err)
		}
		return nil, *out, nil
	})
}
