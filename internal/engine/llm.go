package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// currentDate returns today's date in ISO 8601 format (UTC).
func currentDate() string {
	return time.Now().UTC().Format("2006-01-02")
}

// oracleResponse is the JSON structure expected from the relevance oracle.
// Both lists are supposed to be subsets of the submitted batch ids; the
// classifier validates that instead of trusting the shape.
type oracleResponse struct {
	RelevantIDs    []string `json:"relevant_ids"`
	FilteredOutIDs []string `json:"filtered_out_ids"`
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// CallLLM sends a prompt using the configured temperature and max_tokens.
func CallLLM(ctx context.Context, prompt string) (string, error) {
	IncrOracleCalls()
	resp, err := cfg.LLMClient.Complete(ctx, "", prompt)
	if err != nil {
		IncrOracleErrors()
		return "", err
	}
	return stripFences(resp), nil
}

// parseOracleResponse decodes the oracle's JSON reply.
func parseOracleResponse(raw string) (oracleResponse, error) {
	var out oracleResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return oracleResponse{}, fmt.Errorf("decode oracle response: %w", err)
	}
	return out, nil
}
