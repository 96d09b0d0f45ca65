package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// classifyPrompt is the relevance-oracle prompt. The oracle must partition
// the submitted ids into relevant / filtered_out; anything else it returns
// is discarded during reconciliation.
const classifyPrompt = `Today is %s. You are a video relevance classifier.

Relevance criteria:
%s
%s
Candidate videos (JSON array, one object per video):
%s

Classify EVERY video above as relevant or not relevant to the criteria.
Use ONLY the "id" values given in the candidate list.

Respond with STRICT JSON, no markdown, no commentary:
{"relevant_ids": ["..."], "filtered_out_ids": ["..."]}`

// promptItem is the per-candidate payload sent to the oracle. Tags are
// capped at Cfg.MaxTagsPerItem.
type promptItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PublishedAt string   `json:"published_date,omitempty"`
}

// buildClassifyPrompt renders the oracle prompt for one batch.
func buildClassifyPrompt(batch []CandidateVideo, fc FilterContext) (string, error) {
	items := make([]promptItem, 0, len(batch))
	for _, v := range batch {
		tags := v.Tags
		if len(tags) > cfg.MaxTagsPerItem {
			tags = tags[:cfg.MaxTagsPerItem]
		}
		items = append(items, promptItem{
			ID:          v.ID,
			Title:       v.Title,
			Description: TruncateRunes(v.Description, 400, "..."),
			Tags:        tags,
			PublishedAt: v.PublishedAt,
		})
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal batch payload: %w", err)
	}

	required := ""
	if len(fc.RequiredTerms) > 0 {
		required = fmt.Sprintf("\nA video is relevant ONLY if it matches these required terms: %s\n",
			strings.Join(fc.RequiredTerms, ", "))
	}

	return fmt.Sprintf(classifyPrompt, currentDate(), fc.Criteria, required, payload), nil
}
