// Package toolutil provides shared input-normalization helpers for go_tube
// MCP tools.
package toolutil

import (
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
)

// NormalizeIDs canonicalizes raw video references (bare ids or any YouTube
// URL form) into deduplicated 11-char ids, preserving first-seen order.
// Unparseable entries are dropped.
func NormalizeIDs(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		id := sources.ExtractVideoID(strings.TrimSpace(r))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// TranscriptLangs builds the transcript language preference list: the
// request language first, then the configured defaults.
func TranscriptLangs(language string) []string {
	language = strings.TrimSpace(strings.ToLower(language))
	if language == "" {
		return engine.Cfg.TranscriptLangs
	}
	langs := []string{language}
	for _, l := range engine.Cfg.TranscriptLangs {
		if l != language {
			langs = append(langs, l)
		}
	}
	return langs
}

// IDsOf projects candidate videos onto their ids.
func IDsOf(videos []engine.CandidateVideo) []string {
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	return ids
}
