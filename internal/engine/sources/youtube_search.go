package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// YouTube search — Data API v3 with ytInitialData scraping fallback.
// Produces candidate videos for the relevance filter.

const (
	ytInitialDataMarker = "var ytInitialData = "
	ytSearchFilter      = "EgIQAQ%3D%3D" // videos-only filter param
)

// --- Data API v3 search.list types ---

type ytSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// --- ytInitialData scraping types ---

type ytVideoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct{ Text string } `json:"runs"`
	} `json:"title"`
	OwnerText struct {
		Runs []struct{ Text string } `json:"runs"`
	} `json:"ownerText"`
	DescriptionSnippet *struct {
		Runs []struct{ Text string } `json:"runs"`
	} `json:"descriptionSnippet"`
	PublishedTimeText *struct {
		SimpleText string `json:"simpleText"`
	} `json:"publishedTimeText"`
}

// SearchVideos searches YouTube and returns candidate videos.
// Uses the Data API v3 when a key is configured; otherwise scrapes
// ytInitialData from the results page.
func SearchVideos(ctx context.Context, query string, limit int) ([]engine.CandidateVideo, error) {
	engine.IncrSearchRequests()
	if limit <= 0 || limit > 50 {
		limit = 25
	}
	if engine.Cfg.YouTubeAPIKey != "" {
		return searchDataAPI(ctx, query, limit)
	}
	return searchInitialData(ctx, query, limit)
}

// searchDataAPI searches via Data API v3 search.list.
// Falls back to the secondary key on quota errors.
func searchDataAPI(ctx context.Context, query string, limit int) ([]engine.CandidateVideo, error) {
	keys := []string{engine.Cfg.YouTubeAPIKey}
	if engine.Cfg.YouTubeAPIKeyFallback != "" {
		keys = append(keys, engine.Cfg.YouTubeAPIKeyFallback)
	}
	var lastErr error
	for _, key := range keys {
		videos, err := doDataAPISearch(ctx, query, limit, key)
		if err == nil {
			return videos, nil
		}
		lastErr = err
		if engine.Categorize(err) != engine.CategoryQuotaExhausted {
			return nil, err
		}
		slog.Debug("youtube data API key exhausted, trying fallback", slog.Any("err", err))
	}
	return nil, lastErr
}

func doDataAPISearch(ctx context.Context, query string, limit int, apiKey string) ([]engine.CandidateVideo, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", limit))
	params.Set("key", apiKey)

	apiURL := ytDataAPIBase + "/search?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		engine.IncrFetchErrors()
		return nil, fmt.Errorf("youtube data API search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, engine.Extraction(engine.CategoryNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, categorizeAPIFailure(resp.StatusCode, body)
	}

	var result ytSearchResp
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode youtube data API search: %w", err)
	}

	videos := make([]engine.CandidateVideo, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, engine.CandidateVideo{
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Channel:     item.Snippet.ChannelTitle,
			PublishedAt: item.Snippet.PublishedAt,
			URL:         ytWatchURLBase + item.ID.VideoID,
		})
	}
	return videos, nil
}

// searchInitialData scrapes search results by parsing ytInitialData.
func searchInitialData(ctx context.Context, query string, limit int) ([]engine.CandidateVideo, error) {
	searchURL := "https://www.youtube.com/results?search_query=" + url.QueryEscape(query) + "&sp=" + ytSearchFilter

	resp, err := engine.FetchWithBackoff(ctx, searchURL, true)
	if err != nil {
		engine.IncrFetchErrors()
		return nil, fmt.Errorf("youtube search page: %w", err)
	}
	defer resp.Body.Close()

	body, err := engine.ReadResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read youtube search response: %w", err)
	}

	idx := strings.Index(string(body), ytInitialDataMarker)
	if idx < 0 {
		return nil, fmt.Errorf("ytInitialData not found in search response")
	}
	jsonData := extractJSON(body[idx+len(ytInitialDataMarker):])
	if jsonData == nil {
		return nil, fmt.Errorf("failed to extract ytInitialData JSON")
	}
	return videosFromInitialData(jsonData, limit), nil
}

// videosFromInitialData recursively walks ytInitialData for videoRenderer entries.
func videosFromInitialData(data []byte, limit int) []engine.CandidateVideo {
	var results []engine.CandidateVideo
	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		if len(results) >= limit {
			return
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err == nil {
			if raw, ok := obj["videoRenderer"]; ok {
				var vr ytVideoRenderer
				if err := json.Unmarshal(raw, &vr); err == nil && vr.VideoID != "" {
					results = append(results, candidateFromRenderer(vr))
					return
				}
			}
			for _, child := range obj {
				if len(results) >= limit {
					return
				}
				walk(child)
			}
			return
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err == nil {
			for _, item := range arr {
				if len(results) >= limit {
					return
				}
				walk(item)
			}
		}
	}
	walk(data)
	return results
}

func candidateFromRenderer(vr ytVideoRenderer) engine.CandidateVideo {
	cv := engine.CandidateVideo{
		ID:  vr.VideoID,
		URL: ytWatchURLBase + vr.VideoID,
	}
	if len(vr.Title.Runs) > 0 {
		cv.Title = vr.Title.Runs[0].Text
	}
	if len(vr.OwnerText.Runs) > 0 {
		cv.Channel = vr.OwnerText.Runs[0].Text
	}
	if vr.DescriptionSnippet != nil {
		var parts []string
		for _, r := range vr.DescriptionSnippet.Runs {
			parts = append(parts, r.Text)
		}
		cv.Description = engine.Truncate(strings.Join(parts, ""), 400)
	}
	if vr.PublishedTimeText != nil {
		cv.PublishedAt = vr.PublishedTimeText.SimpleText
	}
	return cv
}
