package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// Video metadata fetching.
// Primary:  Data API v3 videos.list (snippet + contentDetails + status)
// Fallback: watch-page og: meta tags when no API key is configured.
//
// Errors are categorized so the scheduler can tell fatal conditions
// (deleted, private, region-blocked) from transient ones.

type ytVideosResp struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			ChannelTitle string   `json:"channelTitle"`
			PublishedAt  string   `json:"publishedAt"`
			Tags         []string `json:"tags"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration          string `json:"duration"`
			RegionRestriction *struct {
				Blocked []string `json:"blocked"`
			} `json:"regionRestriction"`
		} `json:"contentDetails"`
		Status struct {
			PrivacyStatus string `json:"privacyStatus"`
			UploadStatus  string `json:"uploadStatus"`
		} `json:"status"`
	} `json:"items"`
}

type ytAPIError struct {
	Error struct {
		Code   int `json:"code"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// FetchMetadata fetches metadata for one video, using the Data API when a
// key is configured and the watch page otherwise.
func FetchMetadata(ctx context.Context, videoID string) (*engine.VideoMetadata, error) {
	engine.IncrMetadataFetches()

	if engine.Cfg.YouTubeAPIKey == "" {
		return scrapeWatchPageMetadata(ctx, videoID)
	}

	keys := []string{engine.Cfg.YouTubeAPIKey}
	if engine.Cfg.YouTubeAPIKeyFallback != "" {
		keys = append(keys, engine.Cfg.YouTubeAPIKeyFallback)
	}

	var lastErr error
	for _, key := range keys {
		md, err := fetchMetadataDataAPI(ctx, videoID, key)
		if err == nil {
			return md, nil
		}
		lastErr = err
		// Only quota errors justify burning the fallback key.
		if engine.Categorize(err) != engine.CategoryQuotaExhausted {
			return nil, err
		}
	}
	return nil, lastErr
}

func fetchMetadataDataAPI(ctx context.Context, videoID, apiKey string) (*engine.VideoMetadata, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,status")
	params.Set("id", videoID)
	params.Set("key", apiKey)

	apiURL := ytDataAPIBase + "/videos?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", engine.UserAgentBot)

	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		engine.IncrFetchErrors()
		return nil, engine.Extraction(engine.CategoryNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, engine.Extraction(engine.CategoryNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, categorizeAPIFailure(resp.StatusCode, body)
	}

	var result ytVideosResp
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, engine.Extractionf(engine.CategoryNetwork, "decode videos.list: %w", err)
	}

	// videos.list silently omits deleted/unknown ids.
	if len(result.Items) == 0 {
		return nil, engine.Extractionf(engine.CategoryUnavailable, "video %s not found", videoID)
	}

	item := result.Items[0]
	switch {
	case item.Status.PrivacyStatus == "private":
		return nil, engine.Extractionf(engine.CategoryPrivate, "video %s is private", videoID)
	case item.Status.UploadStatus == "rejected" || item.Status.UploadStatus == "deleted":
		return nil, engine.Extractionf(engine.CategoryUnavailable, "video %s upload status %s", videoID, item.Status.UploadStatus)
	case item.ContentDetails.RegionRestriction != nil && len(item.ContentDetails.RegionRestriction.Blocked) > 0:
		return nil, engine.Extractionf(engine.CategoryRegionBlocked, "video %s blocked in %d regions", videoID, len(item.ContentDetails.RegionRestriction.Blocked))
	}

	return &engine.VideoMetadata{
		ID:          item.ID,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		Channel:     item.Snippet.ChannelTitle,
		Tags:        item.Snippet.Tags,
		PublishedAt: item.Snippet.PublishedAt,
		Duration:    item.ContentDetails.Duration,
	}, nil
}

// categorizeAPIFailure maps a non-200 Data API response to an error category.
func categorizeAPIFailure(status int, body []byte) error {
	var apiErr ytAPIError
	reason := ""
	if json.Unmarshal(body, &apiErr) == nil && len(apiErr.Error.Errors) > 0 {
		reason = apiErr.Error.Errors[0].Reason
	}

	switch {
	case status == http.StatusForbidden && (strings.Contains(reason, "quota") || strings.Contains(reason, "LimitExceeded")):
		return engine.Extractionf(engine.CategoryQuotaExhausted, "data API quota exhausted (%s)", reason)
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return engine.Extractionf(engine.CategoryAuth, "data API %d: %s", status, reason)
	case status == http.StatusTooManyRequests:
		return engine.Extractionf(engine.CategoryRateLimited, "data API 429")
	case status == http.StatusNotFound:
		return engine.Extractionf(engine.CategoryUnavailable, "data API 404")
	default:
		return engine.Extractionf(engine.CategoryNetwork, "data API %d: %s", status, reason)
	}
}

// scrapeWatchPageMetadata extracts og: meta tags from the watch page HTML.
func scrapeWatchPageMetadata(ctx context.Context, videoID string) (*engine.VideoMetadata, error) {
	resp, err := engine.FetchWithBackoff(ctx, ytWatchURLBase+videoID, true)
	if err != nil {
		engine.IncrFetchErrors()
		return nil, engine.Extraction(engine.CategoryNetwork, err)
	}
	defer resp.Body.Close()

	body, err := engine.ReadResponseBody(resp)
	if err != nil {
		return nil, engine.Extraction(engine.CategoryNetwork, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, engine.Extractionf(engine.CategoryNetwork, "parse watch page: %w", err)
	}

	meta := func(sel, attr string) string {
		v, _ := doc.Find(sel).First().Attr(attr)
		return strings.TrimSpace(v)
	}

	title := meta(`meta[property="og:title"]`, "content")
	if title == "" {
		// Unavailable videos serve a page without og: tags.
		return nil, engine.Extractionf(engine.CategoryUnavailable, "no og:title on watch page for %s", videoID)
	}

	md := &engine.VideoMetadata{
		ID:          videoID,
		Title:       title,
		Description: meta(`meta[property="og:description"]`, "content"),
		PublishedAt: meta(`meta[itemprop="datePublished"]`, "content"),
		Channel:     meta(`link[itemprop="name"]`, "content"),
	}
	if keywords := meta(`meta[name="keywords"]`, "content"); keywords != "" {
		for _, kw := range strings.Split(keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				md.Tags = append(md.Tags, kw)
			}
		}
	}
	return md, nil
}
