package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// YouTube transcript fetching.
// Primary:  watch-page ytInitialPlayerResponse → caption track XML
// Fallback: ANDROID Innertube /player → captionTracks
//
// A video that plays fine but offers no caption tracks is a fatal
// no_captions outcome, not a retry candidate.

const ytInitialPlayerRespMarker = "ytInitialPlayerResponse = "

// needsPoToken reports whether a caption track URL requires a PoToken
// (browser-only). Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the language
// preferences: manual in preferred lang > auto-generated in preferred lang >
// any English > first usable. Skips PoToken-gated tracks.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// fetchTimedText fetches and parses a timedtext XML caption URL into plain text.
func fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	resp, err := engine.FetchWithBackoff(ctx, baseURL, false)
	if err != nil {
		engine.IncrFetchErrors()
		return "", engine.Extractionf(engine.CategoryNetwork, "fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := engine.ReadResponseBody(resp)
	if err != nil {
		return "", engine.Extraction(engine.CategoryNetwork, err)
	}

	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", engine.Extractionf(engine.CategoryNetwork, "parse timedtext XML: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		text := engine.CleanHTML(line.Text)
		if text != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		}
	}
	if sb.Len() == 0 {
		return "", engine.Extractionf(engine.CategoryNoCaptions, "timedtext payload empty")
	}
	return sb.String(), nil
}

// tracksFromPlayerResp validates a player response and returns its caption
// tracks, mapping playability failures to error categories.
func tracksFromPlayerResp(videoID string, playerResp innertubePlayerResp) ([]captionTrack, error) {
	if ps := playerResp.PlayabilityStatus; ps != nil && ps.Status != "" && ps.Status != "OK" {
		switch ps.Status {
		case "LOGIN_REQUIRED":
			return nil, engine.Extractionf(engine.CategoryAuth, "player: login required for %s", videoID)
		case "UNPLAYABLE", "ERROR":
			return nil, engine.Extractionf(engine.CategoryUnavailable, "player: %s (%s)", ps.Status, ps.Reason)
		}
	}
	if playerResp.Captions == nil {
		return nil, engine.Extractionf(engine.CategoryNoCaptions, "no captions for %s", videoID)
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, engine.Extractionf(engine.CategoryNoCaptions, "no caption tracks for %s", videoID)
	}
	return tracks, nil
}

// fetchTranscriptViaPageScrape scrapes the watch page HTML and pulls the
// caption track URL out of ytInitialPlayerResponse. Works from any IP.
func fetchTranscriptViaPageScrape(ctx context.Context, videoID string, langs []string) (string, error) {
	resp, err := engine.FetchWithBackoff(ctx, ytWatchURLBase+videoID, true)
	if err != nil {
		engine.IncrFetchErrors()
		return "", engine.Extractionf(engine.CategoryNetwork, "watch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := engine.ReadResponseBody(resp)
	if err != nil {
		return "", engine.Extractionf(engine.CategoryNetwork, "read watch page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialPlayerRespMarker)
	if idx < 0 {
		return "", engine.Extractionf(engine.CategoryUnavailable, "ytInitialPlayerResponse not found for %s", videoID)
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerRespMarker):])
	if jsonData == nil {
		return "", engine.Extractionf(engine.CategoryNetwork, "malformed ytInitialPlayerResponse for %s", videoID)
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return "", engine.Extractionf(engine.CategoryNetwork, "decode ytInitialPlayerResponse: %w", err)
	}
	tracks, err := tracksFromPlayerResp(videoID, playerResp)
	if err != nil {
		return "", err
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return "", engine.Extractionf(engine.CategoryNoCaptions, "all tracks require PoToken for %s", videoID)
	}
	return fetchTimedText(ctx, track.BaseURL)
}

// fetchTranscriptViaPlayer uses the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func fetchTranscriptViaPlayer(ctx context.Context, videoID string, langs []string) (string, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return "", err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ytInnertubeURL+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		engine.IncrFetchErrors()
		return "", engine.Extractionf(engine.CategoryNetwork, "android innertube: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", engine.Extraction(engine.CategoryNetwork, err)
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(body, &playerResp); err != nil {
		return "", engine.Extractionf(engine.CategoryNetwork, "decode player: %w", err)
	}
	tracks, err := tracksFromPlayerResp(videoID, playerResp)
	if err != nil {
		return "", err
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return "", engine.Extractionf(engine.CategoryNoCaptions, "all tracks require PoToken for %s", videoID)
	}
	return fetchTimedText(ctx, track.BaseURL)
}

// FetchTranscript fetches the transcript for one video.
// Tries the watch-page scrape first, then the ANDROID /player endpoint.
// A fatal error from the first path (no captions, private, unavailable)
// short-circuits: the fallback would hit the same wall.
func FetchTranscript(ctx context.Context, videoID string, langs []string) (string, error) {
	engine.IncrTranscriptFetches()
	if len(langs) == 0 {
		langs = engine.Cfg.TranscriptLangs
	}

	text, err := fetchTranscriptViaPageScrape(ctx, videoID, langs)
	if err == nil {
		return text, nil
	}
	if engine.Categorize(err).Fatal() {
		return "", err
	}
	slog.Warn("youtube: page scrape failed, trying player",
		slog.String("id", videoID), slog.Any("err", err))

	return fetchTranscriptViaPlayer(ctx, videoID, langs)
}
