package sources

import (
	"encoding/json"
	"testing"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

func TestPickBestTrack(t *testing.T) {
	manual := func(lang string) captionTrack {
		return captionTrack{BaseURL: "https://yt/api/timedtext?lang=" + lang, LanguageCode: lang}
	}
	asr := func(lang string) captionTrack {
		return captionTrack{BaseURL: "https://yt/api/timedtext?lang=" + lang + "&kind=asr", LanguageCode: lang, Kind: "asr"}
	}
	gated := func(lang string) captionTrack {
		return captionTrack{BaseURL: "https://yt/api/timedtext?lang=" + lang + "&exp=xpe", LanguageCode: lang}
	}

	tests := []struct {
		name     string
		tracks   []captionTrack
		langs    []string
		wantLang string
		wantKind string
		wantOK   bool
	}{
		{
			name:     "manual preferred over asr in same language",
			tracks:   []captionTrack{asr("en"), manual("en")},
			langs:    []string{"en"},
			wantLang: "en",
			wantKind: "",
			wantOK:   true,
		},
		{
			name:     "asr in preferred language beats manual in other",
			tracks:   []captionTrack{manual("de"), asr("en")},
			langs:    []string{"en"},
			wantLang: "en",
			wantKind: "asr",
			wantOK:   true,
		},
		{
			name:     "falls back to english variant",
			tracks:   []captionTrack{manual("de"), manual("en-GB")},
			langs:    []string{"ru"},
			wantLang: "en-GB",
			wantOK:   true,
		},
		{
			name:     "first usable when nothing matches",
			tracks:   []captionTrack{manual("de"), manual("fr")},
			langs:    []string{"ja"},
			wantLang: "de",
			wantOK:   true,
		},
		{
			name:     "potoken tracks skipped",
			tracks:   []captionTrack{gated("en"), manual("de")},
			langs:    []string{"en"},
			wantLang: "de",
			wantOK:   true,
		},
		{
			name:   "all tracks gated",
			tracks: []captionTrack{gated("en"), gated("de")},
			langs:  []string{"en"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, ok := pickBestTrack(tt.tracks, tt.langs)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if track.LanguageCode != tt.wantLang || track.Kind != tt.wantKind {
				t.Errorf("picked %s/%q, want %s/%q", track.LanguageCode, track.Kind, tt.wantLang, tt.wantKind)
			}
		})
	}
}

func TestNeedsPoToken(t *testing.T) {
	if !needsPoToken("https://yt/api/timedtext?v=x&exp=xpe&lang=en") {
		t.Error("exp=xpe track should need PoToken")
	}
	if needsPoToken("https://yt/api/timedtext?v=x&lang=en") {
		t.Error("plain track should not need PoToken")
	}
}

func TestTracksFromPlayerResp(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCat  engine.ErrorCategory
		wantErr  bool
		wantsLen int
	}{
		{
			name: "tracks present",
			raw: `{"playabilityStatus": {"status": "OK"},
				"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
					{"baseUrl": "https://yt/tt", "languageCode": "en"}
				]}}}`,
			wantsLen: 1,
		},
		{
			name:    "no captions",
			raw:     `{"playabilityStatus": {"status": "OK"}}`,
			wantCat: engine.CategoryNoCaptions,
			wantErr: true,
		},
		{
			name:    "empty track list",
			raw:     `{"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": []}}}`,
			wantCat: engine.CategoryNoCaptions,
			wantErr: true,
		},
		{
			name:    "login required",
			raw:     `{"playabilityStatus": {"status": "LOGIN_REQUIRED"}}`,
			wantCat: engine.CategoryAuth,
			wantErr: true,
		},
		{
			name:    "unplayable",
			raw:     `{"playabilityStatus": {"status": "UNPLAYABLE", "reason": "Video unavailable"}}`,
			wantCat: engine.CategoryUnavailable,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp innertubePlayerResp
			if err := json.Unmarshal([]byte(tt.raw), &resp); err != nil {
				t.Fatalf("fixture: %v", err)
			}
			tracks, err := tracksFromPlayerResp("aaaaaaaaaaa", resp)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if got := engine.Categorize(err); got != tt.wantCat {
					t.Errorf("category = %s, want %s", got, tt.wantCat)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tracks) != tt.wantsLen {
				t.Errorf("tracks = %d, want %d", len(tracks), tt.wantsLen)
			}
		})
	}
}
