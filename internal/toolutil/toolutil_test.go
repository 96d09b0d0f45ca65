package toolutil

import (
	"reflect"
	"testing"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

func TestNormalizeIDs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "mixed forms deduplicated",
			in: []string{
				"dQw4w9WgXcQ",
				"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
				"https://youtu.be/jNQXAC9IVRw",
			},
			want: []string{"dQw4w9WgXcQ", "jNQXAC9IVRw"},
		},
		{
			name: "garbage dropped",
			in:   []string{"not-a-video", "", "  dQw4w9WgXcQ  "},
			want: []string{"dQw4w9WgXcQ"},
		},
		{
			name: "order preserved",
			in:   []string{"jNQXAC9IVRw", "dQw4w9WgXcQ", "jNQXAC9IVRw"},
			want: []string{"jNQXAC9IVRw", "dQw4w9WgXcQ"},
		},
		{
			name: "empty input",
			in:   nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeIDs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeIDs(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTranscriptLangs(t *testing.T) {
	engine.Init(engine.Config{TranscriptLangs: []string{"en", "de"}})

	tests := []struct {
		name     string
		language string
		want     []string
	}{
		{"empty uses defaults", "", []string{"en", "de"}},
		{"request language first", "ru", []string{"ru", "en", "de"}},
		{"no duplicate of default", "de", []string{"de", "en"}},
		{"case folded", "RU", []string{"ru", "en", "de"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TranscriptLangs(tt.language); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TranscriptLangs(%q) = %v, want %v", tt.language, got, tt.want)
			}
		})
	}
}

func TestIDsOf(t *testing.T) {
	videos := []engine.CandidateVideo{{ID: "aaaaaaaaaaa"}, {ID: "bbbbbbbbbbb"}}
	if got := IDsOf(videos); !reflect.DeepEqual(got, []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}) {
		t.Errorf("IDsOf = %v", got)
	}
}
