package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// LLMCompleter is the slice of the go-kit llm client the engine needs.
// Satisfied by *llm.Client; tests inject fakes.
type LLMCompleter interface {
	Complete(ctx context.Context, system, prompt string, opts ...llm.ChatOption) (string, error)
}

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int

	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string
	TranscriptLangs       []string

	// Classification
	BatchSize        int // main-pass oracle batch size
	CleanupBatchSize int // cleanup-pass batch size, must be < BatchSize
	MaxTagsPerItem   int // tags sent to the oracle per candidate

	// Extraction
	Concurrency      int // worker count, clamped to [2,20]
	RateLimitPerMin  int // shared limiter: requests per minute to YouTube
	MaxRetryAttempts int // per-task attempts for transient failures

	FetchTimeout         time.Duration
	MaxTranscriptChars   int
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	OutcomeDBPath        string

	HTTPClient *http.Client
	LLMClient  LLMCompleter
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, vidserver).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
// Out-of-range pipeline knobs are clamped to safe defaults.
func Init(c Config) {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.CleanupBatchSize <= 0 || c.CleanupBatchSize >= c.BatchSize {
		c.CleanupBatchSize = max(1, c.BatchSize/4)
	}
	if c.MaxTagsPerItem <= 0 || c.MaxTagsPerItem > 15 {
		c.MaxTagsPerItem = 15
	}
	if c.Concurrency < 2 {
		c.Concurrency = 2
	}
	if c.Concurrency > 20 {
		c.Concurrency = 20
	}
	if c.RateLimitPerMin <= 0 {
		c.RateLimitPerMin = 60
	}
	if c.MaxRetryAttempts <= 0 {
		c.MaxRetryAttempts = 3
	}
	if c.MaxTranscriptChars <= 0 {
		c.MaxTranscriptChars = 8000
	}
	cfg = c
	Cfg = &cfg
}
