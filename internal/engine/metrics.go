package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	OracleCalls          atomic.Int64
	OracleErrors         atomic.Int64
	HallucinatedIDs      atomic.Int64
	CleanupBatches       atomic.Int64
	SearchRequests       atomic.Int64
	MetadataFetches      atomic.Int64
	TranscriptFetches    atomic.Int64
	FetchErrors          atomic.Int64
	RateLimitWaits       atomic.Int64
	TasksScheduled       atomic.Int64
	TasksRetried         atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"oracle_calls":          metrics.OracleCalls.Load(),
		"oracle_errors":         metrics.OracleErrors.Load(),
		"hallucinated_ids":      metrics.HallucinatedIDs.Load(),
		"cleanup_batches":       metrics.CleanupBatches.Load(),
		"search_requests":       metrics.SearchRequests.Load(),
		"metadata_fetches":      metrics.MetadataFetches.Load(),
		"transcript_fetches":    metrics.TranscriptFetches.Load(),
		"fetch_errors":          metrics.FetchErrors.Load(),
		"rate_limit_waits":      metrics.RateLimitWaits.Load(),
		"tasks_scheduled":       metrics.TasksScheduled.Load(),
		"tasks_retried":         metrics.TasksRetried.Load(),
		"cache_hits":            hits,
		"cache_misses":          misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"oracle_calls", "oracle_errors", "hallucinated_ids", "cleanup_batches",
		"search_requests", "metadata_fetches", "transcript_fetches", "fetch_errors",
		"rate_limit_waits", "tasks_scheduled", "tasks_retried",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the engine and sources sub-package.
func IncrOracleCalls()       { metrics.OracleCalls.Add(1) }
func IncrOracleErrors()      { metrics.OracleErrors.Add(1) }
func IncrHallucinatedIDs(n int64) { metrics.HallucinatedIDs.Add(n) }
func IncrCleanupBatches()    { metrics.CleanupBatches.Add(1) }
func IncrSearchRequests()    { metrics.SearchRequests.Add(1) }
func IncrMetadataFetches()   { metrics.MetadataFetches.Add(1) }
func IncrTranscriptFetches() { metrics.TranscriptFetches.Add(1) }
func IncrFetchErrors()       { metrics.FetchErrors.Add(1) }
func IncrRateLimitWaits()    { metrics.RateLimitWaits.Add(1) }
func IncrTasksScheduled()    { metrics.TasksScheduled.Add(1) }
func IncrTasksRetried()      { metrics.TasksRetried.Add(1) }
