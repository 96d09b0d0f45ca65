package engine

// --- Candidate / filtering types ---

// CandidateVideo is one unit flowing through classification and extraction.
// Immutable once read from input; attributes beyond ID are only consulted
// by the relevance oracle.
type CandidateVideo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Channel     string   `json:"channel,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// FilterContext carries the shared relevance criteria for a classification run.
type FilterContext struct {
	Criteria      string   `json:"criteria"`
	RequiredTerms []string `json:"required_terms,omitempty"`
}

// BatchOutcome is the reconciled result of a single oracle call.
// Relevant and FilteredOut contain only ids that were actually submitted;
// Unresolved holds submitted ids the oracle failed to place (or the whole
// batch when the call itself failed).
type BatchOutcome struct {
	Relevant    []string
	FilteredOut []string
	Unresolved  []string
	Err         error // non-nil when the oracle call itself failed
}

// FilterResult is the final partition of the input set after the main pass
// and the cleanup pass. The three slices are pairwise disjoint and their
// union equals the input set.
type FilterResult struct {
	Relevant         []CandidateVideo `json:"relevant"`
	FilteredOut      []CandidateVideo `json:"filtered_out"`
	FailedBatch      []CandidateVideo `json:"failed_batch"`
	CleanupAttempted bool             `json:"cleanup_attempted"`
	CleanupRecovered int              `json:"cleanup_recovered"`
}

// --- Extraction types ---

// ExtractionStatus is the terminal status of one extraction task.
type ExtractionStatus string

const (
	StatusSucceeded       ExtractionStatus = "succeeded"
	StatusFailedTransient ExtractionStatus = "failed_transient" // retries exhausted
	StatusFailedFatal     ExtractionStatus = "failed_fatal"
)

// VideoMetadata is the metadata artifact fetched per video.
type VideoMetadata struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Channel     string   `json:"channel,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
	Duration    string   `json:"duration,omitempty"`
}

// Artifact bundles the per-video extraction payload.
type Artifact struct {
	VideoID    string         `json:"video_id"`
	Metadata   *VideoMetadata `json:"metadata,omitempty"`
	Transcript string         `json:"transcript,omitempty"`
}

// ExtractionResult is the terminal outcome of one task, emitted in
// completion order.
type ExtractionResult struct {
	VideoID  string           `json:"video_id"`
	Status   ExtractionStatus `json:"status"`
	Attempts int              `json:"attempts"`
	Category ErrorCategory    `json:"error_category,omitempty"`
	Error    string           `json:"error,omitempty"`
	Artifact *Artifact        `json:"artifact,omitempty"`
}

// Tally holds the aggregator's running counters.
type Tally struct {
	Succeeded       int `json:"succeeded"`
	FailedTransient int `json:"failed_transient"`
	FailedFatal     int `json:"failed_fatal"`
	Remaining       int `json:"remaining"`
}

// --- MCP tool types ---

// VideoFilterInput is the input for the video_filter tool.
type VideoFilterInput struct {
	Criteria      string           `json:"criteria" jsonschema:"Free-text relevance criteria the oracle applies to each video"`
	RequiredTerms []string         `json:"required_terms,omitempty" jsonschema:"Terms that must appear for a video to be relevant"`
	Videos        []CandidateVideo `json:"videos,omitempty" jsonschema:"Candidate videos to classify; omit to search YouTube with query"`
	Query         string           `json:"query,omitempty" jsonschema:"YouTube search query used when videos are not supplied"`
	Limit         int              `json:"limit,omitempty" jsonschema:"Max candidates fetched by search (default 25)"`
}

// VideoFilterOutput is the structured output for video_filter.
type VideoFilterOutput struct {
	Result        FilterResult `json:"result"`
	RelevantCount int          `json:"relevant_count"`
	FilteredCount int          `json:"filtered_count"`
	FailedCount   int          `json:"failed_count"`
}

// VideoExtractInput is the input for the video_extract tool.
type VideoExtractInput struct {
	IDs      []string `json:"ids" jsonschema:"YouTube video ids (11 chars) to extract metadata and transcripts for"`
	Language string   `json:"language,omitempty" jsonschema:"Preferred transcript language code (default: en)"`
}

// VideoExtractOutput is the structured output for video_extract.
type VideoExtractOutput struct {
	Results []ExtractionResult `json:"results"`
	Tally   Tally              `json:"tally"`
}

// VideoResearchInput is the input for the video_research tool.
type VideoResearchInput struct {
	Query         string   `json:"query" jsonschema:"YouTube search query that produces the candidate set"`
	Criteria      string   `json:"criteria" jsonschema:"Free-text relevance criteria for filtering candidates"`
	RequiredTerms []string `json:"required_terms,omitempty" jsonschema:"Terms that must appear for a video to be relevant"`
	Limit         int      `json:"limit,omitempty" jsonschema:"Max candidates fetched by search (default 25)"`
	Language      string   `json:"language,omitempty" jsonschema:"Preferred transcript language code (default: en)"`
}

// VideoResearchOutput is the structured output for video_research.
type VideoResearchOutput struct {
	Query   string             `json:"query"`
	Filter  FilterResult       `json:"filter"`
	Results []ExtractionResult `json:"results"`
	Tally   Tally              `json:"tally"`
}

// OutcomesListInput is the input for the video_outcomes_list tool.
type OutcomesListInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by final status: relevant, filtered_out, classification_failed, extraction_succeeded, extraction_failed_transient_exhausted, extraction_failed_fatal"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max rows returned (default 50)"`
}

// OutcomesListOutput is the output for video_outcomes_list.
type OutcomesListOutput struct {
	Outcomes []OutcomeRecord `json:"outcomes"`
	Total    int             `json:"total"`
}
