package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// FinalStatus is the persisted terminal status for one processed item.
type FinalStatus string

const (
	FinalRelevant             FinalStatus = "relevant"
	FinalFilteredOut          FinalStatus = "filtered_out"
	FinalClassificationFailed FinalStatus = "classification_failed"
	FinalExtractionSucceeded  FinalStatus = "extraction_succeeded"
	FinalExtractionTransient  FinalStatus = "extraction_failed_transient_exhausted"
	FinalExtractionFatal      FinalStatus = "extraction_failed_fatal"
)

// OutcomeRecord is one row in the outcome store: the durable trace of what
// happened to a processed item.
type OutcomeRecord struct {
	VideoID       string      `json:"video_id"`
	FinalStatus   FinalStatus `json:"final_status"`
	ErrorCategory string      `json:"error_category,omitempty"`
	ArtifactRef   string      `json:"artifact_ref,omitempty"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at"`
}

var (
	outcomeMu   sync.Mutex
	outcomeDB   *sql.DB
	outcomePath string
)

// openOutcomeDB opens (or creates) the SQLite outcome database at
// Cfg.OutcomeDBPath, defaulting to ~/.go_tube/outcomes.db. Reopens when the
// configured path changes (tests point it at temp dirs).
func openOutcomeDB() (*sql.DB, error) {
	outcomeMu.Lock()
	defer outcomeMu.Unlock()

	path := cfg.OutcomeDBPath
	if path == "" {
		dir := filepath.Join(os.Getenv("HOME"), ".go_tube")
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("outcomes: mkdir %s: %w", dir, err)
		}
		path = filepath.Join(dir, "outcomes.db")
	}

	if outcomeDB != nil && outcomePath == path {
		return outcomeDB, nil
	}
	if outcomeDB != nil {
		outcomeDB.Close()
		outcomeDB = nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("outcomes: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initOutcomeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("outcomes: init schema: %w", err)
	}

	outcomeDB = db
	outcomePath = path
	return outcomeDB, nil
}

func initOutcomeSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS outcomes (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id       TEXT NOT NULL UNIQUE,
		final_status   TEXT NOT NULL,
		error_category TEXT,
		artifact_ref   TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`)
	return err
}

// RecordOutcome upserts the terminal status for one video.
func RecordOutcome(ctx context.Context, rec OutcomeRecord) error {
	db, err := openOutcomeDB()
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = db.ExecContext(ctx, `INSERT INTO outcomes (video_id, final_status, error_category, artifact_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			final_status   = excluded.final_status,
			error_category = excluded.error_category,
			artifact_ref   = excluded.artifact_ref,
			updated_at     = excluded.updated_at`,
		rec.VideoID, string(rec.FinalStatus), rec.ErrorCategory, rec.ArtifactRef, now, now)
	if err != nil {
		return fmt.Errorf("outcomes: upsert %s: %w", rec.VideoID, err)
	}
	return nil
}

// RecordFilterOutcomes persists one row per classified item.
func RecordFilterOutcomes(ctx context.Context, result FilterResult) error {
	write := func(videos []CandidateVideo, status FinalStatus) error {
		for _, v := range videos {
			if err := RecordOutcome(ctx, OutcomeRecord{VideoID: v.ID, FinalStatus: status}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(result.Relevant, FinalRelevant); err != nil {
		return err
	}
	if err := write(result.FilteredOut, FinalFilteredOut); err != nil {
		return err
	}
	return write(result.FailedBatch, FinalClassificationFailed)
}

// RecordExtractionOutcome persists the terminal status of one task.
func RecordExtractionOutcome(ctx context.Context, r ExtractionResult) error {
	rec := OutcomeRecord{
		VideoID:       r.VideoID,
		ErrorCategory: string(r.Category),
	}
	switch r.Status {
	case StatusSucceeded:
		rec.FinalStatus = FinalExtractionSucceeded
		rec.ArtifactRef = CacheKey("artifact", r.VideoID)
		rec.ErrorCategory = ""
	case StatusFailedFatal:
		rec.FinalStatus = FinalExtractionFatal
	default:
		rec.FinalStatus = FinalExtractionTransient
	}
	return RecordOutcome(ctx, rec)
}

// ListOutcomes returns stored outcomes, optionally filtered by final status,
// most recently updated first.
func ListOutcomes(ctx context.Context, input OutcomesListInput) (*OutcomesListOutput, error) {
	db, err := openOutcomeDB()
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `SELECT video_id, final_status, COALESCE(error_category, ''), COALESCE(artifact_ref, ''), created_at, updated_at
		FROM outcomes`
	args := []any{}
	if input.Status != "" {
		query += ` WHERE final_status = ?`
		args = append(args, input.Status)
	}
	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("outcomes: query: %w", err)
	}
	defer rows.Close()

	out := &OutcomesListOutput{}
	for rows.Next() {
		var rec OutcomeRecord
		var status string
		if err := rows.Scan(&rec.VideoID, &status, &rec.ErrorCategory, &rec.ArtifactRef, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("outcomes: scan: %w", err)
		}
		rec.FinalStatus = FinalStatus(status)
		out.Outcomes = append(out.Outcomes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outcomes: rows: %w", err)
	}
	out.Total = len(out.Outcomes)
	return out, nil
}
