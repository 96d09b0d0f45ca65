package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ExtractFunc performs the full per-item extraction (metadata + transcript).
// Implementations acquire the shared Limiter before every upstream call.
type ExtractFunc func(ctx context.Context, id string) (*Artifact, error)

// Scheduler runs independent per-item extraction tasks over a bounded worker
// pool. A failure in one task never affects another task's progress, and the
// scheduler holds no cross-task state beyond the work queue and the
// cancellation flag.
type Scheduler struct {
	extract     ExtractFunc
	maxAttempts int
	retry       RetryConfig
	cancelled   atomic.Bool
}

// NewScheduler builds a scheduler around the given extraction function.
// Attempt limits come from Cfg.MaxRetryAttempts.
func NewScheduler(extract ExtractFunc) *Scheduler {
	return &Scheduler{
		extract:     extract,
		maxAttempts: cfg.MaxRetryAttempts,
		retry:       DefaultRetryConfig,
	}
}

// Cancel sets the cooperative cancellation flag: tasks already running finish
// normally, no further tasks are dispatched.
func (s *Scheduler) Cancel() {
	s.cancelled.Store(true)
}

// Run dispatches one task per id over concurrency workers and returns a
// channel of results in completion order. The channel is closed once every
// dispatched task has reported a terminal status.
func (s *Scheduler) Run(ctx context.Context, ids []string, concurrency int) <-chan ExtractionResult {
	if concurrency < 2 {
		concurrency = cfg.Concurrency
	}
	if concurrency > 20 {
		concurrency = 20
	}

	results := make(chan ExtractionResult, len(ids))
	queue := make(chan string)

	// Feeder: the cancellation flag is checked before each dispatch, never
	// mid-task.
	go func() {
		defer close(queue)
		for _, id := range ids {
			if s.cancelled.Load() || ctx.Err() != nil {
				slog.Info("scheduler: cancellation set, skipping remaining tasks")
				return
			}
			select {
			case queue <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range queue {
				IncrTasksScheduled()
				results <- s.runTask(ctx, id)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// runTask executes one task to a terminal status. Transient failures are
// retried with backoff up to maxAttempts; fatal categories are recorded
// immediately with no retry.
func (s *Scheduler) runTask(ctx context.Context, id string) ExtractionResult {
	var lastErr error
	var lastCat ErrorCategory
	attempts := 0

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		attempts = attempt
		artifact, err := s.extract(ctx, id)
		if err == nil {
			return ExtractionResult{
				VideoID:  id,
				Status:   StatusSucceeded,
				Attempts: attempt,
				Artifact: artifact,
			}
		}

		lastErr = err
		lastCat = Categorize(err)

		if lastCat.Fatal() {
			slog.Warn("scheduler: fatal failure, not retrying",
				slog.String("id", id), slog.String("category", string(lastCat)), slog.Any("error", err))
			return ExtractionResult{
				VideoID:  id,
				Status:   StatusFailedFatal,
				Attempts: attempt,
				Category: lastCat,
				Error:    err.Error(),
			}
		}

		if attempt < s.maxAttempts && ctx.Err() == nil {
			IncrTasksRetried()
			wait := backoffWait(s.retry, attempt-1)
			slog.Debug("scheduler: transient failure, retrying",
				slog.String("id", id), slog.Int("attempt", attempt), slog.Duration("wait", wait))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	return ExtractionResult{
		VideoID:  id,
		Status:   StatusFailedTransient,
		Attempts: attempts,
		Category: lastCat,
		Error:    lastErr.Error(),
	}
}
