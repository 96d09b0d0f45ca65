package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is the shared admission gate for the rate-constrained upstream
// (YouTube endpoints). All extraction workers acquire a permit before each
// upstream call.
//
// Two layers: a token-bucket pacer (x/time/rate) spaces callers out and keeps
// Wait ordering FIFO under contention, and a mutex-guarded fixed-window
// counter enforces the hard cap — no window ever grants more than limit
// permits regardless of burst timing.
type Limiter struct {
	pacer *rate.Limiter

	mu          sync.Mutex
	limit       int
	window      time.Duration
	windowStart time.Time
	granted     int
	total       int64
}

// LimiterSnapshot is a read-only view of current limiter usage.
type LimiterSnapshot struct {
	Limit           int           `json:"limit"`
	Window          time.Duration `json:"window"`
	GrantedInWindow int           `json:"granted_in_window"`
	WindowStart     time.Time     `json:"window_start"`
	TotalGranted    int64         `json:"total_granted"`
}

// NewLimiter builds a limiter granting at most perMinute permits per minute.
func NewLimiter(perMinute int) *Limiter {
	return newLimiter(perMinute, time.Minute)
}

// newLimiter is the window-parameterized constructor used by tests.
func newLimiter(n int, window time.Duration) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{
		pacer:       rate.NewLimiter(rate.Limit(float64(n)/window.Seconds()), 1),
		limit:       n,
		window:      window,
		windowStart: time.Now(),
	}
}

// Acquire blocks until a permit is available or ctx is done. Blocking one
// worker never blocks another beyond permit contention itself.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.pacer.Wait(ctx); err != nil {
		return err
	}

	for {
		l.mu.Lock()
		now := time.Now()
		if now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.granted = 0
		}
		if l.granted < l.limit {
			l.granted++
			l.total++
			l.mu.Unlock()
			return nil
		}
		waitFor := l.window - now.Sub(l.windowStart)
		l.mu.Unlock()

		IncrRateLimitWaits()
		select {
		case <-time.After(waitFor):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Snapshot returns current usage for diagnostics. The caller cannot mutate
// limiter state through it.
func (l *Limiter) Snapshot() LimiterSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.windowStart) >= l.window {
		l.windowStart = time.Now()
		l.granted = 0
	}
	return LimiterSnapshot{
		Limit:           l.limit,
		Window:          l.window,
		GrantedInWindow: l.granted,
		WindowStart:     l.windowStart,
		TotalGranted:    l.total,
	}
}
