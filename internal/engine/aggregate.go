package engine

import (
	"log/slog"
	"sync"
)

// Aggregator consumes ExtractionResult values in arbitrary completion order
// and maintains the running tallies plus the itemized outcome list. All
// mutation happens on the single Collect goroutine; the mutex only guards
// concurrent Tally reads from other goroutines.
type Aggregator struct {
	mu      sync.Mutex
	total   int
	tally   Tally
	results []ExtractionResult
	sink    func(ExtractionResult) // optional persistence hook, may be nil
}

// NewAggregator builds an aggregator expecting total results. sink, when
// non-nil, is invoked once per terminal result (e.g. the outcome store).
func NewAggregator(total int, sink func(ExtractionResult)) *Aggregator {
	return &Aggregator{
		total:   total,
		tally:   Tally{Remaining: total},
		results: make([]ExtractionResult, 0, total),
		sink:    sink,
	}
}

// Collect drains the results channel to completion and returns the itemized
// outcome list alongside the final tallies. No terminal result is ever
// dropped: every received value is recorded and forwarded to the sink.
func (a *Aggregator) Collect(results <-chan ExtractionResult) ([]ExtractionResult, Tally) {
	for r := range results {
		a.record(r)
	}
	return a.results, a.Tally()
}

func (a *Aggregator) record(r ExtractionResult) {
	a.mu.Lock()
	a.results = append(a.results, r)
	switch r.Status {
	case StatusSucceeded:
		a.tally.Succeeded++
	case StatusFailedTransient:
		a.tally.FailedTransient++
	case StatusFailedFatal:
		a.tally.FailedFatal++
	default:
		slog.Warn("aggregator: unknown terminal status", slog.String("status", string(r.Status)))
	}
	a.tally.Remaining = a.total - len(a.results)
	if a.tally.Remaining < 0 {
		a.tally.Remaining = 0
	}
	a.mu.Unlock()

	if a.sink != nil {
		a.sink(r)
	}
}

// Tally returns a copy of the current counters; safe to call while Collect
// is still running.
func (a *Aggregator) Tally() Tally {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tally
}
