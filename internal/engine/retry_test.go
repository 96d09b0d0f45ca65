package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetryDoSucceedsAfterTransientFailures(t *testing.T) {
	rc := fastRetry()
	var calls atomic.Int64

	got, err := RetryDo(context.Background(), rc, func() (string, error) {
		if calls.Add(1) < 3 {
			return "", Extractionf(CategoryNetwork, "transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls.Load() != 3 {
		t.Errorf("got=%q calls=%d, want ok/3", got, calls.Load())
	}
}

func TestRetryDoStopsOnFatalCategory(t *testing.T) {
	rc := fastRetry()
	var calls atomic.Int64

	_, err := RetryDo(context.Background(), rc, func() (string, error) {
		calls.Add(1)
		return "", Extractionf(CategoryPrivate, "private video")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, fatal category must not be retried", calls.Load())
	}
}

func TestRetryDoExhaustsRetries(t *testing.T) {
	rc := fastRetry()
	var calls atomic.Int64
	wantErr := Extractionf(CategoryTimeout, "slow upstream")

	_, err := RetryDo(context.Background(), rc, func() (string, error) {
		calls.Add(1)
		return "", wantErr
	})
	if !errors.Is(err, wantErr.Err) {
		t.Errorf("err = %v, want last error returned", err)
	}
	if calls.Load() != int64(rc.MaxRetries+1) {
		t.Errorf("calls = %d, want %d", calls.Load(), rc.MaxRetries+1)
	}
}

func TestRetryDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int64
	_, err := RetryDo(ctx, fastRetry(), func() (string, error) {
		calls.Add(1)
		return "", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, cancelled context must short-circuit", calls.Load())
	}
}

func TestBackoffWait(t *testing.T) {
	rc := RetryConfig{InitialWait: 500 * time.Millisecond, MaxWait: 10 * time.Second, Multiplier: 2.0}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{10, 10 * time.Second}, // capped
	}
	for _, tt := range tests {
		if got := backoffWait(rc, tt.attempt); got != tt.want {
			t.Errorf("backoffWait(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryHTTPRetriesOn503(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := RetryHTTP(context.Background(), fastRetry(), func() (*http.Response, error) {
		return http.Get(srv.URL)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
}

func TestRetryHTTPPassesThroughNonRetryableStatus(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	resp, err := RetryHTTP(context.Background(), fastRetry(), func() (*http.Response, error) {
		return http.Get(srv.URL)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403 passed through", resp.StatusCode)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, non-retryable status must not be retried", hits.Load())
	}
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		if !IsRetryableStatus(code) {
			t.Errorf("IsRetryableStatus(%d) = false", code)
		}
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		if IsRetryableStatus(code) {
			t.Errorf("IsRetryableStatus(%d) = true", code)
		}
	}
}
