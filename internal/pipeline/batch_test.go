package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/phishguard/internal/features"
	"github.com/nao1215/phishguard/internal/verdict"
)

// detectorFunc adapts a function to the Detector interface.
type detectorFunc func(ctx context.Context, url string) (*verdict.Verdict, error)

func (f detectorFunc) Detect(ctx context.Context, url string) (*verdict.Verdict, error) {
	return f(ctx, url)
}

func okDetector() Detector {
	return detectorFunc(func(_ context.Context, url string) (*verdict.Verdict, error) {
		return verdict.Build(url, false, 0.9, features.Vector{}, verdict.SourceModel), nil
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(okDetector())

		if bp == nil {
			t.Fatal("expected non-nil processor")
		}
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(okDetector(), WithConcurrency(5))

		if bp.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(okDetector(), WithConcurrency(0))

		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(okDetector(), WithBatchLogger(nil))

		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("scans every url", func(t *testing.T) {
		t.Parallel()

		var scanned atomic.Int32
		bp := NewBatchProcessor(
			detectorFunc(func(_ context.Context, url string) (*verdict.Verdict, error) {
				scanned.Add(1)
				return verdict.Build(url, true, 0.8, features.Vector{}, verdict.SourceModel), nil
			}),
			WithBatchLogger(quietLogger()),
		)

		urls := []string{"http://a.example", "http://b.example", "http://c.example"}
		batch, err := bp.ProcessBatch(context.Background(), urls)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(batch.Results) != 3 {
			t.Errorf("expected 3 results, got %d", len(batch.Results))
		}
		if scanned.Load() != 3 {
			t.Errorf("expected 3 scans, got %d", scanned.Load())
		}
		if _, err := uuid.Parse(batch.RunID); err != nil {
			t.Errorf("run ID %q is not a UUID: %v", batch.RunID, err)
		}
		if batch.FinishedAt.Before(batch.StartedAt) {
			t.Error("finish time is before start time")
		}
	})

	t.Run("each batch gets its own run ID", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(okDetector(), WithBatchLogger(quietLogger()))
		first, err := bp.ProcessBatch(context.Background(), []string{"http://a.example"})
		if err != nil {
			t.Fatal(err)
		}
		second, err := bp.ProcessBatch(context.Background(), []string{"http://a.example"})
		if err != nil {
			t.Fatal(err)
		}
		if first.RunID == second.RunID {
			t.Errorf("run IDs should differ, both are %q", first.RunID)
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var maxConcurrent atomic.Int32
		var current atomic.Int32
		var mu sync.Mutex

		bp := NewBatchProcessor(
			detectorFunc(func(_ context.Context, url string) (*verdict.Verdict, error) {
				n := current.Add(1)
				mu.Lock()
				if n > maxConcurrent.Load() {
					maxConcurrent.Store(n)
				}
				mu.Unlock()

				time.Sleep(30 * time.Millisecond)
				current.Add(-1)
				return verdict.Build(url, false, 0.9, features.Vector{}, verdict.SourceModel), nil
			}),
			WithConcurrency(2),
			WithBatchLogger(quietLogger()),
		)

		urls := make([]string, 10)
		for i := range urls {
			urls[i] = "http://example.com"
		}

		if _, err := bp.ProcessBatch(context.Background(), urls); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if maxConcurrent.Load() > 2 {
			t.Errorf("max concurrent was %d, expected <= 2", maxConcurrent.Load())
		}
	})

	t.Run("maintains result order", func(t *testing.T) {
		t.Parallel()

		// Earlier URLs take longer so completion order is reversed.
		delays := map[string]time.Duration{
			"http://first.example":  60 * time.Millisecond,
			"http://second.example": 30 * time.Millisecond,
			"http://third.example":  0,
		}
		bp := NewBatchProcessor(
			detectorFunc(func(_ context.Context, url string) (*verdict.Verdict, error) {
				time.Sleep(delays[url])
				return verdict.Build(url, false, 0.9, features.Vector{}, verdict.SourceModel), nil
			}),
			WithBatchLogger(quietLogger()),
		)

		urls := []string{"http://first.example", "http://second.example", "http://third.example"}
		batch, err := bp.ProcessBatch(context.Background(), urls)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, r := range batch.Results {
			if r.Index != i || r.URL != urls[i] || r.Verdict.URL != urls[i] {
				t.Errorf("result[%d] = {%d %q %q}, want %q", i, r.Index, r.URL, r.Verdict.URL, urls[i])
			}
		}
	})

	t.Run("continues after individual scan failure", func(t *testing.T) {
		t.Parallel()

		var scanned atomic.Int32
		bp := NewBatchProcessor(
			detectorFunc(func(_ context.Context, url string) (*verdict.Verdict, error) {
				scanned.Add(1)
				if url == "" {
					return nil, errors.New("url is empty")
				}
				return verdict.Build(url, false, 0.9, features.Vector{}, verdict.SourceModel), nil
			}),
			WithBatchLogger(quietLogger()),
		)

		batch, err := bp.ProcessBatch(context.Background(), []string{"http://a.example", "", "http://c.example"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scanned.Load() != 3 {
			t.Errorf("expected 3 scans, got %d", scanned.Load())
		}
		if batch.Results[1].Error == nil || batch.Results[1].Verdict != nil {
			t.Error("expected an error and no verdict in the second result")
		}
		if batch.Failed() != 1 {
			t.Errorf("Failed() = %d, want 1", batch.Failed())
		}
		if got := len(batch.Verdicts()); got != 2 {
			t.Errorf("Verdicts() has %d entries, want 2", got)
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var started atomic.Int32

		bp := NewBatchProcessor(
			detectorFunc(func(ctx context.Context, _ string) (*verdict.Verdict, error) {
				started.Add(1)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Second):
					return nil, nil
				}
			}),
			WithConcurrency(2),
			WithBatchLogger(quietLogger()),
		)

		urls := make([]string, 10)
		for i := range urls {
			urls[i] = "http://example.com"
		}

		go func() {
			time.Sleep(100 * time.Millisecond)
			cancel()
		}()

		_, err := bp.ProcessBatch(ctx, urls)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		//nolint:gosec // len(urls) is small, no overflow risk
		if started.Load() >= int32(len(urls)) {
			t.Error("expected some urls to not start due to cancellation")
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests callback-based processing.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	received := make(map[int]string)

	bp := NewBatchProcessor(okDetector(), WithBatchLogger(quietLogger()))
	urls := []string{"http://first.example", "http://second.example", "http://third.example"}

	err := bp.ProcessBatchWithCallback(context.Background(), urls, func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		received[r.Index] = r.Verdict.URL
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(received) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(received))
	}
	for i, url := range urls {
		if received[i] != url {
			t.Errorf("callback for index %d got %q, want %q", i, received[i], url)
		}
	}
}
