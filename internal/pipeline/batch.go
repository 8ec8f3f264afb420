package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/phishguard/internal/verdict"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of URLs scanned at once unless
// WithConcurrency says otherwise.
const DefaultConcurrency = 10

// Detector scans a single URL.
type Detector interface {
	Detect(ctx context.Context, url string) (*verdict.Verdict, error)
}

// Result is the outcome of scanning one URL of a batch.
type Result struct {
	// Index is the position of URL in the input.
	Index int
	// URL is the input as given.
	URL string
	// Verdict is nil when Error is set.
	Verdict *verdict.Verdict
	Error   error
}

// Batch holds the results of one ProcessBatch call.
type Batch struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

// Failed returns the number of URLs that could not be scanned.
func (b *Batch) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Error != nil {
			n++
		}
	}
	return n
}

// Verdicts returns the verdicts of the successful scans in input order.
func (b *Batch) Verdicts() []*verdict.Verdict {
	out := make([]*verdict.Verdict, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Verdict != nil {
			out = append(out, r.Verdict)
		}
	}
	return out
}

// BatchProcessor handles concurrent scanning of multiple URLs.
type BatchProcessor struct {
	detector    Detector
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scans.
// Values below 1 are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor that scans with detector.
func NewBatchProcessor(detector Detector, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		detector:    detector,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch scans urls concurrently and returns the results in input
// order. Individual scan failures are recorded in Result.Error. The only
// error returned is the context's when it is cancelled mid-batch.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) (*Batch, error) {
	batch := &Batch{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]Result, len(urls)),
	}

	err := bp.run(ctx, batch.RunID, urls, func(r Result) {
		// Each worker owns a distinct index.
		batch.Results[r.Index] = r
	})
	batch.FinishedAt = time.Now()
	if err != nil {
		return batch, err
	}
	return batch, nil
}

// ProcessBatchWithCallback scans urls concurrently and calls callback as
// each scan completes, in completion order. The callback may be called from
// several goroutines at once.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, urls []string, callback func(Result)) error {
	return bp.run(ctx, uuid.NewString(), urls, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, runID string, urls []string, emit func(Result)) error {
	logger := bp.logger.With("run_id", runID)
	logger.Info("starting batch scan",
		"total", len(urls),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			logger.Debug("scanning url", "index", i, "url", url)
			v, err := bp.detector.Detect(gctx, url)
			if err != nil {
				// Keep going; one bad URL must not abort the batch.
				logger.Warn("scan failed", "url", url, "error", err)
			} else {
				logger.Debug("scan completed",
					"url", url,
					"phishing", v.IsPhishing,
					"risk_level", v.RiskLevel,
				)
			}
			emit(Result{Index: i, URL: url, Verdict: v, Error: err})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Info("batch scan complete",
		"total", len(urls),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
