package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/phishguard/internal/classifier"
	"github.com/nao1215/phishguard/internal/features"
	"github.com/nao1215/phishguard/internal/reference"
	"github.com/nao1215/phishguard/internal/verdict"
)

// DefaultTextWait is how long Detect waits for the page text once the
// verdict is ready.
const DefaultTextWait = 2 * time.Second

var (
	// ErrNoUsableModel is returned when the stored model cannot be loaded
	// and retraining fails as well.
	ErrNoUsableModel = errors.New("no usable model")

	// ErrEmptyURL is returned by Detect for blank input.
	ErrEmptyURL = errors.New("url is empty")
)

// TextSampler returns a short text sample of the page at url, or url itself
// when the page cannot be fetched.
type TextSampler interface {
	Sample(ctx context.Context, url string) string
}

// Engine scans URLs. It is immutable after New and safe for concurrent use.
type Engine struct {
	model     *classifier.Model
	reference *reference.Table
	sampler   TextSampler
	textWait  time.Duration
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithReference sets the known-URL table consulted before the model.
func WithReference(t *reference.Table) Option {
	return func(e *Engine) {
		e.reference = t
	}
}

// WithSampler enables page-text sampling.
func WithSampler(s TextSampler) Option {
	return func(e *Engine) {
		e.sampler = s
	}
}

// WithTextWait bounds how long Detect waits for the page text after the
// verdict is ready. When it expires the verdict keeps the URL as its text.
func WithTextWait(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.textWait = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an Engine around model. By default it has an empty reference
// table and no sampler.
func New(model *classifier.Model, opts ...Option) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrNoUsableModel)
	}
	e := &Engine{
		model:     model,
		reference: reference.Empty(),
		textWait:  DefaultTextWait,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Model returns the engine's model.
func (e *Engine) Model() *classifier.Model {
	return e.model
}

// Detect scans rawURL.
//
// The URL is normalized first (http:// is added when no scheme is present).
// A URL found in the reference table gets its known verdict; any other URL
// is classified by the model. ErrDimensionMismatch is returned as an error
// because it means the model does not fit the feature schema. Any other
// failure, including a panic, yields verdict.SafeDefault.
//
// When a sampler is configured, the page text is fetched concurrently with
// classification and attached to the verdict. It never changes the decision,
// and the verdict is returned at most the text wait after it is ready.
func (e *Engine) Detect(ctx context.Context, rawURL string) (*verdict.Verdict, error) {
	url := features.NormalizeURL(rawURL)
	if url == "" {
		return nil, ErrEmptyURL
	}

	sampleCtx, cancelSample := context.WithCancel(ctx)
	defer cancelSample()

	var text chan string
	if e.sampler != nil {
		text = make(chan string, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("page sampler panicked", "url", url, "panic", r)
					text <- url
				}
			}()
			text <- e.sampler.Sample(sampleCtx, url)
		}()
	}

	v, err := e.classify(url)
	if err != nil {
		if errors.Is(err, classifier.ErrDimensionMismatch) {
			return nil, err
		}
		e.logger.Error("inference failed, returning safe default", "url", url, "error", err)
		return verdict.SafeDefault(url), nil
	}

	if text != nil {
		timer := time.NewTimer(e.textWait)
		defer timer.Stop()
		select {
		case v.TextContent = <-text:
		case <-timer.C:
			e.logger.Debug("page text not ready, keeping url", "url", url, "wait", e.textWait)
		case <-ctx.Done():
		}
	}
	return v, nil
}

// classify runs the reference lookup and the model, converting a panic into
// an error.
func (e *Engine) classify(url string) (v *verdict.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during inference: %v", r)
		}
	}()

	vec := features.Extract(url)

	if entry, ok := e.reference.Lookup(url); ok {
		e.logger.Debug("reference table hit", "url", url, "phishing", entry.IsPhishing)
		return verdict.Build(url, entry.IsPhishing, entry.Confidence, vec, verdict.SourceReference), nil
	}

	phishing, confidence, err := e.model.Predict(vec)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("classified", "url", url, "phishing", phishing, "confidence", confidence)
	return verdict.Build(url, phishing, confidence, vec, verdict.SourceModel), nil
}
