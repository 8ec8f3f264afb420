package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/phishguard/internal/classifier"
	"github.com/nao1215/phishguard/internal/corpus"
	"github.com/nao1215/phishguard/internal/modelstore"
)

// TrainReport summarizes a training run.
type TrainReport struct {
	Model    *classifier.Model
	Samples  int
	Phishing int
	Trees    int
	Seed     uint64
	Checksum string
	Duration time.Duration
}

// Train collects samples from provider and trains a model.
func Train(ctx context.Context, provider corpus.Provider, opts classifier.TrainOptions) (*TrainReport, error) {
	start := time.Now()

	samples, err := provider.Samples(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect training samples: %w", err)
	}

	model, err := classifier.Train(ctx, samples, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to train model: %w", err)
	}

	phishing := 0
	for _, s := range samples {
		if s.Phishing {
			phishing++
		}
	}

	return &TrainReport{
		Model:    model,
		Samples:  len(samples),
		Phishing: phishing,
		Trees:    opts.Trees,
		Seed:     opts.Seed,
		Duration: time.Since(start),
	}, nil
}

// Retrain trains a model from provider and saves it to store. The report's
// Checksum is set from the saved forest file.
func Retrain(ctx context.Context, store *modelstore.Store, provider corpus.Provider, opts classifier.TrainOptions) (*TrainReport, error) {
	report, err := Train(ctx, provider, opts)
	if err != nil {
		return nil, err
	}
	if err := store.Save(report.Model); err != nil {
		return report, err
	}
	if report.Checksum, err = store.Checksum(); err != nil {
		return report, fmt.Errorf("failed to checksum saved model: %w", err)
	}
	return report, nil
}

// LoadOrTrain loads the model from store. When the stored model is missing
// or unusable it trains a fresh one from provider and tries to save it; a
// failed save is logged and the fresh model is still returned. It fails
// with ErrNoUsableModel only when training fails too.
func LoadOrTrain(ctx context.Context, store *modelstore.Store, provider corpus.Provider, opts classifier.TrainOptions, logger *slog.Logger) (*classifier.Model, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	model, err := store.Load()
	if err == nil {
		logger.Debug("model loaded", "model", store.ModelPath, "scaler", store.ScalerPath)
		return model, nil
	}
	logger.Warn("stored model unavailable, training a new one", "error", err)

	report, err := Retrain(ctx, store, provider, opts)
	if report == nil {
		return nil, fmt.Errorf("%w: %w", ErrNoUsableModel, err)
	}
	if err != nil {
		logger.Warn("failed to save trained model", "error", err)
	}
	logger.Info("model trained",
		"samples", report.Samples,
		"phishing", report.Phishing,
		"trees", report.Trees,
		"duration", report.Duration.Round(time.Millisecond),
	)
	return report.Model, nil
}
