package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/phishguard/internal/config"
	"github.com/nao1215/phishguard/internal/corpus"
	"github.com/nao1215/phishguard/internal/database"
	"github.com/nao1215/phishguard/internal/engine"
	"github.com/nao1215/phishguard/internal/modelstore"
	"github.com/spf13/cobra"
)

// NewTrainCmd creates the train command.
func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the phishing classifier",
		Long: `Train builds a new random forest from the embedded seed corpus and the
URLs labeled with "phishguard corpus", and replaces the stored model.

Training is deterministic: the same corpus and seed produce the same model.
Each run is recorded in the corpus database with the model checksum.

Examples:
  # Retrain with the default parameters
  phishguard train

  # Train a smaller forest with a different seed
  phishguard train --trees 50 --seed 7`,
		Args: cobra.NoArgs,
		RunE: runTrainCmd,
	}

	cmd.Flags().Int("trees", config.DefaultTrees,
		"Number of trees in the forest")
	cmd.Flags().Int("max-depth", config.DefaultMaxDepth,
		"Maximum depth of each tree")
	cmd.Flags().Uint64("seed", config.DefaultSeed,
		"Random seed for reproducible training")
	cmd.Flags().Int("workers", 0,
		"Number of trees built concurrently (0 = number of CPUs)")

	return cmd
}

// runTrainCmd executes the train command.
func runTrainCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildTrainConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signalContext()
	defer stop()

	return runTrain(ctx, cfg, workers, logger, cmd.OutOrStdout())
}

// buildTrainConfig creates a Config with the training flags applied.
func buildTrainConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("trees") {
		if cfg.Trees, err = flags.GetInt("trees"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-depth") {
		if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("seed") {
		if cfg.Seed, err = flags.GetUint64("seed"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// runTrain retrains the model, saves it and records the run.
func runTrain(ctx context.Context, cfg *config.Config, workers int, logger *slog.Logger, out io.Writer) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	opts := trainOptions(cfg)
	opts.Workers = workers

	logger.Info("training model",
		"trees", opts.Trees,
		"max_depth", opts.MaxDepth,
		"seed", opts.Seed,
	)

	store := modelstore.New(cfg.ModelDir)
	result, err := engine.Retrain(ctx, store, corpus.Multi(corpus.Seed(), db), opts)
	if err != nil {
		return err
	}

	if _, err := db.RecordTrainingRun(ctx, &database.TrainingRun{
		Samples:  result.Samples,
		Phishing: result.Phishing,
		Trees:    result.Trees,
		Seed:     result.Seed,
		Checksum: result.Checksum,
	}); err != nil {
		logger.Warn("failed to record training run", "error", err)
	}

	fmt.Fprintf(out, "Model trained in %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  samples:  %d (%d phishing, %d legitimate)\n",
		result.Samples, result.Phishing, result.Samples-result.Phishing)
	fmt.Fprintf(out, "  trees:    %d\n", result.Trees)
	fmt.Fprintf(out, "  seed:     %d\n", result.Seed)
	fmt.Fprintf(out, "  model:    %s\n", cfg.ModelDir)
	fmt.Fprintf(out, "  checksum: %s\n", result.Checksum)
	return nil
}
