package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/phishguard/internal/classifier"
	"github.com/nao1215/phishguard/internal/config"
	"github.com/nao1215/phishguard/internal/corpus"
	"github.com/nao1215/phishguard/internal/database"
	"github.com/nao1215/phishguard/internal/engine"
	"github.com/nao1215/phishguard/internal/fetcher"
	pglog "github.com/nao1215/phishguard/internal/log"
	"github.com/nao1215/phishguard/internal/modelstore"
	"github.com/nao1215/phishguard/internal/reference"
	"github.com/spf13/cobra"
)

// loadConfig builds a Config from the defaults, the configuration file, the
// environment and the global flags. Command flags are applied by callers.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise silently use the defaults when no file is found.
	cfg.ConfigFilePath = getGlobalString(cmd, "config")
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		f, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.Apply(f)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	var envFiles []string
	if envFile := getGlobalString(cmd, "env-file"); envFile != "" {
		if _, err := os.Stat(envFile); err != nil {
			return nil, fmt.Errorf("env file not found: %s", envFile)
		}
		envFiles = append(envFiles, envFile)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if dir := getGlobalString(cmd, "model-dir"); dir != "" {
		cfg.ModelDir = dir
	}
	if dir := getGlobalString(cmd, "data-dir"); dir != "" {
		cfg.DBDir = dir
	}
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.JSONLogs = getGlobalBool(cmd, "log-json")

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getGlobalString retrieves a string flag from the command or its parent.
// It returns "" when the flag is not defined, e.g. for a subcommand used
// without the root command.
func getGlobalString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return v
}

// getGlobalBool is getGlobalString for boolean flags.
func getGlobalBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates a structured logger on stderr that masks secrets.
func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.JSONLogs {
		return pglog.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	return pglog.NewSecureLogger(os.Stderr, cfg.Verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// trainOptions returns the classifier parameters selected by cfg.
func trainOptions(cfg *config.Config) classifier.TrainOptions {
	opts := classifier.DefaultTrainOptions()
	opts.Trees = cfg.Trees
	opts.MaxDepth = cfg.MaxDepth
	opts.Seed = cfg.Seed
	return opts
}

// trainingProvider returns the seed corpus plus the labeled URL database
// when one exists in cfg.DBDir. The returned function closes the database.
func trainingProvider(cfg *config.Config) (corpus.Provider, func(), error) {
	if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); err != nil {
		return corpus.Seed(), func() {}, nil
	}
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return corpus.Multi(corpus.Seed(), db), func() { _ = db.Close() }, nil
}

// loadModel loads the stored model, training and saving a new one when the
// stored model is missing or unusable. It also returns the checksum of the
// stored model, which is empty when saving failed.
func loadModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*classifier.Model, string, error) {
	provider, closeDB, err := trainingProvider(cfg)
	if err != nil {
		return nil, "", err
	}
	defer closeDB()

	store := modelstore.New(cfg.ModelDir)
	model, err := engine.LoadOrTrain(ctx, store, provider, trainOptions(cfg), logger)
	if err != nil {
		return nil, "", err
	}

	checksum, err := store.Checksum()
	if err != nil {
		logger.Debug("model checksum unavailable", "error", err)
		checksum = ""
	}
	return model, checksum, nil
}

// referenceTable returns the built-in table, unless disabled, overridden by
// the entries of the configuration file.
func referenceTable(cfg *config.Config) (*reference.Table, error) {
	table := reference.Empty()
	if cfg.UseReference {
		table = reference.Default()
	}
	extra, err := cfg.File.ReferenceTable()
	if err != nil {
		return nil, err
	}
	return table.Merge(extra), nil
}

// newSampler returns the page-text sampler configured by cfg.
func newSampler(cfg *config.Config, logger *slog.Logger) (*fetcher.Sampler, error) {
	client, err := fetcher.NewHTTPClient(fetcher.ClientConfig{
		Timeout:            cfg.Timeout,
		ProxyAddress:       cfg.ProxyAddress,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	opts := []fetcher.Option{
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithRateLimit(cfg.RateLimit, 1),
		fetcher.WithLogger(logger),
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, fetcher.WithMaxBodySize(cfg.MaxBodySize))
	}
	return fetcher.NewSampler(client, opts...), nil
}

// newEngine builds the scanning engine around model.
func newEngine(cfg *config.Config, model *classifier.Model, logger *slog.Logger) (*engine.Engine, error) {
	table, err := referenceTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid reference entries: %w", err)
	}

	opts := []engine.Option{
		engine.WithReference(table),
		engine.WithLogger(logger),
	}
	if cfg.FetchText {
		sampler, err := newSampler(cfg, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithSampler(sampler), engine.WithTextWait(cfg.TextWait))
	}
	return engine.New(model, opts...)
}

// openOutput returns the report destination: cfg.ReportFile when set,
// otherwise stdout. The returned function closes the file.
func openOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports list scanned URLs, which may carry tokens, so keep them owner-only.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
