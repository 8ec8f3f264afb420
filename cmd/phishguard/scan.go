package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/nao1215/phishguard/internal/config"
	"github.com/nao1215/phishguard/internal/corpus"
	"github.com/nao1215/phishguard/internal/pipeline"
	"github.com/nao1215/phishguard/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Score URLs for phishing risk",
		Long: `Scan scores one or more URLs for phishing risk.

Each URL is normalized (http:// is added when no scheme is given), checked
against the table of known URLs and otherwise classified by the model. The
verdict carries a confidence, a risk score in [0, 1] and a risk level.

No network request is made unless --fetch is given, in which case a short
sample of the page text is attached to each verdict.

Examples:
  # Scan a single URL
  phishguard scan http://paypal-login.secure-authenticate.com

  # Scan several URLs concurrently
  phishguard scan example.com bit.ly/abc http://login.example.tk

  # Scan URLs listed in a file, one per line ("-" reads stdin)
  phishguard scan --list urls.txt

  # Attach page text through a SOCKS5 proxy
  phishguard scan --fetch --proxy 127.0.0.1:9050 http://example.com

  # Write a Markdown report
  phishguard scan -m -o report.md --list urls.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Input flags
	cmd.Flags().StringP("list", "l", "",
		"Read URLs from file, one per line (\"-\" for stdin)")

	// Page-text sampling flags
	cmd.Flags().Bool("fetch", false,
		"Fetch each page and attach a sample of its visible text")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page fetch")
	cmd.Flags().Duration("text-wait", config.DefaultTextWait,
		"How long a verdict waits for its page text before keeping the URL")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for page fetches (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("insecure", false,
		"Skip TLS certificate verification for page fetches")
	cmd.Flags().Float64("rate", 0,
		"Maximum page fetches per second (0 = unlimited)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for page fetches")

	// Scan behavior flags
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of URLs scanned concurrently")
	cmd.Flags().Bool("no-reference", false,
		"Disable the built-in table of known URLs")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("features", "F", false,
		"Show the feature breakdown of each verdict in the text report")
	cmd.Flags().Bool("tee", false,
		"With --output, also print the report to stdout")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateScan(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signalContext()
	defer stop()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from the config file, the environment and
// the scan command flags. Flags override the other sources only when set.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("fetch") {
		if cfg.FetchText, err = flags.GetBool("fetch"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("text-wait") {
		if cfg.TextWait, err = flags.GetDuration("text-wait"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("insecure") {
		if cfg.InsecureSkipVerify, err = flags.GetBool("insecure"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rate") {
		if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-reference") {
		noReference, err := flags.GetBool("no-reference")
		if err != nil {
			return nil, err
		}
		cfg.UseReference = !noReference
	}

	cfg.JSONReport, err = flags.GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = flags.GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = flags.GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.ShowFeatures, err = flags.GetBool("features")
	if err != nil {
		return nil, err
	}
	cfg.TeeReport, err = flags.GetBool("tee")
	if err != nil {
		return nil, err
	}

	listPath, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	cfg.Targets, err = readTargets(args, listPath, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// readTargets returns args followed by the URLs listed in listPath.
func readTargets(args []string, listPath string, stdin io.Reader) ([]string, error) {
	targets := append([]string(nil), args...)
	if listPath == "" {
		return targets, nil
	}

	r := stdin
	if listPath != "-" {
		f, err := os.Open(listPath) //nolint:gosec // User-provided list path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to open url list: %w", err)
		}
		defer f.Close()
		r = f
	}

	listed, err := corpus.ParseList(r, false)
	if err != nil {
		return nil, err
	}
	for _, u := range listed {
		targets = append(targets, u.URL)
	}
	return targets, nil
}

// runScan loads the model and scans cfg.Targets, writing the report to
// stdout or cfg.ReportFile.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"concurrency", cfg.Concurrency,
		"fetchText", cfg.FetchText,
		"reference", cfg.UseReference,
	)

	model, checksum, err := loadModel(ctx, cfg, logger)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, model, logger)
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // Best effort close after write errors were reported

	writer := newReportWriter(cfg, output, checksum)
	if cfg.TeeReport && cfg.ReportFile != "" {
		writer = report.NewMultiWriter(writer, newReportWriter(cfg, stdout, checksum))
	}

	if len(cfg.Targets) == 1 {
		v, err := eng.Detect(ctx, cfg.Targets[0])
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", cfg.Targets[0], err)
		}
		if _, err := writer.WriteVerdict(v); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return closeOutput()
	}

	startTime := time.Now()
	bp := pipeline.NewBatchProcessor(eng,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)
	batch, scanErr := bp.ProcessBatch(ctx, cfg.Targets)
	logger.Info("scan finished",
		"run_id", batch.RunID,
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	// A cancelled batch still reports what was scanned before the signal.
	if _, err := writer.Write(report.FromBatch(batch)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if scanErr != nil {
		return scanErr
	}
	return closeOutput()
}

// newReportWriter returns the writer for the format selected in cfg.
func newReportWriter(cfg *config.Config, output io.Writer, checksum string) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), checksum, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.ShowFeatures))
	}
}
