package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nao1215/phishguard/internal/corpus"
	"github.com/nao1215/phishguard/internal/database"
	"github.com/spf13/cobra"
)

// Import file formats.
const (
	formatAuto = "auto"
	formatYAML = "yaml"
	formatList = "list"
)

// errNoLabel is returned when a command needs --phishing or --legitimate.
var errNoLabel = errors.New("specify --phishing or --legitimate")

// NewCorpusCmd creates the corpus command and its subcommands.
func NewCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the labeled URLs used for training",
		Long: `Corpus manages the database of labeled URLs that "phishguard train" adds
to the embedded seed corpus.

URLs are normalized before they are stored; adding a URL that is already
present replaces its label.

Examples:
  # Label URLs
  phishguard corpus add --phishing http://secure-login.example.tk
  phishguard corpus add --legitimate https://www.example.com/

  # Import a YAML file or a plain list
  phishguard corpus import labeled.yaml
  phishguard corpus import --phishing feed.txt

  # Inspect and clean up
  phishguard corpus list --phishing
  phishguard corpus remove http://secure-login.example.tk
  phishguard corpus stats`,
	}

	cmd.AddCommand(newCorpusAddCmd())
	cmd.AddCommand(newCorpusImportCmd())
	cmd.AddCommand(newCorpusListCmd())
	cmd.AddCommand(newCorpusRemoveCmd())
	cmd.AddCommand(newCorpusStatsCmd())

	return cmd
}

// addLabelFlags adds the mutually exclusive --phishing and --legitimate flags.
func addLabelFlags(cmd *cobra.Command, usage string) {
	cmd.Flags().Bool("phishing", false, usage+" phishing URLs")
	cmd.Flags().Bool("legitimate", false, usage+" legitimate URLs")
	cmd.MarkFlagsMutuallyExclusive("phishing", "legitimate")
}

// labelFlag returns the label selected by --phishing or --legitimate. ok is
// false when neither is set.
func labelFlag(cmd *cobra.Command) (phishing, ok bool, err error) {
	phishing, err = cmd.Flags().GetBool("phishing")
	if err != nil {
		return false, false, err
	}
	legitimate, err := cmd.Flags().GetBool("legitimate")
	if err != nil {
		return false, false, err
	}
	return phishing, phishing || legitimate, nil
}

// openCorpusDB loads the configuration and opens the labeled URL database.
func openCorpusDB(cmd *cobra.Command) (*database.CorpusDB, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func newCorpusAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add url...",
		Short: "Add labeled URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCorpusAddCmd,
	}
	addLabelFlags(cmd, "Label as")
	cmd.MarkFlagsOneRequired("phishing", "legitimate")
	return cmd
}

func runCorpusAddCmd(cmd *cobra.Command, args []string) error {
	phishing, ok, err := labelFlag(cmd)
	if err != nil {
		return err
	}
	if !ok {
		return errNoLabel
	}

	urls := make([]corpus.LabeledURL, len(args))
	for i, a := range args {
		urls[i] = corpus.LabeledURL{URL: a, Phishing: phishing, Source: corpus.SourceUser}
	}

	db, err := openCorpusDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.AddURLs(cmd.Context(), urls)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d %s URL(s)\n", n, labelName(phishing))
	return nil
}

func newCorpusImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import file",
		Short: "Import labeled URLs from a file",
		Long: `Import adds the URLs of a file to the corpus.

Two formats are accepted. A YAML file carries its own labels:

  urls:
    - {url: "http://secure-login.example.tk", phishing: true}
    - {url: "https://www.example.com/", phishing: false}

A list file holds one URL per line; blank lines and lines starting with '#'
are skipped, and every URL gets the label given by --phishing or
--legitimate. Files ending in .yaml or .yml are read as YAML unless
--format says otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: runCorpusImportCmd,
	}
	addLabelFlags(cmd, "Label list entries as")
	cmd.Flags().String("format", formatAuto, "File format: auto, yaml or list")
	return cmd
}

func runCorpusImportCmd(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err = importFormat(path, format)
	if err != nil {
		return err
	}

	f, err := os.Open(path) //nolint:gosec // User-provided import path is intentional
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var urls []corpus.LabeledURL
	switch format {
	case formatYAML:
		urls, err = corpus.ParseYAML(f)
	default:
		phishing, ok, flagErr := labelFlag(cmd)
		if flagErr != nil {
			return flagErr
		}
		if !ok {
			return fmt.Errorf("list files carry no labels: %w", errNoLabel)
		}
		urls, err = corpus.ParseList(f, phishing)
	}
	if err != nil {
		return err
	}
	for i := range urls {
		if urls[i].Source == "" {
			urls[i].Source = corpus.SourceUser
		}
	}

	db, err := openCorpusDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.AddURLs(cmd.Context(), urls)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d URL(s) from %s\n", n, path)
	return nil
}

// importFormat resolves formatAuto from the file extension.
func importFormat(path, format string) (string, error) {
	switch format {
	case formatYAML, formatList:
		return format, nil
	case formatAuto, "":
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			return formatYAML, nil
		default:
			return formatList, nil
		}
	default:
		return "", fmt.Errorf("unknown import format %q: use auto, yaml or list", format)
	}
}

func newCorpusListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List labeled URLs",
		Args:  cobra.NoArgs,
		RunE:  runCorpusListCmd,
	}
	addLabelFlags(cmd, "Only list")
	cmd.Flags().String("source", "", "Only list URLs from this source (e.g., user)")
	return cmd
}

func runCorpusListCmd(cmd *cobra.Command, _ []string) error {
	var filter database.ListFilter
	phishing, ok, err := labelFlag(cmd)
	if err != nil {
		return err
	}
	if ok {
		filter.Phishing = &phishing
	}
	if filter.Source, err = cmd.Flags().GetString("source"); err != nil {
		return err
	}

	db, err := openCorpusDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.ListURLs(cmd.Context(), filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tSOURCE\tADDED\tURL")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			labelName(r.Phishing), r.Source, r.AddedAt.Format(time.DateOnly), r.URL)
	}
	return tw.Flush()
}

func newCorpusRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove url...",
		Short: "Remove labeled URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCorpusRemoveCmd,
	}
}

func runCorpusRemoveCmd(cmd *cobra.Command, args []string) error {
	db, err := openCorpusDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	removed := 0
	for _, a := range args {
		ok, err := db.RemoveURL(cmd.Context(), a)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "Not found: %s\n", a)
			continue
		}
		removed++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d URL(s)\n", removed)
	return nil
}

func newCorpusStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus and training statistics",
		Args:  cobra.NoArgs,
		RunE:  runCorpusStatsCmd,
	}
}

func runCorpusStatsCmd(cmd *cobra.Command, _ []string) error {
	db, err := openCorpusDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	return writeStats(cmd.Context(), db, cmd.OutOrStdout())
}

// writeStats prints the seed and database counts and the latest training run.
func writeStats(ctx context.Context, db *database.CorpusDB, out io.Writer) error {
	total, phishing, err := db.Count(ctx)
	if err != nil {
		return err
	}
	seed := corpus.SeedURLs()
	seedPhishing := 0
	for _, u := range seed {
		if u.Phishing {
			seedPhishing++
		}
	}

	fmt.Fprintf(out, "Seed corpus:    %d (%d phishing, %d legitimate)\n",
		len(seed), seedPhishing, len(seed)-seedPhishing)
	fmt.Fprintf(out, "Labeled URLs:   %d (%d phishing, %d legitimate)\n",
		total, phishing, total-phishing)

	run, err := db.LatestTrainingRun(ctx)
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintln(out, "Last training:  never")
		return nil
	}
	fmt.Fprintf(out, "Last training:  %s\n", run.TrainedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "  samples:  %d (%d phishing)\n", run.Samples, run.Phishing)
	fmt.Fprintf(out, "  trees:    %d\n", run.Trees)
	fmt.Fprintf(out, "  seed:     %d\n", run.Seed)
	fmt.Fprintf(out, "  checksum: %s\n", run.Checksum)
	return nil
}

func labelName(phishing bool) string {
	if phishing {
		return "phishing"
	}
	return "legitimate"
}
