// Package main provides the entry point for the PhishGuard CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for PhishGuard.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishguard",
		Short: "Phishing risk scoring for URLs",
		Long: `PhishGuard scores URLs for phishing risk.

Each URL is reduced to lexical features (length, character counts,
suspicious keywords, entropy, TLD and shortener checks) and classified by a
random forest. URLs with a known verdict are answered from a reference
table. The page text can optionally be sampled for context.

The model is trained on first use from an embedded seed corpus plus any
URLs you label with "phishguard corpus add".`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .phishguard in current or home directory)")
	cmd.PersistentFlags().String("env-file", "",
		"Load environment variables from this file (default: .env if present)")
	cmd.PersistentFlags().String("model-dir", "",
		"Directory of the trained model (default: XDG data directory)")
	cmd.PersistentFlags().String("data-dir", "",
		"Directory of the labeled URL database (default: XDG data directory)")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewTrainCmd())
	cmd.AddCommand(NewCorpusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
