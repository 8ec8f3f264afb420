package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout bounds a single page fetch. It matches the sampler's
	// own default.
	DefaultTimeout = 10 * time.Second

	// DefaultTextWait is how long a scan waits for the page text once the
	// verdict is ready.
	DefaultTextWait = 2 * time.Second

	// DefaultConcurrency is the number of URLs scanned at once.
	DefaultConcurrency = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "phishguard"

	// DefaultUserAgent identifies PhishGuard in HTTP requests.
	DefaultUserAgent = "PhishGuard/1.0 (+https://github.com/nao1215/phishguard)"

	// DefaultMaxBodySize limits the response body read when sampling page text.
	DefaultMaxBodySize = 2 * 1024 * 1024 // 2MB

	// DefaultTrees is the number of trees in a trained forest.
	DefaultTrees = 200

	// DefaultMaxDepth is the maximum depth of a trained tree.
	DefaultMaxDepth = 15

	// DefaultSeed makes training reproducible.
	DefaultSeed uint64 = 42
)

// Config holds all configuration options for PhishGuard.
// This struct is populated from defaults, the config file, the environment
// and CLI flags, and passed through the application explicitly.
type Config struct {
	// FetchText enables sampling the visible text of each scanned page.
	// It is off by default: scanning a URL then performs no network I/O.
	FetchText bool

	// Timeout is the timeout of a single page fetch.
	Timeout time.Duration

	// TextWait bounds how long a verdict waits for its page text. The URL
	// is kept as the text when the page is slower.
	TextWait time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format used
	// for page fetches.
	ProxyAddress string

	// InsecureSkipVerify disables TLS certificate verification for page
	// fetches. Phishing sites often have broken certificates.
	InsecureSkipVerify bool

	// RateLimit is the maximum number of page fetches per second.
	// Zero disables rate limiting.
	RateLimit float64

	// UserAgent is the User-Agent header sent with page fetches.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// Concurrency is the number of URLs scanned at once.
	Concurrency int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .phishguard in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// File holds the parsed configuration file, if any.
	File *File

	// UseReference enables the table of URLs with known verdicts.
	UseReference bool

	// JSONReport enables JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ShowFeatures adds the per-feature breakdown to text reports.
	ShowFeatures bool

	// TeeReport also prints the report to stdout when ReportFile is set.
	TeeReport bool

	// JSONLogs switches log output to JSON lines.
	JSONLogs bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Targets is the list of URLs to scan.
	Targets []string

	// ModelDir is the directory holding the trained model files.
	// Defaults to XDGDataDir()/model.
	ModelDir string

	// DBDir is the directory of the labeled URL database.
	// Defaults to XDGDataDir().
	DBDir string

	// Trees, MaxDepth and Seed control model training.
	Trees    int
	MaxDepth int
	Seed     uint64
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		TextWait:     DefaultTextWait,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		Concurrency:  DefaultConcurrency,
		UseReference: true,
		ModelDir:     filepath.Join(XDGDataDir(), "model"),
		DBDir:        XDGDataDir(),
		Trees:        DefaultTrees,
		MaxDepth:     DefaultMaxDepth,
		Seed:         DefaultSeed,
	}
}

// XDGDataDir returns the XDG data directory for PhishGuard.
// On Linux: ~/.local/share/phishguard
// On macOS: ~/Library/Application Support/phishguard
// On Windows: %LOCALAPPDATA%\phishguard
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for PhishGuard.
// On Linux: ~/.config/phishguard
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by every command and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.TextWait <= 0 {
		return ErrInvalidTextWait
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Trees <= 0 {
		return ErrInvalidTrees
	}
	if c.MaxDepth <= 0 {
		return ErrInvalidMaxDepth
	}
	return nil
}

// ValidateScan is Validate plus the checks only scanning needs.
func (c *Config) ValidateScan() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}
