package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Config.ValidateScan()
// so that callers can use errors.Is() for programmatic error handling.
var (
	// ErrNoTarget is returned when no URL to scan is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidTextWait is returned when the page text wait is not positive.
	ErrInvalidTextWait = errors.New("invalid text wait: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidRateLimit is returned when the fetch rate limit is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidTrees is returned when the number of trees is not positive.
	ErrInvalidTrees = errors.New("invalid number of trees: must be positive")

	// ErrInvalidMaxDepth is returned when the maximum tree depth is not positive.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be positive")

	// ErrInvalidEnv is returned when a PHISHGUARD_* environment variable
	// cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)
