package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/phishguard/internal/classifier"
	"github.com/nao1215/phishguard/internal/corpus"
	"github.com/nao1215/phishguard/internal/features"
)

// FileName is the database file created inside the data directory.
const FileName = "phishguard.db"

// ErrEmptyURL is returned when a labeled URL has no URL.
var ErrEmptyURL = errors.New("labeled url is empty")

// CorpusDB stores user-labeled training URLs and the history of training
// runs. It implements corpus.Provider.
type CorpusDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

var _ corpus.Provider = (*CorpusDB)(nil)

// Options configures CorpusDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CorpusDB inside dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CorpusDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CorpusDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CorpusDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CorpusDB) Path() string {
	return cdb.dbPath
}

func (cdb *CorpusDB) createTables() error {
	schema := `
	-- Labeled URLs added by the user for training
	CREATE TABLE IF NOT EXISTS labeled_urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		is_phishing INTEGER NOT NULL,
		source TEXT NOT NULL DEFAULT 'user',
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_labeled_urls_label ON labeled_urls(is_phishing);

	-- One row per completed training run
	CREATE TABLE IF NOT EXISTS training_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trained_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		samples INTEGER NOT NULL,
		phishing INTEGER NOT NULL,
		trees INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		checksum TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_training_runs_trained_at ON training_runs(trained_at);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Record is a stored labeled URL.
type Record struct {
	ID int64
	corpus.LabeledURL
	AddedAt time.Time
}

const upsertURL = `
	INSERT INTO labeled_urls (url, is_phishing, source)
	VALUES (?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		is_phishing = excluded.is_phishing,
		source = excluded.source,
		added_at = CURRENT_TIMESTAMP
	`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertURL(ctx context.Context, db execer, u corpus.LabeledURL) error {
	url := features.NormalizeURL(u.URL)
	if url == "" {
		return ErrEmptyURL
	}
	source := u.Source
	if source == "" {
		source = corpus.SourceUser
	}
	if _, err := db.ExecContext(ctx, upsertURL, url, u.Phishing, source); err != nil {
		return fmt.Errorf("failed to insert labeled url %s: %w", url, err)
	}
	return nil
}

// AddURL inserts a labeled URL, replacing the label of an existing entry.
// The URL is normalized before it is stored.
func (cdb *CorpusDB) AddURL(ctx context.Context, u corpus.LabeledURL) error {
	return insertURL(ctx, cdb.db, u)
}

// AddURLs inserts all urls in a single transaction and returns how many were
// stored. Nothing is stored if any insert fails.
func (cdb *CorpusDB) AddURLs(ctx context.Context, urls []corpus.LabeledURL) (int, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, u := range urls {
		if err := insertURL(ctx, tx, u); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit labeled urls: %w", err)
	}
	return len(urls), nil
}

// RemoveURL deletes a labeled URL and reports whether it existed.
func (cdb *CorpusDB) RemoveURL(ctx context.Context, url string) (bool, error) {
	result, err := cdb.db.ExecContext(ctx,
		`DELETE FROM labeled_urls WHERE url = ?`, features.NormalizeURL(url))
	if err != nil {
		return false, fmt.Errorf("failed to remove labeled url: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFilter narrows ListURLs. A nil Phishing lists both classes.
type ListFilter struct {
	Phishing *bool
	Source   string
}

// ListURLs returns stored labeled URLs ordered by URL.
func (cdb *CorpusDB) ListURLs(ctx context.Context, filter ListFilter) ([]Record, error) {
	var where []string
	var args []any
	if filter.Phishing != nil {
		where = append(where, "is_phishing = ?")
		args = append(args, *filter.Phishing)
	}
	if filter.Source != "" {
		where = append(where, "source = ?")
		args = append(args, filter.Source)
	}

	query := `SELECT id, url, is_phishing, source, added_at FROM labeled_urls`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY url"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list labeled urls: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var addedAt string
		if err := rows.Scan(&r.ID, &r.URL, &r.Phishing, &r.Source, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan labeled url: %w", err)
		}
		r.AddedAt = parseTimestamp(addedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored URLs and how many are phishing.
func (cdb *CorpusDB) Count(ctx context.Context) (total, phishing int, err error) {
	err = cdb.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_phishing), 0) FROM labeled_urls`,
	).Scan(&total, &phishing)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count labeled urls: %w", err)
	}
	return total, phishing, nil
}

// Samples extracts training samples from every stored URL.
func (cdb *CorpusDB) Samples(ctx context.Context) ([]classifier.Sample, error) {
	records, err := cdb.ListURLs(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	urls := make([]corpus.LabeledURL, len(records))
	for i, r := range records {
		urls[i] = r.LabeledURL
	}
	return corpus.FromURLs(urls).Samples(ctx)
}

// TrainingRun describes one completed training.
type TrainingRun struct {
	ID        int64
	TrainedAt time.Time
	Samples   int
	Phishing  int
	Trees     int
	Seed      uint64
	Checksum  string
}

// RecordTrainingRun stores run and returns its ID.
func (cdb *CorpusDB) RecordTrainingRun(ctx context.Context, run *TrainingRun) (int64, error) {
	result, err := cdb.db.ExecContext(ctx, `
	INSERT INTO training_runs (samples, phishing, trees, seed, checksum)
	VALUES (?, ?, ?, ?, ?)
	`, run.Samples, run.Phishing, run.Trees, int64(run.Seed), run.Checksum) //nolint:gosec // seeds round-trip through int64
	if err != nil {
		return 0, fmt.Errorf("failed to record training run: %w", err)
	}
	return result.LastInsertId()
}

// LatestTrainingRun returns the most recent training run, or nil when none
// has been recorded.
func (cdb *CorpusDB) LatestTrainingRun(ctx context.Context) (*TrainingRun, error) {
	var run TrainingRun
	var trainedAt string
	var seed int64
	err := cdb.db.QueryRowContext(ctx, `
	SELECT id, trained_at, samples, phishing, trees, seed, checksum
	FROM training_runs
	ORDER BY id DESC
	LIMIT 1
	`).Scan(&run.ID, &trainedAt, &run.Samples, &run.Phishing, &run.Trees, &seed, &run.Checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training run: %w", err)
	}
	run.TrainedAt = parseTimestamp(trainedAt)
	run.Seed = uint64(seed) //nolint:gosec // stored from a uint64
	return &run, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp tries each known format and returns the zero time when none
// matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
