// Package database provides SQLite-based storage for PhishGuard.
//
// The CorpusDB stores:
//   - Labeled URLs added by the user, used as extra training data
//   - A log of training runs with the checksum of the saved model
//
// The database is a single file opened through modernc.org/sqlite, which
// needs no cgo. WAL mode is enabled by default.
package database
