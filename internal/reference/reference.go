// Package reference holds the table of URLs with known verdicts. The engine
// consults it before running the classifier.
package reference

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed known_urls.yaml
var knownURLs []byte

// ErrInvalidEntry is returned when a table entry has an empty URL or a
// confidence outside [0, 1].
var ErrInvalidEntry = errors.New("invalid reference entry")

// Entry is a known verdict.
type Entry struct {
	URL        string  `yaml:"url"`
	IsPhishing bool    `yaml:"is_phishing"`
	Confidence float64 `yaml:"confidence"`
}

// Table maps an exact URL to its known verdict. A Table is read-only once
// built and safe for concurrent lookups.
type Table struct {
	entries map[string]Entry
}

type file struct {
	Entries []Entry `yaml:"entries"`
}

// Default returns the built-in table.
func Default() *Table {
	t, err := parse(knownURLs)
	if err != nil {
		panic(fmt.Sprintf("reference: embedded table is invalid: %v", err))
	}
	return t
}

// Empty returns a table with no entries.
func Empty() *Table {
	return &Table{entries: map[string]Entry{}}
}

// Load reads a YAML table of the form:
//
//	entries:
//	  - url: "https://example.com/"
//	    is_phishing: false
//	    confidence: 0.9
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference table: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse reference table: %w", err)
	}
	return New(f.Entries...)
}

// New builds a table from entries. A later entry for the same URL replaces
// an earlier one.
func New(entries ...Entry) (*Table, error) {
	t := Empty()
	for _, e := range entries {
		if err := validate(e); err != nil {
			return nil, err
		}
		t.entries[e.URL] = e
	}
	return t, nil
}

func validate(e Entry) error {
	if e.URL == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidEntry)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: %s has confidence %v", ErrInvalidEntry, e.URL, e.Confidence)
	}
	return nil
}

// Merge returns a new table holding t's entries overridden by other's.
func (t *Table) Merge(other *Table) *Table {
	out := &Table{entries: maps.Clone(t.entries)}
	if other != nil {
		maps.Copy(out.entries, other.entries)
	}
	return out
}

// Lookup returns the entry for url. Matching is exact: callers pass the
// normalized URL.
func (t *Table) Lookup(url string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[url]
	return e, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns all entries sorted by URL.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.entries))
	for _, u := range slices.Sorted(maps.Keys(t.entries)) {
		out = append(out, t.entries[u])
	}
	return out
}
