// Package corpus supplies labeled training samples to the classifier.
//
// A Provider is anything that can produce samples: the embedded seed
// corpus, a slice of labeled URLs, or the corpus database. Providers can be
// chained with Multi.
package corpus

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/phishguard/internal/classifier"
	"github.com/nao1215/phishguard/internal/features"
	"github.com/nao1215/phishguard/internal/reference"
)

//go:embed seed.yaml
var seedYAML []byte

// Label sources recorded with each labeled URL.
const (
	SourceSeed      = "seed"
	SourceAllowlist = "allowlist"
	SourceReference = "reference"
	SourceUser      = "user"
)

// Provider produces training samples.
type Provider interface {
	Samples(ctx context.Context) ([]classifier.Sample, error)
}

// LabeledURL is a URL with a known label.
type LabeledURL struct {
	URL      string `yaml:"url"`
	Phishing bool   `yaml:"phishing"`
	Source   string `yaml:"source,omitempty"`
}

// Sample extracts the features of the normalized URL.
func (l LabeledURL) Sample() classifier.Sample {
	return classifier.Sample{
		Features: features.Extract(features.NormalizeURL(l.URL)),
		Phishing: l.Phishing,
	}
}

type urlProvider []LabeledURL

// FromURLs returns a provider that extracts features from each URL.
func FromURLs(urls []LabeledURL) Provider {
	return urlProvider(slices.Clone(urls))
}

func (p urlProvider) Samples(ctx context.Context) ([]classifier.Sample, error) {
	out := make([]classifier.Sample, 0, len(p))
	for _, u := range p {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, u.Sample())
	}
	return out, nil
}

type multi []Provider

// Multi concatenates the samples of several providers in order.
func Multi(providers ...Provider) Provider {
	return multi(providers)
}

func (m multi) Samples(ctx context.Context) ([]classifier.Sample, error) {
	var out []classifier.Sample
	for _, p := range m {
		s, err := p.Samples(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, s...)
	}
	return out, nil
}

// SeedURLs returns the built-in labeled URLs: the hand-labeled seed list,
// every allowlisted domain as a legitimate https URL, and the known-verdict
// table. Duplicates keep their first label. The order is deterministic.
func SeedURLs() []LabeledURL {
	hand, err := ParseYAML(bytes.NewReader(seedYAML))
	if err != nil {
		panic(fmt.Sprintf("corpus: embedded seed is invalid: %v", err))
	}

	var all []LabeledURL
	for _, u := range hand {
		u.Source = SourceSeed
		all = append(all, u)
	}

	domains := features.CommonDomains()
	slices.Sort(domains)
	for _, d := range domains {
		all = append(all,
			LabeledURL{URL: "https://" + d, Phishing: false, Source: SourceAllowlist},
			LabeledURL{URL: "https://" + d + "/", Phishing: false, Source: SourceAllowlist},
		)
	}

	for _, e := range reference.Default().Entries() {
		all = append(all, LabeledURL{URL: e.URL, Phishing: e.IsPhishing, Source: SourceReference})
	}

	return dedupe(all)
}

// Seed returns a provider over SeedURLs.
func Seed() Provider {
	return FromURLs(SeedURLs())
}

func dedupe(urls []LabeledURL) []LabeledURL {
	seen := make(map[string]struct{}, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if _, ok := seen[u.URL]; ok {
			continue
		}
		seen[u.URL] = struct{}{}
		out = append(out, u)
	}
	return out
}

// ParseYAML reads labeled URLs of the form:
//
//	urls:
//	  - {url: "http://example.tk/login", phishing: true}
func ParseYAML(r io.Reader) ([]LabeledURL, error) {
	var doc struct {
		URLs []LabeledURL `yaml:"urls"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse labeled urls: %w", err)
	}
	for i, u := range doc.URLs {
		if strings.TrimSpace(u.URL) == "" {
			return nil, fmt.Errorf("labeled url %d has no url", i)
		}
	}
	return doc.URLs, nil
}

// ParseList reads one URL per line, skipping blank lines and lines starting
// with '#', and labels each with phishing.
func ParseList(r io.Reader, phishing bool) ([]LabeledURL, error) {
	var out []LabeledURL
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, LabeledURL{URL: line, Phishing: phishing, Source: SourceUser})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}
	return out, nil
}
