package report

import (
	"strings"
	"time"

	"github.com/nao1215/phishguard/internal/features"
	"github.com/nao1215/phishguard/internal/pipeline"
	"github.com/nao1215/phishguard/internal/verdict"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Failure records a URL that could not be scanned at all.
type Failure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Summary counts the verdicts of a run.
type Summary struct {
	Total      int `json:"total"`
	Phishing   int `json:"phishing"`
	Legitimate int `json:"legitimate"`
	Failed     int `json:"failed"`

	// Counts by scored risk level. Fallback verdicts are Unknown.
	High    int `json:"high"`
	Medium  int `json:"medium"`
	Low     int `json:"low"`
	Unknown int `json:"unknown"`

	ReferenceHits int `json:"reference_hits"`
}

// Summarize counts verdicts. failed is the number of URLs without a verdict.
func Summarize(verdicts []*verdict.Verdict, failed int) Summary {
	s := Summary{Total: len(verdicts) + failed, Failed: failed}
	for _, v := range verdicts {
		switch v.RiskLevel {
		case verdict.RiskHigh:
			s.High++
		case verdict.RiskMedium:
			s.Medium++
		case verdict.RiskLow:
			s.Low++
		default:
			s.Unknown++
		}

		switch {
		case v.Source == verdict.SourceFallback:
		case v.IsPhishing:
			s.Phishing++
		default:
			s.Legitimate++
		}

		if v.Source == verdict.SourceReference {
			s.ReferenceHits++
		}
	}
	return s
}

// Count returns the number of verdicts at level.
func (s Summary) Count(level verdict.RiskLevel) int {
	switch level {
	case verdict.RiskHigh:
		return s.High
	case verdict.RiskMedium:
		return s.Medium
	case verdict.RiskLow:
		return s.Low
	default:
		return s.Unknown
	}
}

// Scanned returns the number of URLs that produced a verdict.
func (s Summary) Scanned() int {
	return s.Total - s.Failed
}

// Report is the output of one scan run.
type Report struct {
	RunID       string             `json:"run_id,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	Verdicts    []*verdict.Verdict `json:"verdicts"`
	Failures    []Failure          `json:"failures,omitempty"`
	Summary     Summary            `json:"summary"`
}

// New builds a Report and its Summary.
func New(runID string, verdicts []*verdict.Verdict, failures []Failure) *Report {
	if verdicts == nil {
		verdicts = []*verdict.Verdict{}
	}
	return &Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Verdicts:    verdicts,
		Failures:    failures,
		Summary:     Summarize(verdicts, len(failures)),
	}
}

// FromBatch builds a Report from a finished batch.
func FromBatch(b *pipeline.Batch) *Report {
	var failures []Failure
	for _, r := range b.Results {
		if r.Error != nil {
			failures = append(failures, Failure{URL: r.URL, Error: r.Error.Error()})
		}
	}
	return New(b.RunID, b.Verdicts(), failures)
}

// verdictLabel is the headline word for a verdict.
func verdictLabel(v *verdict.Verdict) string {
	switch {
	case v.Source == verdict.SourceFallback:
		return "UNKNOWN"
	case v.IsPhishing:
		return "PHISHING"
	default:
		return "LEGITIMATE"
	}
}

var titleCaser = cases.Title(language.English)

// FeatureLabel turns a feature name such as "num_subdomains" into
// "Num Subdomains".
func FeatureLabel(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// domainOf returns the registrable domain of url, or "-".
func domainOf(url string) string {
	if d := features.RegisteredDomain(url); d != "" {
		return d
	}
	return "-"
}

// truncateString truncates s to maxLen code points with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
