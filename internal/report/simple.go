package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/phishguard/internal/features"
	"github.com/nao1215/phishguard/internal/verdict"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// It uses plain ASCII formatting so the output can be piped to files or
// other tools unchanged.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether zero-valued features are listed in
	// verbose output and whether empty sections are shown.
	showEmpty bool

	// verbose adds the feature vector and page text to each verdict.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections and
// zero-valued features.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report.Summary)
	w.writeResults(&sb, report)
	w.writeFailures(&sb, report.Failures)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteVerdict outputs a single verdict.
func (w *SimpleWriter) WriteVerdict(v *verdict.Verdict) (int, error) {
	var sb strings.Builder
	w.writeVerdict(&sb, v)
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PHISHGUARD REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if report.RunID != "" {
		fmt.Fprintf(sb, "Run ID:     %s\n", report.RunID)
	}
	fmt.Fprintf(sb, "Generated:  %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "URLs:       %d\n", report.Summary.Total)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeSummary writes verdict and risk level counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, s Summary) {
	w.writeSection(sb, "SUMMARY")

	fmt.Fprintf(sb, "  PHISHING:   %d\n", s.Phishing)
	fmt.Fprintf(sb, "  LEGITIMATE: %d\n", s.Legitimate)
	if s.Failed > 0 || w.showEmpty {
		fmt.Fprintf(sb, "  FAILED:     %d\n", s.Failed)
	}
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  HIGH:       %d\n", s.High)
	fmt.Fprintf(sb, "  MEDIUM:     %d\n", s.Medium)
	fmt.Fprintf(sb, "  LOW:        %d\n", s.Low)
	fmt.Fprintf(sb, "  UNKNOWN:    %d\n", s.Unknown)
	sb.WriteString("\n")
}

// writeResults writes one block per verdict.
func (w *SimpleWriter) writeResults(sb *strings.Builder, report *Report) {
	if len(report.Verdicts) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "RESULTS")

	if len(report.Verdicts) == 0 {
		sb.WriteString("  No URLs scanned\n\n")
		return
	}
	for _, v := range report.Verdicts {
		w.writeVerdict(sb, v)
	}
}

func (w *SimpleWriter) writeVerdict(sb *strings.Builder, v *verdict.Verdict) {
	fmt.Fprintf(sb, "[%s] %s\n", riskIndicator(v.RiskLevel), v.URL)
	fmt.Fprintf(sb, "  Verdict:     %s\n", verdictLabel(v))
	fmt.Fprintf(sb, "  Confidence:  %.1f%% (%s)\n", v.ConfidencePercentage(), v.DisplayRiskLevel())
	fmt.Fprintf(sb, "  Risk:        %.2f (%s)\n", v.RiskScore, v.RiskLevel)
	fmt.Fprintf(sb, "  Domain:      %s\n", domainOf(v.URL))
	fmt.Fprintf(sb, "  Source:      %s\n", v.Source)

	if w.verbose {
		if v.TextContent != "" && v.TextContent != v.URL {
			fmt.Fprintf(sb, "  Text:        %s\n", truncateString(v.TextContent, 120))
		}
		if v.Features != nil {
			w.writeFeatures(sb, *v.Features)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFeatures(sb *strings.Builder, vec features.Vector) {
	sb.WriteString("  Features:\n")
	for _, f := range features.Fields() {
		value := vec.Get(f)
		if value == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "    %-26s %s\n", FeatureLabel(f.String()), formatFeature(f, value))
	}
}

// writeFailures lists URLs that produced no verdict.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, failures []Failure) {
	if len(failures) == 0 {
		return
	}

	w.writeSection(sb, "FAILED")
	for _, f := range failures {
		fmt.Fprintf(sb, "  * %s\n    Error: %s\n", f.URL, f.Error)
	}
	sb.WriteString("\n")
}

// riskIndicator returns a visual indicator for the risk level.
func riskIndicator(level verdict.RiskLevel) string {
	switch level {
	case verdict.RiskHigh:
		return "!!!"
	case verdict.RiskMedium:
		return "!"
	case verdict.RiskLow:
		return "ok"
	default:
		return "?"
	}
}

// formatFeature prints counts as integers and everything else with three
// decimals.
func formatFeature(f features.Field, value float64) string {
	switch f.Kind() {
	case features.KindCount:
		return fmt.Sprintf("%.0f", value)
	case features.KindFlag:
		if value != 0 {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprintf("%.3f", value)
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by PhishGuard\n")
	sb.WriteString("https://github.com/nao1215/phishguard\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
