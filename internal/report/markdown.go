package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/phishguard/internal/features"
	"github.com/nao1215/phishguard/internal/verdict"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing. Batches get a results table, an alert and a mermaid pie chart of
// risk levels.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report.Summary)
	w.writeResults(md, report.Verdicts)
	w.writeFailures(md, report.Failures)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteVerdict outputs a single verdict in Markdown format.
func (w *MarkdownWriter) WriteVerdict(v *verdict.Verdict) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("PhishGuard Verdict")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + v.URL + "`"},
			{"Verdict", verdictBadge(v)},
			{"Confidence", fmt.Sprintf("%.1f%% (%s)", v.ConfidencePercentage(), v.DisplayRiskLevel())},
			{"Risk Score", fmt.Sprintf("%.2f", v.RiskScore)},
			{"Risk Level", v.RiskLevel.String()},
			{"Domain", domainOf(v.URL)},
			{"Source", string(v.Source)},
			{"Scanned At", v.ScannedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")
	w.writeVerdictAlert(md, v)

	if v.Features != nil {
		md.H2("Features")
		md.PlainText("")
		w.writeFeatureTable(md, *v.Features)
	}
	if v.TextContent != "" && v.TextContent != v.URL {
		md.Details("Page text", v.TextContent)
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *Report) {
	md.H1("PhishGuard Report")
	md.PlainText("")

	rows := [][]string{
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"URLs", strconv.Itoa(report.Summary.Total)},
	}
	if report.RunID != "" {
		rows = append([][]string{{"Run ID", "`" + report.RunID + "`"}}, rows...)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the risk summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s Summary) {
	md.H2("Risk Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Risk Level", "Count"},
		Rows: [][]string{
			{"🔴 High", strconv.Itoa(s.High)},
			{"🟡 Medium", strconv.Itoa(s.Medium)},
			{"🟢 Low", strconv.Itoa(s.Low)},
			{"⚪ Unknown", strconv.Itoa(s.Unknown)},
			{"**Phishing**", "**" + strconv.Itoa(s.Phishing) + "**"},
			{"**Legitimate**", "**" + strconv.Itoa(s.Legitimate) + "**"},
		},
	})
	md.PlainText("")

	if s.Scanned() > 1 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of the risk level distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Risk Level Distribution"),
		piechart.WithShowData(true),
	)

	for _, level := range []verdict.RiskLevel{verdict.RiskHigh, verdict.RiskMedium, verdict.RiskLow, verdict.RiskUnknown} {
		if n := s.Count(level); n > 0 {
			chart.LabelAndIntValue(level.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the worst verdicts of the run.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s Summary) {
	switch {
	case s.High > 0:
		md.Cautionf("%d URL(s) are high risk and are likely phishing.", s.High)
	case s.Medium > 0:
		md.Warningf("%d URL(s) are medium risk and deserve caution.", s.Medium)
	case s.Failed > 0 || s.Unknown > 0:
		md.Importantf("%d URL(s) could not be classified.", s.Failed+s.Unknown)
	case s.Scanned() > 0:
		md.Tip("All scanned URLs are low risk.")
	default:
		md.Note("No URLs were scanned.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeVerdictAlert(md *markdown.Markdown, v *verdict.Verdict) {
	switch v.RiskLevel {
	case verdict.RiskHigh:
		md.Caution("This URL is likely phishing. Do not enter credentials.")
	case verdict.RiskMedium:
		md.Warning("This URL shows signs of phishing. Proceed with caution.")
	case verdict.RiskLow:
		md.Tip("This URL looks legitimate.")
	default:
		md.Important("This URL could not be classified.")
	}
	md.PlainText("")
}

// writeResults writes a table of all verdicts.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, verdicts []*verdict.Verdict) {
	md.H2("Results")
	md.PlainText("")

	if len(verdicts) == 0 {
		md.PlainText("No URLs scanned.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(verdicts))
	for i, v := range verdicts {
		rows[i] = []string{
			"`" + truncateString(v.URL, 60) + "`",
			verdictBadge(v),
			fmt.Sprintf("%.1f%%", v.ConfidencePercentage()),
			fmt.Sprintf("%.2f", v.RiskScore),
			v.RiskLevel.String(),
			domainOf(v.URL),
			string(v.Source),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Verdict", "Confidence", "Risk Score", "Risk Level", "Domain", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFeatureTable writes the non-zero features of a vector.
func (w *MarkdownWriter) writeFeatureTable(md *markdown.Markdown, vec features.Vector) {
	var rows [][]string
	for _, f := range features.Fields() {
		value := vec.Get(f)
		if value == 0 {
			continue
		}
		rows = append(rows, []string{FeatureLabel(f.String()), formatFeature(f, value)})
	}
	if len(rows) == 0 {
		md.PlainText("All features are zero.")
		md.PlainText("")
		return
	}
	md.Table(markdown.TableSet{
		Header: []string{"Feature", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures lists URLs that produced no verdict.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, failures []Failure) {
	if len(failures) == 0 {
		return
	}

	md.H2("Failed")
	md.PlainText("")
	items := make([]string, len(failures))
	for i, f := range failures {
		items[i] = fmt.Sprintf("`%s`: %s", f.URL, f.Error)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [PhishGuard](https://github.com/nao1215/phishguard)*")
}

func verdictBadge(v *verdict.Verdict) string {
	label := strings.ToLower(verdictLabel(v))
	switch {
	case v.Source == verdict.SourceFallback:
		return "❔ " + label
	case v.IsPhishing:
		return "🚨 " + label
	default:
		return "✅ " + label
	}
}
