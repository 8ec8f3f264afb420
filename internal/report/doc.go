// Package report renders scan verdicts.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown documents with tables and a risk chart
//
// A Report bundles the verdicts of one run with its Summary. Writers
// implement the Writer interface, allowing them to be used interchangeably
// and composed for multi-format output.
package report
