// Package report renders a finished run for people and tools.
//
// Writers:
//   - SimpleWriter: console tables (tablewriter) for terminal display
//   - MarkdownWriter: a Markdown document with a mermaid pie chart of methods
//   - JSONWriter: the run and its summary as JSON for tool integration
//   - ChartWriter: an .xlsx workbook holding the monthly table and a
//     clustered column chart with one series per year
//
// All writers present the same Report: the run plus its aggregate summary.
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
