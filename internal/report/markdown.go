package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/casetally/internal/aggregate"
	"github.com/nao1215/casetally/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	r := NewReport(run)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, r)
	w.writeSources(md, r)
	w.writeRecords(md, r)
	w.writePivot(md, "Monthly Counts", "Month", r.Summary.Monthly)
	w.writePivot(md, "Method", "Method", r.Summary.Methods)
	w.writeMethodChart(md, r.Summary.Methods)
	w.writePivot(md, "Case Status", "Status", r.Summary.CaseStatus)
	w.writePivot(md, "Surveillance", "Camera", r.Summary.Camera)
	w.writeAges(md, r)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, r *Report) {
	md.H1("Casetally Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + r.Run.ID + "`"},
			{"Started", r.Run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Years", joinYears(r.Run.Years)},
			{"Status", r.StatusText()},
		},
	})
	md.PlainText("")
}

// writeSources writes the per-source table and an alert for failures.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, r *Report) {
	md.H2("Sources")
	md.PlainText("")

	rows := make([][]string, 0, len(r.Run.Sources))
	for _, src := range r.Run.Sources {
		hash := "-"
		if src.ContentHash != "" {
			hash = "`" + src.ContentHash[:min(len(src.ContentHash), 12)] + "`"
		}
		rows = append(rows, []string{
			strconv.Itoa(src.Year),
			src.URL,
			statusLabel(src.Status),
			strconv.Itoa(src.RawCount),
			hash,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Year", "URL", "Status", "Rows", "SHA3"},
		Rows:   rows,
	})
	md.PlainText("")

	failed := r.Run.FailedSources()
	switch {
	case len(failed) == len(r.Run.Sources) && len(failed) > 0:
		md.Cautionf("No source could be read. %d source(s) failed.", len(failed))
	case len(failed) > 0:
		md.Warningf("%d source(s) contributed no records; counts cover the remaining sources only.", len(failed))
	}
	for _, src := range failed {
		md.Details(strconv.Itoa(src.Year)+" "+statusLabel(src.Status), src.Error)
	}
	md.PlainText("")
}

// writeRecords writes totals and drop accounting.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, r *Report) {
	md.H2("Records")
	md.PlainText("")

	rows := [][]string{
		{"Raw rows", strconv.Itoa(r.Run.RawCount())},
		{"**Reconciled**", "**" + strconv.Itoa(r.Summary.Total) + "**"},
	}
	for _, yt := range r.Summary.YearTotals {
		rows = append(rows, []string{"Reconciled " + strconv.Itoa(yt.Year), strconv.Itoa(yt.Count)})
	}
	for _, reason := range model.DropReasons() {
		rows = append(rows, []string{"Dropped: " + dropLabel(reason), strconv.Itoa(r.Run.Dropped.Count(reason))})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if r.Summary.Total == 0 {
		md.Note("No records were reconciled. Tables below are empty.")
		md.PlainText("")
	}
}

// writePivot writes a pivot as a table with a year column each.
func (w *MarkdownWriter) writePivot(md *markdown.Markdown, title, key string, p aggregate.Pivot) {
	md.H2(title)
	md.PlainText("")

	if len(p.Rows) == 0 {
		md.PlainText("No records.")
		md.PlainText("")
		return
	}

	header := []string{key}
	for _, y := range p.Years {
		header = append(header, strconv.Itoa(y))
	}
	header = append(header, "Total")

	rows := make([][]string, 0, len(p.Rows)+1)
	for _, row := range p.Rows {
		cells := []string{row.Label}
		for _, c := range row.Counts {
			cells = append(cells, strconv.Itoa(c))
		}
		rows = append(rows, append(cells, strconv.Itoa(row.Total())))
	}
	totals := []string{"**Total**"}
	for _, y := range p.Years {
		totals = append(totals, strconv.Itoa(p.ColumnTotal(y)))
	}
	rows = append(rows, append(totals, strconv.Itoa(p.Total())))

	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeMethodChart writes a mermaid pie chart of methods across all years.
func (w *MarkdownWriter) writeMethodChart(md *markdown.Markdown, p aggregate.Pivot) {
	if p.Total() == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Method Distribution"),
		piechart.WithShowData(true),
	)
	for _, row := range p.Rows {
		if total := row.Total(); total > 0 {
			chart.LabelAndIntValue(row.Label, uint64(total))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAges writes age statistics.
func (w *MarkdownWriter) writeAges(md *markdown.Markdown, r *Report) {
	md.H2("Age")
	md.PlainText("")

	age := r.Summary.Age
	if age == nil {
		md.Tip("No records with an age between 1 and 100.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Count", "Min", "Max", "Mean", "Median"},
		Rows: [][]string{{
			strconv.Itoa(age.Count),
			strconv.Itoa(age.Min),
			strconv.Itoa(age.Max),
			strconv.FormatFloat(age.Mean, 'f', 1, 64),
			strconv.FormatFloat(age.Median, 'f', 1, 64),
		}},
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [casetally](https://github.com/nao1215/casetally)*")
}
