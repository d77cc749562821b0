package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/nao1215/casetally/internal/aggregate"
	"github.com/nao1215/casetally/internal/model"
)

// SimpleWriter outputs human-readable console tables.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether pivots with no counts are still printed.
	showEmpty bool

	// verbose adds the per-source schema and drop breakdown.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
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

// Write outputs the run as console tables.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	r := NewReport(run)
	var sb strings.Builder

	w.writeHeader(&sb, r)
	if err := w.writeSources(&sb, r); err != nil {
		return 0, err
	}
	w.writeTotals(&sb, r)

	sections := []struct {
		title string
		key   string
		pivot aggregate.Pivot
	}{
		{"MONTHLY COUNTS", "Month", r.Summary.Monthly},
		{"METHOD", "Method", r.Summary.Methods},
		{"CASE STATUS", "Status", r.Summary.CaseStatus},
		{"SURVEILLANCE", "Camera", r.Summary.Camera},
	}
	for _, s := range sections {
		if err := w.writePivot(&sb, s.title, s.key, s.pivot); err != nil {
			return 0, err
		}
	}

	if err := w.writeAges(&sb, r); err != nil {
		return 0, err
	}

	return w.output.Write([]byte(sb.String()))
}

func sectionHeader(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func newTable(out io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(out,
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithFooterAutoFormat(tw.Off),
	)
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, r *Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         CASETALLY REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:   %s\n", r.Run.ID)
	fmt.Fprintf(sb, "Started:  %s\n", r.Run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Years:    %s\n", joinYears(r.Run.Years))
	fmt.Fprintf(sb, "Status:   %s\n\n", r.StatusText())
}

// writeSources writes one row per configured source.
func (w *SimpleWriter) writeSources(sb *strings.Builder, r *Report) error {
	sectionHeader(sb, "SOURCES")

	table := newTable(sb)
	table.Header("Year", "URL", "Status", "Rows", "Detail")
	for _, src := range r.Run.Sources {
		detail := src.Error
		if detail == "" && src.Status == model.SourceOK {
			detail = "header row " + strconv.Itoa(src.HeaderRow)
		}
		if err := table.Append([]string{
			strconv.Itoa(src.Year),
			truncateString(src.URL, 50),
			statusLabel(src.Status),
			strconv.Itoa(src.RawCount),
			truncateString(detail, 40),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	sb.WriteString("\n")

	if w.verbose {
		for _, src := range r.Run.Sources {
			if src.Status != model.SourceOK {
				continue
			}
			fmt.Fprintf(sb, "  %d columns: %s\n", src.Year, strings.Join(src.Columns, " | "))
			for _, f := range model.Fields() {
				if idx, ok := src.Schema.Lookup(f); ok {
					fmt.Fprintf(sb, "    %-7s -> column %d\n", f, idx)
				} else {
					fmt.Fprintf(sb, "    %-7s -> absent\n", f)
				}
			}
		}
		sb.WriteString("\n")
	}
	return nil
}

// writeTotals writes the record totals and drop accounting.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, r *Report) {
	sectionHeader(sb, "RECORDS")

	fmt.Fprintf(sb, "  Raw rows:    %d\n", r.Run.RawCount())
	fmt.Fprintf(sb, "  Reconciled:  %d\n", r.Summary.Total)
	for _, yt := range r.Summary.YearTotals {
		fmt.Fprintf(sb, "    %d:       %d\n", yt.Year, yt.Count)
	}
	fmt.Fprintf(sb, "  Dropped:     %d\n", r.Run.Dropped.Total())
	if w.verbose {
		for _, reason := range model.DropReasons() {
			fmt.Fprintf(sb, "    %-18s %d\n", dropLabel(reason)+":", r.Run.Dropped.Count(reason))
		}
	}
	sb.WriteString("\n")
}

// writePivot renders a pivot with a year column each and a total footer.
func (w *SimpleWriter) writePivot(sb *strings.Builder, title, key string, p aggregate.Pivot) error {
	if p.Total() == 0 && !w.showEmpty {
		return nil
	}
	sectionHeader(sb, title)

	if len(p.Rows) == 0 {
		sb.WriteString("  No records\n\n")
		return nil
	}

	header := []string{key}
	for _, y := range p.Years {
		header = append(header, strconv.Itoa(y))
	}
	header = append(header, "Total")

	table := newTable(sb)
	table.Header(header)
	for _, row := range p.Rows {
		cells := []string{row.Label}
		for _, c := range row.Counts {
			cells = append(cells, strconv.Itoa(c))
		}
		cells = append(cells, strconv.Itoa(row.Total()))
		if err := table.Append(cells); err != nil {
			return err
		}
	}

	footer := []string{"Total"}
	for _, y := range p.Years {
		footer = append(footer, strconv.Itoa(p.ColumnTotal(y)))
	}
	footer = append(footer, strconv.Itoa(p.Total()))
	table.Footer(footer)

	if err := table.Render(); err != nil {
		return err
	}
	sb.WriteString("\n")
	return nil
}

// writeAges writes age statistics, or a note when none are available.
func (w *SimpleWriter) writeAges(sb *strings.Builder, r *Report) error {
	sectionHeader(sb, "AGE")

	age := r.Summary.Age
	if age == nil {
		sb.WriteString("  No records with a valid age\n\n")
		return nil
	}

	table := newTable(sb)
	table.Header("Count", "Min", "Max", "Mean", "Median")
	if err := table.Append([]string{
		strconv.Itoa(age.Count),
		strconv.Itoa(age.Min),
		strconv.Itoa(age.Max),
		strconv.FormatFloat(age.Mean, 'f', 1, 64),
		strconv.FormatFloat(age.Median, 'f', 1, 64),
	}); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	sb.WriteString("\n")
	return nil
}

func joinYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ", ")
}
