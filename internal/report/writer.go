package report

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/casetally/internal/aggregate"
	"github.com/nao1215/casetally/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the run to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// It stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Report is the presentable form of a run.
type Report struct {
	Run     *model.Run
	Summary aggregate.Summary
}

// NewReport summarises run over its configured years.
func NewReport(run *model.Run) *Report {
	return &Report{
		Run:     run,
		Summary: aggregate.Summarize(run.Records, run.Years),
	}
}

// StatusText returns the overall run status for headers.
func (r *Report) StatusText() string {
	switch {
	case r.Run.TimedOut:
		return "Timed Out (partial results)"
	case r.Run.Error != "":
		return "Error - " + r.Run.Error
	case len(r.Run.FailedSources()) > 0:
		return "Complete with unavailable sources"
	default:
		return "Complete"
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusLabel turns a snake_case status such as "no_date_column" into
// "No Date Column".
func statusLabel(s model.SourceStatus) string {
	return titleLabel(s.String())
}

// dropLabel turns a drop reason into a display label.
func dropLabel(r model.DropReason) string {
	return titleLabel(r.String())
}

// titleLabel title-cases a snake_case identifier. Casers are stateful, so a
// new one is built per call.
func titleLabel(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// truncateString cuts s to at most maxLen runes, ending in "..." when cut.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}
