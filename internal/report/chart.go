package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/casetally/internal/aggregate"
	"github.com/nao1215/casetally/internal/model"
)

// Sheet names used by ChartWriter.
const (
	monthlySheet = "Monthly"
	methodSheet  = "Method"
)

// ChartWriter writes an .xlsx workbook with the monthly counts table and a
// clustered column chart: months on the category axis, one series per year.
// A second sheet holds the method table.
type ChartWriter struct {
	baseWriter

	// title is the chart title.
	title string
}

// ChartWriterOption configures a ChartWriter.
type ChartWriterOption func(*ChartWriter)

// WithChartTitle sets the chart title.
func WithChartTitle(title string) ChartWriterOption {
	return func(w *ChartWriter) {
		w.title = title
	}
}

// NewChartWriter creates a ChartWriter that outputs workbook bytes to output.
func NewChartWriter(output io.Writer, opts ...ChartWriterOption) *ChartWriter {
	w := &ChartWriter{
		baseWriter: newBaseWriter(output),
		title:      "Incidents per Month",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the workbook for run.
func (w *ChartWriter) Write(run *model.Run) (int, error) {
	r := NewReport(run)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", monthlySheet); err != nil {
		return 0, err
	}
	if err := writePivotSheet(f, monthlySheet, "Month", r.Summary.Monthly); err != nil {
		return 0, err
	}
	if len(r.Summary.Monthly.Rows) > 0 {
		if err := w.addMonthlyChart(f, r.Summary.Monthly); err != nil {
			return 0, err
		}
	}

	if _, err := f.NewSheet(methodSheet); err != nil {
		return 0, err
	}
	if err := writePivotSheet(f, methodSheet, "Method", r.Summary.Methods); err != nil {
		return 0, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return 0, fmt.Errorf("failed to render workbook: %w", err)
	}
	return w.output.Write(buf.Bytes())
}

// writePivotSheet writes p with a header row at row 1 and one row per key.
func writePivotSheet(f *excelize.File, sheet, key string, p aggregate.Pivot) error {
	header := []any{key}
	for _, y := range p.Years {
		header = append(header, strconv.Itoa(y))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range p.Rows {
		values := []any{row.Label}
		for _, c := range row.Counts {
			values = append(values, c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// addMonthlyChart adds the clustered column chart beside the monthly table.
func (w *ChartWriter) addMonthlyChart(f *excelize.File, p aggregate.Pivot) error {
	lastRow := len(p.Rows) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", monthlySheet, lastRow)

	series := make([]excelize.ChartSeries, 0, len(p.Years))
	for i := range p.Years {
		col, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", monthlySheet, col),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", monthlySheet, col, col, lastRow),
		})
	}

	anchor, err := excelize.ColumnNumberToName(len(p.Years) + 3)
	if err != nil {
		return err
	}

	return f.AddChart(monthlySheet, anchor+"1", &excelize.Chart{
		Type:   excelize.Col,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: w.title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: "Month"}},
		},
		YAxis: excelize.ChartAxis{
			MajorGridLines: true,
			Title:          []excelize.RichTextRun{{Text: "Count"}},
		},
		Dimension: excelize.ChartDimension{Width: 640, Height: 360},
	})
}
