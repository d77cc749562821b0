package extract

import (
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/casetally/internal/model"
)

// ExtractRecords reads every row strictly below headerRow into a RawRecord
// tagged with yearLabel. Unmapped fields and cells beyond the end of a short
// row are left empty.
func ExtractRecords(grid [][]string, headerRow int, schema model.SchemaMap, yearLabel int) []model.RawRecord {
	if headerRow+1 >= len(grid) {
		return make([]model.RawRecord, 0)
	}

	width := schema.MaxIndex() + 1
	rows := grid[headerRow+1:]
	records := make([]model.RawRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) < width {
			row = append(slices.Clone(row), make([]string, width-len(row))...)
		}
		records = append(records, model.RawRecord{
			SourceYearLabel: yearLabel,
			DateText:        cell(row, schema, model.FieldDate),
			AgeText:         cell(row, schema, model.FieldAge),
			ClosedText:      cell(row, schema, model.FieldClosed),
			CameraText:      cell(row, schema, model.FieldCamera),
			NotesText:       cell(row, schema, model.FieldNotes),
		})
	}
	return records
}

func cell(row []string, schema model.SchemaMap, f model.Field) string {
	idx, ok := schema.Lookup(f)
	if !ok || idx < 0 {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Table is the result of extracting one source document.
type Table struct {
	// HeaderRow is the grid index of the header row.
	HeaderRow int

	// Columns are the de-duplicated header names.
	Columns []string

	// Schema maps canonical fields to column indexes.
	Schema model.SchemaMap

	// Records are the data rows below the header, in table order.
	Records []model.RawRecord
}

// Extract locates the data table in doc and extracts its records.
// It returns ErrNoTable, ErrEmptyGrid or ErrNoDateColumn when the document
// cannot contribute records.
func Extract(doc *html.Node, yearLabel int) (*Table, error) {
	tableNode, ok := LocateTable(doc)
	if !ok {
		return nil, ErrNoTable
	}

	grid := Grid(tableNode)
	headerRow, schema, err := MapSchema(grid)
	if err != nil {
		return nil, err
	}

	return &Table{
		HeaderRow: headerRow,
		Columns:   ColumnNames(grid[headerRow]),
		Schema:    schema,
		Records:   ExtractRecords(grid, headerRow, schema, yearLabel),
	}, nil
}
