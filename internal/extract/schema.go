package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/casetally/internal/model"
)

// headerMarker identifies the header row: the first row with a cell
// containing it, compared case-insensitively.
const headerMarker = "date"

// dateFallbackColumn is used as the date column when no header names one.
const dateFallbackColumn = 1

// Rule describes how a canonical field is recognised from a column name.
type Rule struct {
	// Field is the canonical field the rule resolves.
	Field model.Field

	// Patterns are lower-case needles. A column matches when its lower-cased
	// name contains any of them, or equals one of them when Exact is set.
	Patterns []string

	// Exact requires the whole column name to equal a pattern.
	Exact bool
}

// Matches reports whether the column name satisfies the rule.
func (r Rule) Matches(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, p := range r.Patterns {
		if r.Exact {
			if lower == p {
				return true
			}
			continue
		}
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// DefaultRules returns the column rules in resolution order.
func DefaultRules() []Rule {
	return []Rule{
		{Field: model.FieldDate, Patterns: []string{"date", "died"}},
		{Field: model.FieldAge, Patterns: []string{"age"}, Exact: true},
		{Field: model.FieldClosed, Patterns: []string{"closed"}},
		{Field: model.FieldCamera, Patterns: []string{"camera", "cctv", "surveillance"}},
		{Field: model.FieldNotes, Patterns: []string{"notes"}},
	}
}

// ResolveColumn returns the index of the first name matching rule.
func ResolveColumn(names []string, rule Rule) (int, bool) {
	for i, name := range names {
		if rule.Matches(name) {
			return i, true
		}
	}
	return -1, false
}

// FindHeaderRow returns the index of the first row with a cell containing
// "date" (any case), or 0 when no row qualifies.
func FindHeaderRow(grid [][]string) int {
	for i, row := range grid {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), headerMarker) {
				return i
			}
		}
	}
	return 0
}

// ColumnNames turns a header row into unique column names.
// Empty cells become positional placeholders (V1, V2, ...) and repeated names
// get an occurrence suffix (Notes, Notes.1, Notes.2).
func ColumnNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = "V" + strconv.Itoa(i+1)
		}
		if used[name] {
			base := name
			for k := suffix[base] + 1; ; k++ {
				candidate := fmt.Sprintf("%s.%d", base, k)
				if !used[candidate] {
					suffix[base] = k
					name = candidate
					break
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// MapSchema finds the header row of grid and resolves every canonical field
// to a column using DefaultRules.
func MapSchema(grid [][]string) (int, model.SchemaMap, error) {
	return MapSchemaWithRules(grid, DefaultRules())
}

// MapSchemaWithRules is MapSchema with a caller-supplied rule list.
// The date field falls back to the second column when no rule matches it;
// other fields are simply left out of the map.
func MapSchemaWithRules(grid [][]string, rules []Rule) (int, model.SchemaMap, error) {
	if len(grid) == 0 {
		return 0, nil, ErrEmptyGrid
	}

	headerRow := FindHeaderRow(grid)
	names := ColumnNames(grid[headerRow])

	schema := make(model.SchemaMap, len(rules))
	for _, rule := range rules {
		if _, done := schema[rule.Field]; done {
			continue
		}
		if idx, ok := ResolveColumn(names, rule); ok {
			schema[rule.Field] = idx
		}
	}

	if _, ok := schema[model.FieldDate]; !ok {
		if len(names) <= dateFallbackColumn {
			return headerRow, schema, fmt.Errorf("%w: header has %d columns", ErrNoDateColumn, len(names))
		}
		schema[model.FieldDate] = dateFallbackColumn
	}

	return headerRow, schema, nil
}
