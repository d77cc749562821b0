package aggregate

import (
	"slices"
	"time"

	"github.com/nao1215/casetally/internal/model"
)

// PivotRow is one key of a pivot with a count per year column.
type PivotRow struct {
	Label  string `json:"label"`
	Counts []int  `json:"counts"`
}

// Total returns the row's sum across years.
func (r PivotRow) Total() int {
	total := 0
	for _, c := range r.Counts {
		total += c
	}
	return total
}

// Pivot is a table of counts with one row per key and one column per year.
// Counts[i] of every row belongs to Years[i].
type Pivot struct {
	Years []int      `json:"years"`
	Rows  []PivotRow `json:"rows"`
}

// ColumnTotal returns the sum of the column for year, or 0 if absent.
func (p Pivot) ColumnTotal(year int) int {
	col := slices.Index(p.Years, year)
	if col < 0 {
		return 0
	}
	total := 0
	for _, row := range p.Rows {
		total += row.Counts[col]
	}
	return total
}

// Total returns the sum of every cell.
func (p Pivot) Total() int {
	total := 0
	for _, row := range p.Rows {
		total += row.Total()
	}
	return total
}

// Count returns the cell for label and year, or 0 if absent.
func (p Pivot) Count(label string, year int) int {
	col := slices.Index(p.Years, year)
	if col < 0 {
		return 0
	}
	for _, row := range p.Rows {
		if row.Label == label {
			return row.Counts[col]
		}
	}
	return 0
}

// pivotBy builds a pivot with rows in keys order. Records whose year is not a
// column are ignored.
func pivotBy[K comparable](records []model.ReconciledRecord, years []int, keys []K, keyOf func(model.ReconciledRecord) K, label func(K) string) Pivot {
	rowIdx := make(map[K]int, len(keys))
	p := Pivot{
		Years: slices.Clone(years),
		Rows:  make([]PivotRow, len(keys)),
	}
	for i, k := range keys {
		rowIdx[k] = i
		p.Rows[i] = PivotRow{Label: label(k), Counts: make([]int, len(years))}
	}

	for _, r := range records {
		col := slices.Index(years, r.Year)
		if col < 0 {
			continue
		}
		row, ok := rowIdx[keyOf(r)]
		if !ok {
			continue
		}
		p.Rows[row].Counts[col]++
	}
	return p
}

// MonthlyPivot returns monthly counts with a row for every month that has a
// record in any year, in calendar order, and a zero-filled column per year.
func MonthlyPivot(records []model.ReconciledRecord, years []int) Pivot {
	present := make(map[time.Month]bool)
	for _, r := range records {
		if slices.Contains(years, r.Year) {
			present[r.Month] = true
		}
	}
	months := make([]time.Month, 0, len(present))
	for m := time.January; m <= time.December; m++ {
		if present[m] {
			months = append(months, m)
		}
	}

	return pivotBy(records, years, months,
		func(r model.ReconciledRecord) time.Month { return r.Month },
		MonthLabel,
	)
}

// MethodPivot returns counts per method, one row for every method.
func MethodPivot(records []model.ReconciledRecord, years []int) Pivot {
	return pivotBy(records, years, model.Methods(),
		func(r model.ReconciledRecord) model.Method { return r.Method },
		model.Method.String,
	)
}

// CaseStatusPivot returns counts per case status, one row for every status.
func CaseStatusPivot(records []model.ReconciledRecord, years []int) Pivot {
	return pivotBy(records, years, model.CaseStatuses(),
		func(r model.ReconciledRecord) model.CaseStatus { return r.CaseStatus },
		model.CaseStatus.String,
	)
}

// CameraPivot returns counts per camera status, one row for every status.
func CameraPivot(records []model.ReconciledRecord, years []int) Pivot {
	return pivotBy(records, years, model.CameraStatuses(),
		func(r model.ReconciledRecord) model.CameraStatus { return r.CameraStatus },
		model.CameraStatus.String,
	)
}
