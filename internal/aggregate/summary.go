package aggregate

import (
	"slices"

	"github.com/nao1215/casetally/internal/model"
)

// YearTotal is the number of records attributed to one year.
type YearTotal struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// Summary bundles every aggregate view of one run.
type Summary struct {
	Years      []int       `json:"years"`
	Total      int         `json:"total"`
	YearTotals []YearTotal `json:"year_totals"`
	Monthly    Pivot       `json:"monthly"`
	Methods    Pivot       `json:"methods"`
	CaseStatus Pivot       `json:"case_status"`
	Camera     Pivot       `json:"camera"`

	// Age is nil when no record has a valid age.
	Age *AgeStats `json:"age,omitempty"`
}

// Summarize computes every view for records over years. When years is empty
// the distinct years of records are used in ascending order.
func Summarize(records []model.ReconciledRecord, years []int) Summary {
	if len(years) == 0 {
		years = distinctYears(records)
	}

	s := Summary{
		Years:      slices.Clone(years),
		YearTotals: make([]YearTotal, 0, len(years)),
		Monthly:    MonthlyPivot(records, years),
		Methods:    MethodPivot(records, years),
		CaseStatus: CaseStatusPivot(records, years),
		Camera:     CameraPivot(records, years),
	}

	for _, y := range years {
		count := 0
		for _, r := range records {
			if r.Year == y {
				count++
			}
		}
		s.YearTotals = append(s.YearTotals, YearTotal{Year: y, Count: count})
		s.Total += count
	}

	if stats, ok := AgeStatistics(records); ok {
		s.Age = &stats
	}
	return s
}

func distinctYears(records []model.ReconciledRecord) []int {
	years := make([]int, 0)
	for _, r := range records {
		if !slices.Contains(years, r.Year) {
			years = append(years, r.Year)
		}
	}
	slices.Sort(years)
	return years
}
