package aggregate

import (
	"slices"
	"time"

	"github.com/nao1215/casetally/internal/model"
)

// MonthKey identifies a (year, month) bucket.
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MethodKey identifies a (year, method) bucket.
type MethodKey struct {
	Year   int
	Method model.Method
}

// MonthlyCounts counts records per (year, month). Every month present in any
// year gets a key for each of years, with 0 where that year has no records.
// Years found on records but missing from years are keyed as well.
func MonthlyCounts(records []model.ReconciledRecord, years []int) map[MonthKey]int {
	counts := make(map[MonthKey]int)
	allYears := slices.Clone(years)
	var months []time.Month
	for _, r := range records {
		if r.Month < time.January || r.Month > time.December {
			continue
		}
		counts[MonthKey{Year: r.Year, Month: r.Month}]++
		if !slices.Contains(months, r.Month) {
			months = append(months, r.Month)
		}
		if !slices.Contains(allYears, r.Year) {
			allYears = append(allYears, r.Year)
		}
	}

	for _, m := range months {
		for _, y := range allYears {
			key := MonthKey{Year: y, Month: m}
			if _, ok := counts[key]; !ok {
				counts[key] = 0
			}
		}
	}
	return counts
}

// MethodCounts counts records per (year, method).
func MethodCounts(records []model.ReconciledRecord) map[MethodKey]int {
	counts := make(map[MethodKey]int)
	for _, r := range records {
		counts[MethodKey{Year: r.Year, Method: r.Method}]++
	}
	return counts
}

// AgeStats summarises the valid ages of a record set.
type AgeStats struct {
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// AgeStatistics computes statistics over records whose age is set and within
// [model.MinValidAge, model.MaxValidAge]. The boolean is false, and the stats
// zero, when no record qualifies.
func AgeStatistics(records []model.ReconciledRecord) (AgeStats, bool) {
	ages := make([]int, 0, len(records))
	for _, r := range records {
		if r.HasValidAge() {
			ages = append(ages, *r.Age)
		}
	}
	if len(ages) == 0 {
		return AgeStats{}, false
	}

	slices.Sort(ages)

	sum := 0
	for _, a := range ages {
		sum += a
	}

	n := len(ages)
	var median float64
	if n%2 == 1 {
		median = float64(ages[n/2])
	} else {
		median = float64(ages[n/2-1]+ages[n/2]) / 2
	}

	return AgeStats{
		Count:  n,
		Min:    ages[0],
		Max:    ages[n-1],
		Mean:   float64(sum) / float64(n),
		Median: median,
	}, true
}

// MonthLabel returns the three-letter label for m, e.g. "Jan".
func MonthLabel(m time.Month) string {
	if m < time.January || m > time.December {
		return "???"
	}
	return m.String()[:3]
}
