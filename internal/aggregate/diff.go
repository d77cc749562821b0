package aggregate

import (
	"cmp"
	"slices"
)

// MonthDelta is the change of one (year, month) count between two runs.
type MonthDelta struct {
	MonthKey
	Before int `json:"before"`
	After  int `json:"after"`
}

// Delta returns After minus Before.
func (d MonthDelta) Delta() int {
	return d.After - d.Before
}

// CompareMonthly lists every (year, month) present in either count set,
// ordered by year then month. Missing keys count as zero.
func CompareMonthly(before, after map[MonthKey]int) []MonthDelta {
	keys := make([]MonthKey, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b MonthKey) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})

	deltas := make([]MonthDelta, 0, len(keys))
	for _, k := range keys {
		deltas = append(deltas, MonthDelta{MonthKey: k, Before: before[k], After: after[k]})
	}
	return deltas
}

// ChangedMonths filters deltas down to the entries whose count changed.
func ChangedMonths(deltas []MonthDelta) []MonthDelta {
	changed := make([]MonthDelta, 0)
	for _, d := range deltas {
		if d.Delta() != 0 {
			changed = append(changed, d)
		}
	}
	return changed
}
