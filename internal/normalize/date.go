package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableDate is returned when text matches no accepted date shape.
var ErrUnparseableDate = errors.New("unparseable date")

var (
	monthDayYearPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
	monthYearPattern    = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
)

// twoDigitYearPivot splits two digit years: below it is 20xx, otherwise 19xx.
// It mirrors the window used by strptime's %y.
const twoDigitYearPivot = 69

// ParseDate parses text into a calendar date at midnight UTC.
// Surrounding whitespace is ignored.
func ParseDate(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty text", ErrUnparseableDate)
	}

	if m := monthDayYearPattern.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year = expandYear(year)
		}
		if d, ok := calendarDate(year, atoi(m[1]), atoi(m[2])); ok {
			return d, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrUnparseableDate, s)
	}

	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		if d, ok := calendarDate(atoi(m[2]), atoi(m[1]), 1); ok {
			return d, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar month", ErrUnparseableDate, s)
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
}

// calendarDate builds the date and rejects values time.Date would normalise,
// e.g. February 30th rolling over into March.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func expandYear(yy int) int {
	if yy < twoDigitYearPivot {
		return 2000 + yy
	}
	return 1900 + yy
}

// atoi converts a string the patterns already restricted to digits.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
