package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Source is one page of incident records and the year it is labelled with.
type Source struct {
	// Year is the label attached to every record of the page.
	Year int `yaml:"year" validate:"required,gte=1900,lte=2100"`

	// URL is an http, https or file URL.
	URL string `yaml:"url" validate:"required,url"`
}

// String returns the YEAR=URL form accepted by ParseSource.
func (s Source) String() string {
	return strconv.Itoa(s.Year) + "=" + s.URL
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func sourceValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ParseSource parses a "YEAR=URL" flag value.
func ParseSource(s string) (Source, error) {
	yearText, url, ok := strings.Cut(s, "=")
	if !ok {
		return Source{}, fmt.Errorf("%w: %q is not YEAR=URL", ErrInvalidSource, s)
	}

	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil {
		return Source{}, fmt.Errorf("%w: year %q is not a number", ErrInvalidSource, yearText)
	}

	src := Source{Year: year, URL: strings.TrimSpace(url)}
	if err := ValidateSource(src); err != nil {
		return Source{}, err
	}
	return src, nil
}

// ValidateSource checks the year range and URL of one source.
func ValidateSource(s Source) error {
	if err := sourceValidator().Struct(s); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidSource, s, err)
	}
	return nil
}

// ValidateSources checks every source and rejects repeated year labels.
func ValidateSources(sources []Source) error {
	seen := make(map[int]bool, len(sources))
	for _, s := range sources {
		if err := ValidateSource(s); err != nil {
			return err
		}
		if seen[s.Year] {
			return fmt.Errorf("%w: %d", ErrDuplicateSourceYear, s.Year)
		}
		seen[s.Year] = true
	}
	return nil
}

// MergeSources overlays override on base. An override replaces the base
// source with the same year in place; new years are appended.
func MergeSources(base, override []Source) []Source {
	merged := append([]Source(nil), base...)
	for _, o := range override {
		replaced := false
		for i := range merged {
			if merged[i].Year == o.Year {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}
