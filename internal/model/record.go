package model

import "time"

// RawRecord is one data row scraped from a source table before any parsing.
// Every text field is trimmed but otherwise exactly as published; an absent
// column yields an empty string.
type RawRecord struct {
	// SourceYearLabel is the year the source page claims to cover.
	// It is informational only: the reconciled year comes from the parsed date.
	SourceYearLabel int `json:"source_year_label"`

	// DateText is the free-text date of death.
	DateText string `json:"date_text,omitempty"`

	// AgeText is the free-text age, e.g. "34" or "34 yrs".
	AgeText string `json:"age_text,omitempty"`

	// ClosedText is the case-status column, e.g. "Closed" or "Open".
	ClosedText string `json:"closed_text,omitempty"`

	// CameraText is the surveillance column, e.g. "2 cameras" or "none".
	CameraText string `json:"camera_text,omitempty"`

	// NotesText is the narrative column describing the incident.
	NotesText string `json:"notes_text,omitempty"`
}

// ReconciledRecord is one validated, normalised incident.
// A ReconciledRecord only exists when its date parsed and its year is one of
// the configured years; it is never mutated after construction.
type ReconciledRecord struct {
	// Year is taken from Date and overrides RawRecord.SourceYearLabel.
	Year int `json:"year"`

	// Date is the calendar date at midnight UTC.
	Date time.Time `json:"date"`

	// Month is Date's month, 1 to 12.
	Month time.Month `json:"month"`

	// Age is the first integer found in the age column, or nil.
	// Range checks happen at aggregation time.
	Age *int `json:"age,omitempty"`

	CaseStatus   CaseStatus   `json:"case_status"`
	CameraStatus CameraStatus `json:"camera_status"`
	Method       Method       `json:"method"`
}

// HasValidAge reports whether Age is set and within [MinValidAge, MaxValidAge].
func (r ReconciledRecord) HasValidAge() bool {
	return r.Age != nil && *r.Age >= MinValidAge && *r.Age <= MaxValidAge
}

// Bounds applied to ages during aggregation.
const (
	MinValidAge = 1
	MaxValidAge = 100
)
