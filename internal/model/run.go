package model

import (
	"time"

	"golang.org/x/net/html"
)

// SourceStatus describes what happened to one source during a run.
type SourceStatus int

const (
	// SourcePending means the source has not been fetched yet.
	SourcePending SourceStatus = iota

	// SourceOK means the source contributed raw records.
	SourceOK

	// SourceUnavailable means the fetch failed.
	SourceUnavailable

	// SourceNoTable means the document contained no table element.
	SourceNoTable

	// SourceNoDateColumn means no usable date column could be resolved.
	SourceNoDateColumn
)

// String returns a short, stable label for the status.
func (s SourceStatus) String() string {
	switch s {
	case SourcePending:
		return "pending"
	case SourceOK:
		return "ok"
	case SourceUnavailable:
		return "unavailable"
	case SourceNoTable:
		return "no_table"
	case SourceNoDateColumn:
		return "no_date_column"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SourceStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SourceStatus) UnmarshalText(text []byte) error {
	for _, v := range []SourceStatus{SourcePending, SourceOK, SourceUnavailable, SourceNoTable, SourceNoDateColumn} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	*s = SourcePending
	return nil
}

// SourceResult is the per-source outcome of a run.
// Failures are recorded here instead of aborting the run: a failed source
// simply contributes zero raw records.
type SourceResult struct {
	// Year is the year label the source was configured with.
	Year int `json:"year"`

	// URL is the page the records were scraped from.
	URL string `json:"url"`

	// Status is the outcome of fetching and extracting the source.
	Status SourceStatus `json:"status"`

	// Error is the failure message when Status is not SourceOK.
	Error string `json:"error,omitempty"`

	// StatusCode is the HTTP status returned by the server, 0 for local files.
	StatusCode int `json:"status_code,omitempty"`

	// ContentHash is the SHA3-256 of the fetched body, hex encoded.
	ContentHash string `json:"content_hash,omitempty"`

	// FetchedAt is when the document was retrieved.
	FetchedAt time.Time `json:"fetched_at,omitzero"`

	// HeaderRow is the grid row used for column naming.
	HeaderRow int `json:"header_row"`

	// Columns holds the de-duplicated header names.
	Columns []string `json:"columns,omitempty"`

	// Schema is the resolved canonical field mapping.
	Schema SchemaMap `json:"schema,omitempty"`

	// Raw holds the extracted rows, in table order.
	Raw []RawRecord `json:"-"`

	// RawCount is len(Raw), kept for serialized reports.
	RawCount int `json:"raw_count"`

	// Document is the parsed page. It is dropped once extraction finishes.
	Document *html.Node `json:"-"`
}

// Failed reports whether the source ended in a failure status.
func (s *SourceResult) Failed() bool {
	return s.Status != SourceOK && s.Status != SourcePending
}

// Fail records a failure status and message on the source.
func (s *SourceResult) Fail(status SourceStatus, err error) {
	s.Status = status
	if err != nil {
		s.Error = err.Error()
	}
	s.Raw = nil
	s.RawCount = 0
	s.Document = nil
}

// DropReason classifies why a raw record did not become a ReconciledRecord.
type DropReason int

const (
	DropEmptyDate DropReason = iota
	DropUnparseableDate
	DropHeaderLeak
	DropYearOutOfRange
)

// String returns a short, stable label for the reason.
func (r DropReason) String() string {
	switch r {
	case DropEmptyDate:
		return "empty_date"
	case DropUnparseableDate:
		return "unparseable_date"
	case DropHeaderLeak:
		return "header_leak"
	case DropYearOutOfRange:
		return "year_out_of_range"
	default:
		return "unknown"
	}
}

// DropReasons lists every DropReason in report order.
func DropReasons() []DropReason {
	return []DropReason{DropEmptyDate, DropUnparseableDate, DropHeaderLeak, DropYearOutOfRange}
}

// DropStats counts raw records excluded during reconciliation.
type DropStats struct {
	EmptyDate       int `json:"empty_date"`
	UnparseableDate int `json:"unparseable_date"`
	HeaderLeak      int `json:"header_leak"`
	YearOutOfRange  int `json:"year_out_of_range"`
}

// Add increments the counter for reason.
func (d *DropStats) Add(reason DropReason) {
	switch reason {
	case DropEmptyDate:
		d.EmptyDate++
	case DropUnparseableDate:
		d.UnparseableDate++
	case DropHeaderLeak:
		d.HeaderLeak++
	case DropYearOutOfRange:
		d.YearOutOfRange++
	}
}

// Count returns the counter for reason.
func (d DropStats) Count(reason DropReason) int {
	switch reason {
	case DropEmptyDate:
		return d.EmptyDate
	case DropUnparseableDate:
		return d.UnparseableDate
	case DropHeaderLeak:
		return d.HeaderLeak
	case DropYearOutOfRange:
		return d.YearOutOfRange
	default:
		return 0
	}
}

// Total returns the number of dropped records.
func (d DropStats) Total() int {
	return d.EmptyDate + d.UnparseableDate + d.HeaderLeak + d.YearOutOfRange
}

// Run is the state carried through the pipeline for one execution.
// Each step reads what earlier steps produced and appends its own output.
type Run struct {
	// ID uniquely identifies the run in the history database.
	ID string `json:"id"`

	// StartedAt is when the run was created.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is set once the pipeline completes.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Years is the set of years a record may belong to, in display order.
	Years []int `json:"years"`

	// Sources holds one entry per configured source, in configuration order.
	Sources []*SourceResult `json:"sources"`

	// Records is the reconciled output, in source then row order.
	Records []ReconciledRecord `json:"records"`

	// Dropped counts raw records excluded by reconciliation.
	Dropped DropStats `json:"dropped"`

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut is true when the run was cut short by its context.
	TimedOut bool `json:"timed_out,omitempty"`

	// Error is the last step failure, if any.
	Error string `json:"error,omitempty"`
}

// NewRun creates a Run with one pending SourceResult per source.
func NewRun(id string, years []int, sources []SourceResult) *Run {
	run := &Run{
		ID:        id,
		StartedAt: time.Now(),
		Years:     append([]int(nil), years...),
		Sources:   make([]*SourceResult, 0, len(sources)),
		Records:   make([]ReconciledRecord, 0),
	}
	for i := range sources {
		src := sources[i]
		src.Status = SourcePending
		run.Sources = append(run.Sources, &src)
	}
	return run
}

// RawRecords concatenates the raw records of every source in source order.
func (r *Run) RawRecords() []RawRecord {
	total := 0
	for _, src := range r.Sources {
		total += len(src.Raw)
	}
	raws := make([]RawRecord, 0, total)
	for _, src := range r.Sources {
		raws = append(raws, src.Raw...)
	}
	return raws
}

// RawCount returns the number of raw records extracted across sources.
func (r *Run) RawCount() int {
	total := 0
	for _, src := range r.Sources {
		total += src.RawCount
	}
	return total
}

// FailedSources returns the sources that ended in a failure status.
func (r *Run) FailedSources() []*SourceResult {
	failed := make([]*SourceResult, 0)
	for _, src := range r.Sources {
		if src.Failed() {
			failed = append(failed, src)
		}
	}
	return failed
}
