package reconcile

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/nao1215/casetally/internal/model"
	"github.com/nao1215/casetally/internal/normalize"
)

// headerLeakPattern matches header text that leaked into data rows.
var headerLeakPattern = regexp.MustCompile(`Date Died|No\.`)

// DefaultYears are the years a record may belong to when none are configured.
var DefaultYears = []int{2024, 2025}

// Reconciler converts raw records into reconciled records.
// It holds no state between calls: reconciling the same input twice yields
// the same output.
type Reconciler struct {
	years  []int
	logger *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithYears sets the accepted years. An empty list keeps DefaultYears.
func WithYears(years []int) Option {
	return func(r *Reconciler) {
		if len(years) > 0 {
			r.years = slices.Clone(years)
		}
	}
}

// WithLogger sets the logger used for per-record debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// New creates a Reconciler accepting DefaultYears unless overridden.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		years:  slices.Clone(DefaultYears),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Years returns a copy of the accepted years.
func (r *Reconciler) Years() []int {
	return slices.Clone(r.years)
}

// Reconcile converts raws into reconciled records, preserving input order.
// Records that fail any filter are dropped silently.
func (r *Reconciler) Reconcile(raws []model.RawRecord) []model.ReconciledRecord {
	records, _ := r.ReconcileWithStats(raws)
	return records
}

// ReconcileWithStats is Reconcile that also reports how many records were
// dropped and why.
func (r *Reconciler) ReconcileWithStats(raws []model.RawRecord) ([]model.ReconciledRecord, model.DropStats) {
	var stats model.DropStats
	records := make([]model.ReconciledRecord, 0, len(raws))

	for i, raw := range raws {
		rec, reason, ok := r.reconcileOne(raw)
		if !ok {
			stats.Add(reason)
			r.logger.Debug("record dropped",
				"index", i,
				"source_year", raw.SourceYearLabel,
				"reason", reason.String(),
			)
			continue
		}
		records = append(records, rec)
	}

	return records, stats
}

// reconcileOne applies the filters in order. The returned reason is only
// meaningful when ok is false.
func (r *Reconciler) reconcileOne(raw model.RawRecord) (model.ReconciledRecord, model.DropReason, bool) {
	dateText := strings.TrimSpace(raw.DateText)
	if dateText == "" {
		return model.ReconciledRecord{}, model.DropEmptyDate, false
	}

	if headerLeakPattern.MatchString(dateText) {
		return model.ReconciledRecord{}, model.DropHeaderLeak, false
	}

	date, err := normalize.ParseDate(dateText)
	if err != nil {
		return model.ReconciledRecord{}, model.DropUnparseableDate, false
	}

	if !slices.Contains(r.years, date.Year()) {
		return model.ReconciledRecord{}, model.DropYearOutOfRange, false
	}

	return model.ReconciledRecord{
		Year:         date.Year(),
		Date:         date,
		Month:        date.Month(),
		Age:          ParseAge(raw.AgeText),
		CaseStatus:   ClassifyCaseStatus(raw.ClosedText),
		CameraStatus: ClassifyCamera(raw.CameraText),
		Method:       ClassifyMethod(raw.NotesText),
	}, 0, true
}
