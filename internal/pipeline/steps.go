package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/casetally/internal/extract"
	"github.com/nao1215/casetally/internal/fetch"
	"github.com/nao1215/casetally/internal/model"
	"github.com/nao1215/casetally/internal/reconcile"
)

// FetchStep retrieves the document of every source on the run.
// A failed fetch marks that source unavailable and never fails the step.
type FetchStep struct {
	// fetcher retrieves and parses each source URL.
	fetcher fetch.Fetcher

	// concurrency is the number of sources fetched at once.
	concurrency int

	// timeout bounds the whole step; sources still pending when it expires
	// are marked unavailable. Zero means no step-level bound.
	timeout time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchConcurrency sets how many sources are fetched at once.
// Values below 1 are treated as 1.
func WithFetchConcurrency(n int) FetchStepOption {
	return func(s *FetchStep) {
		s.concurrency = max(n, 1)
	}
}

// WithFetchTimeout bounds the time spent fetching all sources.
func WithFetchTimeout(d time.Duration) FetchStepOption {
	return func(s *FetchStep) {
		s.timeout = d
	}
}

// WithFetchLogger sets a custom logger for the fetch step.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates a fetch step that fetches one source at a time.
func NewFetchStep(fetcher fetch.Fetcher, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		fetcher:     fetcher,
		concurrency: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches every pending source. Each goroutine writes only to its own
// SourceResult, so no locking is needed.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for _, src := range run.Sources {
		if src.Status != model.SourcePending {
			continue
		}
		g.Go(func() error {
			s.fetchSource(fetchCtx, src)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		run.TimedOut = true
		s.logger.Warn("fetch budget exhausted",
			"run_id", run.ID,
			"timeout", s.timeout,
		)
	}
	return nil
}

func (s *FetchStep) fetchSource(ctx context.Context, src *model.SourceResult) {
	if err := ctx.Err(); err != nil {
		src.Fail(model.SourceUnavailable, err)
		s.logger.Warn("source skipped",
			"year", src.Year,
			"url", src.URL,
			"error", err,
		)
		return
	}

	doc, err := s.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) {
			src.StatusCode = statusErr.StatusCode
		}
		src.Fail(model.SourceUnavailable, err)
		s.logger.Warn("source unavailable",
			"year", src.Year,
			"url", src.URL,
			"error", err,
		)
		return
	}

	src.Document = doc.Root
	src.StatusCode = doc.StatusCode
	src.ContentHash = doc.Hash
	src.FetchedAt = doc.FetchedAt

	s.logger.Info("source fetched",
		"year", src.Year,
		"url", src.URL,
		"bytes", doc.Size,
	)
}

// ExtractStep reads raw records from every fetched source.
type ExtractStep struct {
	logger *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates an extract step.
func NewExtractStep(opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do extracts every source that holds a document and releases the tree.
func (s *ExtractStep) Do(_ context.Context, run *model.Run) error {
	for _, src := range run.Sources {
		if src.Status != model.SourcePending || src.Document == nil {
			continue
		}

		table, err := extract.Extract(src.Document, src.Year)
		src.Document = nil
		if err != nil {
			status := model.SourceNoTable
			if errors.Is(err, extract.ErrNoDateColumn) {
				status = model.SourceNoDateColumn
			}
			src.Fail(status, err)
			s.logger.Warn("source has no usable table",
				"year", src.Year,
				"url", src.URL,
				"status", status.String(),
				"error", err,
			)
			continue
		}

		src.Status = model.SourceOK
		src.HeaderRow = table.HeaderRow
		src.Columns = table.Columns
		src.Schema = table.Schema
		src.Raw = table.Records
		src.RawCount = len(table.Records)

		s.logger.Info("records extracted",
			"year", src.Year,
			"header_row", table.HeaderRow,
			"records", src.RawCount,
		)
	}
	return nil
}

// ReconcileStep turns the raw records of all sources into reconciled records.
type ReconcileStep struct {
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
}

// ReconcileStepOption configures a ReconcileStep.
type ReconcileStepOption func(*ReconcileStep)

// WithReconcileLogger sets a custom logger for the reconcile step.
func WithReconcileLogger(logger *slog.Logger) ReconcileStepOption {
	return func(s *ReconcileStep) {
		s.logger = logger
	}
}

// NewReconcileStep creates a reconcile step. A nil reconciler accepts the
// run's configured years.
func NewReconcileStep(reconciler *reconcile.Reconciler, opts ...ReconcileStepOption) *ReconcileStep {
	s := &ReconcileStep{
		reconciler: reconciler,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ReconcileStep) Name() string {
	return "reconcile"
}

// Do replaces run.Records and run.Dropped with the reconciliation of every
// source's raw records, in source order.
func (s *ReconcileStep) Do(_ context.Context, run *model.Run) error {
	r := s.reconciler
	if r == nil {
		r = reconcile.New(reconcile.WithYears(run.Years), reconcile.WithLogger(s.logger))
	}

	records, dropped := r.ReconcileWithStats(run.RawRecords())
	run.Records = records
	run.Dropped = dropped

	s.logger.Info("records reconciled",
		"raw", run.RawCount(),
		"reconciled", len(records),
		"dropped", dropped.Total(),
	)
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Concurrency is the number of sources fetched at once.
	Concurrency int

	// FetchTimeout bounds the fetch step as a whole.
	FetchTimeout time.Duration

	// Logger is shared by every step.
	Logger *slog.Logger
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineConcurrency sets the fetch concurrency.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineFetchTimeout sets the process-level fetch budget.
func WithPipelineFetchTimeout(d time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FetchTimeout = d
	}
}

// WithPipelineLogger sets the logger passed to every step.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates the fetch, extract and reconcile pipeline.
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts step configuration (WithPipelineConcurrency, etc).
// A nil reconciler accepts the years recorded on each run.
func DefaultPipeline(fetcher fetch.Fetcher, reconciler *reconcile.Reconciler, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Concurrency: 1,
		Logger:      p.logger,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddSteps(
		NewFetchStep(fetcher,
			WithFetchConcurrency(cfg.Concurrency),
			WithFetchTimeout(cfg.FetchTimeout),
			WithFetchLogger(cfg.Logger),
		),
		NewExtractStep(WithExtractLogger(cfg.Logger)),
		NewReconcileStep(reconciler, WithReconcileLogger(cfg.Logger)),
	)

	return p
}
