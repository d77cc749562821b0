package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/casetally/internal/model"
)

// Step is one stage of a run: fetching sources, extracting rows or
// reconciling records.
type Step interface {
	// Do advances the run. A source that fails is marked on its
	// SourceResult and Do still returns nil; an error means the stage as
	// a whole could not run.
	Do(ctx context.Context, run *model.Run) error

	// Name identifies the stage in logs and in Run.PerformedSteps.
	Name() string
}

// Pipeline runs stages over a single run in the order they were added.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps later stages running after a stage error.
// The last error is kept in Run.Error.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New returns an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a stage.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends stages in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every stage against run and stamps run.FinishedAt on return.
//
// The context is checked between stages. When it is done the run is marked
// TimedOut, the remaining stages are skipped and ctx.Err() is returned, so
// a cut-short run is never mistaken for a complete one. Each stage that
// returns is appended to run.PerformedSteps, failed or not.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	defer func() { run.FinishedAt = time.Now() }()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run cut short",
				"run_id", run.ID,
				"next_step", step.Name(),
				"reason", err,
			)
			run.TimedOut = true
			return err
		}

		if err := p.runStep(ctx, step, run); err != nil && !p.continueOnError {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, run *model.Run) error {
	log := p.logger.With("run_id", run.ID, "step", step.Name())
	log.Info("executing step")

	err := step.Do(ctx, run)
	run.PerformedSteps = append(run.PerformedSteps, step.Name())
	if err != nil {
		log.Error("step failed", "error", err)
		run.Error = err.Error()
		return err
	}

	log.Debug("step completed",
		"failed_sources", len(run.FailedSources()),
		"records", len(run.Records),
	)
	return nil
}

// StepCount returns the number of stages.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the stage names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
