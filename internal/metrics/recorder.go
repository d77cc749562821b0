package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/casetally/internal/model"
)

const namespace = "casetally"

// Recorder collects run metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	extracted      *prometheus.CounterVec
	reconciled     *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	runDuration    prometheus.Gauge
	lastRun        prometheus.Gauge
	timedOut       prometheus.Gauge
}

// NewRecorder creates a Recorder with every collector registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		extracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Raw records extracted from source tables.",
		}, []string{"year"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_reconciled_total",
			Help:      "Records that passed reconciliation, by incident year.",
		}, []string{"year"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Raw records excluded during reconciliation.",
		}, []string{"reason"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Sources that contributed no records.",
		}, []string{"year", "status"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		timedOut: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timed_out",
			Help:      "1 if the last run was cut short by its deadline.",
		}),
	}

	r.registry.MustRegister(
		r.extracted,
		r.reconciled,
		r.dropped,
		r.sourceFailures,
		r.runDuration,
		r.lastRun,
		r.timedOut,
	)
	return r
}

// Gatherer returns the registry backing the recorder.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveRun adds the counts of a finished run.
func (r *Recorder) ObserveRun(run *model.Run) {
	if run == nil {
		return
	}

	for _, src := range run.Sources {
		year := strconv.Itoa(src.Year)
		if src.Failed() {
			r.sourceFailures.WithLabelValues(year, src.Status.String()).Inc()
			continue
		}
		r.extracted.WithLabelValues(year).Add(float64(src.RawCount))
	}

	for _, rec := range run.Records {
		r.reconciled.WithLabelValues(strconv.Itoa(rec.Year)).Inc()
	}

	for _, reason := range model.DropReasons() {
		r.dropped.WithLabelValues(reason.String()).Add(float64(run.Dropped.Count(reason)))
	}

	if !run.FinishedAt.IsZero() {
		r.runDuration.Set(run.FinishedAt.Sub(run.StartedAt).Seconds())
		r.lastRun.Set(float64(run.FinishedAt.Unix()))
	}
	if run.TimedOut {
		r.timedOut.Set(1)
	} else {
		r.timedOut.Set(0)
	}
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
