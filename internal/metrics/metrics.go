package metrics

import (
	"net/http"
	"time"

	"swatch-extractor/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swatch"

// Run results.
const (
	RunSucceeded        = "succeeded"
	RunListingExhausted = "listing_exhausted"
	RunFailed           = "failed"
)

// Recorder counts runs and product outcomes on its own registry. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	products      *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
}

// NewRecorder creates a recorder with a fresh registry.
// Go runtime and process collectors are not registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Extraction runs by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of extraction runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		products: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_total",
			Help:      "Processed products by final state.",
		}, []string{"state"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Partial products by the pipeline stage that failed.",
		}, []string{"stage"}),
	}

	r.registry.MustRegister(r.runs, r.runDuration, r.products, r.stageFailures)
	return r
}

// ObserveProduct records the final state of one product.
func (r *Recorder) ObserveProduct(outcome types.ProductOutcome) {
	if r == nil {
		return
	}
	r.products.WithLabelValues(string(outcome.State)).Inc()
	if !outcome.Complete() && outcome.FailedStage != "" {
		r.stageFailures.WithLabelValues(string(outcome.FailedStage)).Inc()
	}
}

// ObserveRun records the result and duration of one run.
func (r *Recorder) ObserveRun(result string, duration time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(result).Inc()
	r.runDuration.Observe(duration.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
