// Package metrics exposes engine activity as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/a3tai/labreport-summarizer/internal/intelligence"
)

const namespace = "labreport"

// Collectors implements pipeline.Recorder on top of Prometheus
type Collectors struct {
	files      *prometheus.CounterVec
	tables     *prometheus.CounterVec
	candidates *prometheus.CounterVec
	batches    prometheus.Counter
	duration   prometheus.Histogram
}

// New creates the collectors and registers them on registerer
func New(registerer prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Report files processed, by outcome status.",
		}, []string{"status"}),
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_total",
			Help:      "Tables seen, by header decision.",
		}, []string{"decision"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidate values accepted, by confidence tier.",
		}, []string{"tier"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches summarized.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a batch from first load to aggregation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	for _, col := range []prometheus.Collector{c.files, c.tables, c.candidates, c.batches, c.duration} {
		if err := registerer.Register(col); err != nil {
			return nil, eris.Wrap(err, "metrics: register collector")
		}
	}
	return c, nil
}

// FileProcessed counts a file outcome
func (c *Collectors) FileProcessed(status string) {
	c.files.WithLabelValues(status).Inc()
}

// TableResolved counts a table header decision
func (c *Collectors) TableResolved(decision string) {
	c.tables.WithLabelValues(decision).Inc()
}

// CandidateAccepted counts a candidate entering a pool or family list
func (c *Collectors) CandidateAccepted(tier intelligence.Tier) {
	c.candidates.WithLabelValues(tier.String()).Inc()
}

// BatchFinished observes a completed batch
func (c *Collectors) BatchFinished(_ int, elapsed time.Duration) {
	c.batches.Inc()
	c.duration.Observe(elapsed.Seconds())
}
