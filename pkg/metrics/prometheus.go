package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	generations   *prometheus.CounterVec
	verifications *prometheus.CounterVec
	confidence    *prometheus.GaugeVec
	confidenceH   *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg. Tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		generations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockcast_generations_total",
				Help: "Prediction generation attempts by outcome status",
			},
			[]string{"ticker", "status"},
		),
		verifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockcast_verifications_total",
				Help: "Prediction verification attempts by outcome status",
			},
			[]string{"ticker", "status"},
		),
		confidence: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "blockcast_last_confidence",
				Help: "Confidence of the most recent prediction",
			},
			[]string{"ticker", "prediction"},
		),
		confidenceH: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockcast_confidence",
				Help:    "Distribution of prediction confidence",
				Buckets: []float64{10, 20, 30, 40, 50, 55, 60, 70, 75, 80, 90, 95},
			},
			[]string{"prediction"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordGeneration(ticker, status string) {
	r.generations.WithLabelValues(ticker, status).Inc()
}

func (r *Recorder) RecordConfidence(ticker, prediction string, confidence float64) {
	r.confidence.WithLabelValues(ticker, prediction).Set(confidence)
	r.confidenceH.WithLabelValues(prediction).Observe(confidence)
}

func (r *Recorder) RecordVerification(ticker, status string) {
	r.verifications.WithLabelValues(ticker, status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
