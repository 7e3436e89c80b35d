package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes scraping counters via Prometheus.
type Recorder struct {
	requestsTotal  *prometheus.CounterVec
	recordsWritten *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	segmentsTotal  *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratepull_requests_total",
				Help: "Total provider API requests by result",
			},
			[]string{"bank", "result"},
		),
		recordsWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratepull_records_written_total",
				Help: "Total records written per sink",
			},
			[]string{"bank", "sink"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratepull_errors_total",
				Help: "Total errors by kind",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratepull_request_duration_seconds",
				Help:    "Provider request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"bank"},
		),
		segmentsTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratepull_segments_total",
				Help: "Segment count generated for the current run",
			},
			[]string{"bank"},
		),
	}
}

// RecordRequest records one provider request with its outcome.
func (r *Recorder) RecordRequest(bank, result string) {
	r.requestsTotal.WithLabelValues(bank, result).Inc()
}

// RecordWritten records a record exported to a sink.
func (r *Recorder) RecordWritten(bank, sink string) {
	r.recordsWritten.WithLabelValues(bank, sink).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records request latency in seconds.
func (r *Recorder) RecordLatency(bank string, seconds float64) {
	r.latency.WithLabelValues(bank).Observe(seconds)
}

// RecordSegments records the size of a generated segment grid.
func (r *Recorder) RecordSegments(bank string, count int) {
	r.segmentsTotal.WithLabelValues(bank).Set(float64(count))
}
