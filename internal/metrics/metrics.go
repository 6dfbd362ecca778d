// Package metrics exposes Prometheus counters for record decoding and
// store operations. A nil *Metrics records nothing.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"cellar/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK           = "ok"
	ResultMissingField = "missing_field"
	ResultInvalidType  = "invalid_type"
	ResultNotFound     = "not_found"
	ResultError        = "error"
)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry       *prometheus.Registry
	recordsDecoded *prometheus.CounterVec
	storeOps       *prometheus.CounterVec
	storeDuration  *prometheus.HistogramVec
}

// New registers the cellar collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recordsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellar_records_decoded_total",
			Help: "Raw records run through the record constructor, by result.",
		}, []string{"result"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellar_store_operations_total",
			Help: "Store operations issued by the services, by operation and result.",
		}, []string{"op", "result"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cellar_store_operation_duration_seconds",
			Help:    "Latency of store operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.recordsDecoded,
		m.storeOps,
		m.storeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDecode counts one constructor call by outcome.
func (m *Metrics) ObserveDecode(err error) {
	if m == nil {
		return
	}
	m.recordsDecoded.WithLabelValues(decodeResult(err)).Inc()
}

// ObserveStore counts one store call and its latency. notFound marks
// ErrNotFound-style outcomes, which are not failures of the backend.
func (m *Metrics) ObserveStore(op string, err error, notFound bool, d time.Duration) {
	if m == nil {
		return
	}
	result := ResultOK
	switch {
	case notFound:
		result = ResultNotFound
	case err != nil:
		result = ResultError
	}
	m.storeOps.WithLabelValues(op, result).Inc()
	m.storeDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func decodeResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, models.ErrMissingField):
		return ResultMissingField
	case errors.Is(err, models.ErrInvalidType):
		return ResultInvalidType
	default:
		return ResultError
	}
}
