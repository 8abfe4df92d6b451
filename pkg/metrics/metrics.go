// Package metrics exports Prometheus metrics for special event packets and
// the services that move them around.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/caerevents/pkg/diag"
	"github.com/ssargent/caerevents/pkg/events"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Diagnostics reported by packets
	diagnosticsTotal *prometheus.CounterVec

	// Packet metrics
	packetsTotal         *prometheus.CounterVec
	packetEventsCapacity prometheus.Histogram
	packetEventsValid    prometheus.Histogram
	packetEventNumber    prometheus.Gauge
	packetEventValid     prometheus.Gauge

	// Archive operation metrics
	storeOperationsTotal   *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	eventBuckets := prometheus.ExponentialBuckets(1, 4, 10)

	return &Metrics{
		diagnosticsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caer_diagnostics_total",
				Help: "Total number of diagnostics reported, by severity and component",
			},
			[]string{"severity", "component"},
		),

		packetsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caer_packets_total",
				Help: "Total number of special event packets observed",
			},
			[]string{"source"},
		),

		packetEventsCapacity: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "caer_packet_event_capacity",
				Help:    "Capacity of observed packets",
				Buckets: eventBuckets,
			},
		),

		packetEventsValid: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "caer_packet_events_valid",
				Help:    "Number of valid events in observed packets",
				Buckets: eventBuckets,
			},
		),

		packetEventNumber: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "caer_last_packet_event_number",
				Help: "Committed event count of the last observed packet",
			},
		),

		packetEventValid: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "caer_last_packet_event_valid",
				Help: "Valid event count of the last observed packet",
			},
		),

		storeOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caer_store_operations_total",
				Help: "Total number of packet archive operations",
			},
			[]string{"operation", "status"},
		),

		storeOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caer_store_operation_duration_seconds",
				Help:    "Packet archive operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caer_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caer_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "caer_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),
	}
}

// DiagnosticsSink returns a diag.Sink that counts messages. The message
// text is not formatted.
func (m *Metrics) DiagnosticsSink() diag.Sink {
	return diagCounter{m.diagnosticsTotal}
}

type diagCounter struct {
	total *prometheus.CounterVec
}

func (d diagCounter) Log(level diag.Level, component, _ string, _ ...any) {
	d.total.WithLabelValues(level.String(), component).Inc()
}

// ObservePacket records the counters of one packet header.
func (m *Metrics) ObservePacket(h *events.Header) {
	m.packetsTotal.WithLabelValues(strconv.Itoa(int(h.EventSource()))).Inc()
	m.packetEventsCapacity.Observe(float64(h.EventCapacity()))
	m.packetEventsValid.Observe(float64(h.EventValid()))
	m.packetEventNumber.Set(float64(h.EventNumber()))
	m.packetEventValid.Set(float64(h.EventValid()))
}

// RecordStoreOperation records a packet archive operation
func (m *Metrics) RecordStoreOperation(operation string, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.storeOperationsTotal.WithLabelValues(operation, status).Inc()
	m.storeOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
