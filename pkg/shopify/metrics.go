package shopify

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "shopup"

// Outcomes recorded by Metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeFailed   = "failed"
	OutcomeCached   = "cached"
	OutcomeFallback = "fallback"
)

// Metrics exports client telemetry to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	apiRequests    *prometheus.CounterVec
	apiDuration    *prometheus.HistogramVec
	uploadSteps    *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
	pollOutcomes   *prometheus.CounterVec
	uploadBytes    prometheus.Counter
}

// NewMetrics registers the client metrics with reg. A nil reg returns nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil //nolint:nilnil
	}

	metrics := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "api_requests_total",
			Help:      "Admin API requests by method and status.",
		}, []string{"method", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "api_request_duration_seconds",
			Help:      "Admin API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		uploadSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_steps_total",
			Help:      "Upload pipeline steps by step and outcome.",
		}, []string{"step", "outcome"}),
		uploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "upload_duration_seconds",
			Help:      "End-to-end upload latency by strategy.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"strategy", "outcome"}),
		pollOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "poll_outcomes_total",
			Help:      "CDN URL poll outcomes.",
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes sent to staged upload targets.",
		}),
	}

	var err error

	if metrics.apiRequests, err = registerOrExisting(reg, metrics.apiRequests); err != nil {
		return nil, err
	}

	if metrics.apiDuration, err = registerOrExisting(reg, metrics.apiDuration); err != nil {
		return nil, err
	}

	if metrics.uploadSteps, err = registerOrExisting(reg, metrics.uploadSteps); err != nil {
		return nil, err
	}

	if metrics.uploadDuration, err = registerOrExisting(reg, metrics.uploadDuration); err != nil {
		return nil, err
	}

	if metrics.pollOutcomes, err = registerOrExisting(reg, metrics.pollOutcomes); err != nil {
		return nil, err
	}

	if metrics.uploadBytes, err = registerOrExisting(reg, metrics.uploadBytes); err != nil {
		return nil, err
	}

	return metrics, nil
}

// registerOrExisting registers collector, reusing an identical collector
// registered earlier by another client.
func registerOrExisting[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return collector, fmt.Errorf("register client metric: %w", err)
}

// ObserveRequest records one Admin API request.
func (m *Metrics) ObserveRequest(method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.apiRequests.WithLabelValues(method, status).Inc()
	m.apiDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveStep records one upload step outcome.
func (m *Metrics) ObserveStep(step string, err error) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}

	m.uploadSteps.WithLabelValues(step, outcome).Inc()
}

// ObserveFallback records a strategy fallback at step.
func (m *Metrics) ObserveFallback(step string) {
	if m == nil {
		return
	}

	m.uploadSteps.WithLabelValues(step, OutcomeFallback).Inc()
}

// ObserveUpload records one finished upload.
func (m *Metrics) ObserveUpload(strategy Strategy, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}

	m.uploadDuration.WithLabelValues(string(strategy), outcome).Observe(elapsed.Seconds())
}

// ObservePoll records a poll outcome.
func (m *Metrics) ObservePoll(outcome string) {
	if m == nil {
		return
	}

	m.pollOutcomes.WithLabelValues(outcome).Inc()
}

// AddUploadedBytes counts bytes sent to a storage target.
func (m *Metrics) AddUploadedBytes(n int) {
	if m == nil {
		return
	}

	m.uploadBytes.Add(float64(n))
}
