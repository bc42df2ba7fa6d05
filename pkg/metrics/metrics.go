// Package metrics exposes jetmock's Prometheus collectors.
//
// A nil *Metrics is valid and records nothing, so components can take
// metrics as an optional dependency.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jetmock"

// Trigger label values.
const (
	TriggerHTTP  = "http"
	TriggerKafka = "kafka"
)

// Outcome label values.
const (
	OutcomeMatched = "matched"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
	OutcomeOK      = "ok"
)

// Metrics holds the collectors recorded by the engine and listeners.
type Metrics struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	stepsTotal       *prometheus.CounterVec
	activeListeners  prometheus.Gauge
	conditionsTotal  *prometheus.CounterVec
}

// New creates Metrics on a fresh registry that also carries the Go runtime
// and process collectors.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Inbound requests and messages dispatched to flows.",
		}, []string{"trigger", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Time spent matching and running the synchronous part of a flow.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"trigger"}),
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "steps_total",
			Help:      "Flow steps executed, by element type and outcome.",
		}, []string{"type", "outcome"}),
		activeListeners: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "active_listeners",
			Help:      "Kafka consumers currently running for flow triggers.",
		}),
		conditionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "conditions_total",
			Help:      "Condition evaluations, by result.",
		}, []string{"result"}),
	}

	cs := []prometheus.Collector{
		m.dispatchTotal,
		m.dispatchDuration,
		m.stepsTotal,
		m.activeListeners,
		m.conditionsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	var errs []error
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// ObserveDispatch records one dispatch and its duration.
func (m *Metrics) ObserveDispatch(trigger, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(trigger, outcome).Inc()
	m.dispatchDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
}

// ObserveStep records one executed flow step.
func (m *Metrics) ObserveStep(elementType string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.stepsTotal.WithLabelValues(elementType, outcome).Inc()
}

// ObserveCondition records one condition evaluation.
func (m *Metrics) ObserveCondition(eligible bool) {
	if m == nil {
		return
	}
	result := "ineligible"
	if eligible {
		result = "eligible"
	}
	m.conditionsTotal.WithLabelValues(result).Inc()
}

// SetActiveListeners records the number of running Kafka listeners.
func (m *Metrics) SetActiveListeners(n int) {
	if m == nil {
		return
	}
	m.activeListeners.Set(float64(n))
}
