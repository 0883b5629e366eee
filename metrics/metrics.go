// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

// Package metrics defines the Prometheus instrumentation shared by the task
// manager and the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the counters and gauges the task engine reports.
type Metrics struct {
	registry *prometheus.Registry

	// TasksCreated counts tasks created over the process lifetime.
	TasksCreated prometheus.Counter
	// StateTransitions counts task state transitions, labeled by target state.
	StateTransitions *prometheus.CounterVec
	// EventsPublished counts streaming events published, labeled by event kind.
	EventsPublished *prometheus.CounterVec
	// ActiveSubscribers tracks the number of currently attached stream listeners.
	ActiveSubscribers prometheus.Gauge
	// RequestsTotal counts JSON-RPC requests, labeled by method and outcome.
	RequestsTotal *prometheus.CounterVec
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		TasksCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "a2aserve",
			Name:      "tasks_created_total",
			Help:      "Number of tasks created.",
		}),
		StateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2aserve",
			Name:      "task_state_transitions_total",
			Help:      "Number of task state transitions by target state.",
		}, []string{"state"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2aserve",
			Name:      "stream_events_published_total",
			Help:      "Number of streaming events published by event kind.",
		}, []string{"kind"}),
		ActiveSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "a2aserve",
			Name:      "stream_subscribers_active",
			Help:      "Number of currently attached stream listeners.",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2aserve",
			Name:      "rpc_requests_total",
			Help:      "Number of JSON-RPC requests by method and outcome.",
		}, []string{"method", "outcome"}),
	}
}

// Handler returns an HTTP handler exposing the metrics in the Prometheus
// text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a completed JSON-RPC request.
func (m *Metrics) ObserveRequest(method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RequestsTotal.WithLabelValues(method, outcome).Inc()
}
