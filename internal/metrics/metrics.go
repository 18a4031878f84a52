// Package metrics exposes Prometheus collectors fed by bus events.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/hanpama/bookgraph/internal/eventbus"
	events "github.com/hanpama/bookgraph/internal/events"
	executor "github.com/hanpama/bookgraph/internal/executor"
)

const namespace = "bookgraph"

// Collectors groups the counters and histograms recorded for each request.
type Collectors struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	operations    *prometheus.CounterVec
	operationTime *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	entities      *prometheus.CounterVec
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_operations_total",
			Help:      "GraphQL operations by operation type.",
		}, []string{"type"}),
		operationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_operation_duration_seconds",
			Help:      "GraphQL operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_errors_total",
			Help:      "GraphQL errors by extensions code.",
		}, []string{"code"}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Entities stored by mutations.",
		}, []string{"kind"}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests, c.operations, c.operationTime, c.errors, c.entities,
	)
	return c
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Subscribe feeds the collectors from the global bus.
func (c *Collectors) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			c.httpRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			typ := e.OperationType
			if typ == "" {
				typ = "invalid"
			}
			c.operations.WithLabelValues(typ).Inc()
			c.operationTime.WithLabelValues(typ).Observe(e.Duration.Seconds())
			for _, err := range e.Errors {
				c.errors.WithLabelValues(errorCode(err)).Inc()
			}
		}),
		eventbus.Subscribe(func(_ context.Context, e events.EntityCreated) {
			c.entities.WithLabelValues(e.Kind).Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func errorCode(err error) string {
	var ge executor.GraphQLError
	if errors.As(err, &ge) {
		if code, ok := ge.Extensions["code"].(string); ok {
			return code
		}
	}
	return "UNKNOWN"
}
