// Package metrics collects and exposes the service's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what handlers and middleware report into.
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, d time.Duration)
	RecordAuthFailure(reason string)
	RecordPolicyDecision(op string, allowed bool, reason string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	authFailures *prometheus.CounterVec
	decisions    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasks_http_requests_total",
			Help: "HTTP responses by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tasks_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasks_auth_failures_total",
			Help: "Rejected logins and token validations by reason.",
		}, []string{"reason"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasks_policy_decisions_total",
			Help: "Access policy decisions by operation and outcome.",
		}, []string{"op", "outcome"}),
	}

	reg.MustRegister(c.httpRequests, c.httpLatency, c.authFailures, c.decisions)
	return c
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordPolicyDecision counts a decision. Denials are labelled with their
// reason, grants with "allowed".
func (c *Collector) RecordPolicyDecision(op string, allowed bool, reason string) {
	outcome := "allowed"
	if !allowed {
		outcome = reason
	}
	c.decisions.WithLabelValues(op, outcome).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}

func (Nop) RecordAuthFailure(string) {}

func (Nop) RecordPolicyDecision(string, bool, string) {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
