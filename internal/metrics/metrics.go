// Package metrics exposes prometheus collectors for analysis runs and stages.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple pipelines never
// collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	stageDuration    *prometheus.HistogramVec
	substitutions    *prometheus.CounterVec
	scores           prometheus.Histogram
	httpRequests     *prometheus.CounterVec
}

// New registers every collector under the given namespace.
func New(namespace string) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Completed analysis runs by mode and rating.",
	}, []string{"mode", "rating"})

	c.analysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Wall time of one analysis run.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	c.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall time of a single pipeline stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	c.substitutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_substitutions_total",
		Help:      "Stages whose output was replaced by a neutral default.",
	}, []string{"stage", "reason"})

	c.scores = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "credibility_score",
		Help:      "Distribution of final credibility scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"route", "method", "status"})

	c.registry.MustRegister(
		c.analysesTotal,
		c.analysisDuration,
		c.stageDuration,
		c.substitutions,
		c.scores,
		c.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveAnalysis records a finished run.
func (c *Collector) ObserveAnalysis(mode, rating string, score float64, took time.Duration) {
	if c == nil {
		return
	}
	c.analysesTotal.WithLabelValues(mode, rating).Inc()
	c.analysisDuration.WithLabelValues(mode).Observe(took.Seconds())
	c.scores.Observe(score)
}

// ObserveStage records one stage execution.
func (c *Collector) ObserveStage(stage string, took time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(stage).Observe(took.Seconds())
}

// Substituted counts a neutral-default substitution.
func (c *Collector) Substituted(stage, reason string) {
	if c == nil {
		return
	}
	c.substitutions.WithLabelValues(stage, reason).Inc()
}

// ObserveHTTP counts a served request.
func (c *Collector) ObserveHTTP(route, method, status string) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, method, status).Inc()
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
