package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the process metrics registry. A nil Collector is a valid no-op.
type Collector struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	checkEvents     *prometheus.CounterVec
	slipBatch       *prometheus.CounterVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chancehr",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chancehr",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		checkEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chancehr",
			Name:      "attendance_check_events_total",
			Help:      "Check-in and check-out attempts by outcome.",
		}, []string{"direction", "method", "outcome"}),
		slipBatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chancehr",
			Name:      "payroll_slips_generated_total",
			Help:      "Salary slip batch outcomes.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.checkEvents,
		c.slipBatch,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Record(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) CheckEvent(direction, method, outcome string) {
	if c == nil {
		return
	}
	c.checkEvents.WithLabelValues(direction, method, outcome).Inc()
}

func (c *Collector) SlipBatch(created, skipped, failed int) {
	if c == nil {
		return
	}
	c.slipBatch.WithLabelValues("created").Add(float64(created))
	c.slipBatch.WithLabelValues("skipped").Add(float64(skipped))
	c.slipBatch.WithLabelValues("failed").Add(float64(failed))
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
