// Package metrics exposes Prometheus metrics for the HTTP surface and the
// tracker's domain events.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-tracker/internal/models"
)

// Path is where the scrape endpoint is mounted.
const Path = "/metrics"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	itemsCreatedTotal    *prometheus.CounterVec
	progressUpdatesTotal *prometheus.CounterVec
	goalsLockedTotal     prometheus.Counter
	goalsClearedTotal    prometheus.Counter
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	m.itemsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_items_created_total",
			Help: "Total number of media items created",
		},
		[]string{"media_type"},
	)
	m.progressUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_progress_updates_total",
			Help: "Total number of progress entries recorded",
		},
		[]string{"media_type"},
	)
	m.goalsLockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "goals_locked_total",
		Help: "Total number of goals locked",
	})
	m.goalsClearedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "goals_cleared_total",
		Help: "Total number of goals cleared",
	})

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.itemsCreatedTotal,
		m.progressUpdatesTotal,
		m.goalsLockedTotal,
		m.goalsClearedTotal,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latencies, labelled by the
// matched route pattern rather than the raw path.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		route := c.Route().Path
		m.httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
}

func (m *Metrics) ItemCreated(t models.MediaType) {
	m.itemsCreatedTotal.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ProgressRecorded(t models.MediaType) {
	m.progressUpdatesTotal.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) GoalLocked() {
	m.goalsLockedTotal.Inc()
}

func (m *Metrics) GoalCleared() {
	m.goalsClearedTotal.Inc()
}
