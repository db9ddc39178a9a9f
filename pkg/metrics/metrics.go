// Package metrics owns the prometheus registry exposed at /metrics.
package metrics

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ideahub"

var registry = prometheus.NewRegistry()

var (
	ProjectsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projects_created_total",
		Help:      "Projects created.",
	})
	ProjectsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projects_deleted_total",
		Help:      "Projects deleted together with their tasks, applications and chat.",
	})
	ApplicationsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_submitted_total",
		Help:      "Applications submitted.",
	})
	ApplicationDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "application_decisions_total",
		Help:      "Committed application decisions by outcome.",
	}, []string{"decision"})
	TaskStatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_status_changes_total",
		Help:      "Task status updates by target status.",
	}, []string{"status"})
	MessagesPosted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_posted_total",
		Help:      "Messages stored by kind (chat, direct, welcome).",
	}, []string{"kind"})
	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Decision notifications by result.",
	}, []string{"result"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ProjectsCreated,
		ProjectsDeleted,
		ApplicationsSubmitted,
		ApplicationDecisions,
		TaskStatusChanges,
		MessagesPosted,
		NotificationsSent,
		httpRequests,
		httpDuration,
	)
}

// Registry returns the service registry, for tests and extra collectors.
func Registry() *prometheus.Registry {
	return registry
}

// Handler serves the registry in the prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency keyed by the route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RegisterDBStats exposes connection pool stats for the named database.
// Calling it twice for the same name is a no-op.
func RegisterDBStats(db *sql.DB, name string) error {
	err := registry.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
