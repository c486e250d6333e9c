// Package metrics exposes Prometheus collectors for the file server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. Each instance owns its registry so several
// servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	ArchiveFiles   prometheus.Counter
	ArchiveBytes   prometheus.Counter
	ArchiveSkipped prometheus.Counter
	ArchivesTotal  *prometheus.CounterVec

	Searches          *prometheus.CounterVec
	SearchTruncations prometheus.Counter

	ForbiddenPaths prometheus.Counter
	UploadedFiles  prometheus.Counter
	UploadedBytes  prometheus.Counter
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskswap_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskswap_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "route"},
		),

		ArchiveFiles: factory.NewCounter(prometheus.CounterOpts{
			Name: "deskswap_archive_files_total",
			Help: "Files written into zip archives",
		}),
		ArchiveBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "deskswap_archive_source_bytes_total",
			Help: "Uncompressed bytes read into zip archives",
		}),
		ArchiveSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "deskswap_archive_skipped_entries_total",
			Help: "Entries left out of archives because they could not be read",
		}),
		ArchivesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskswap_archives_total",
				Help: "Archives produced, by shape and outcome",
			},
			[]string{"shape", "outcome"},
		),

		Searches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskswap_searches_total",
				Help: "Name searches, by mode",
			},
			[]string{"mode"},
		),
		SearchTruncations: factory.NewCounter(prometheus.CounterOpts{
			Name: "deskswap_search_truncated_total",
			Help: "Searches that hit the result cap",
		}),

		ForbiddenPaths: factory.NewCounter(prometheus.CounterOpts{
			Name: "deskswap_forbidden_paths_total",
			Help: "Requests rejected because the path escaped the root",
		}),
		UploadedFiles: factory.NewCounter(prometheus.CounterOpts{
			Name: "deskswap_uploaded_files_total",
			Help: "Files stored through uploads",
		}),
		UploadedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "deskswap_uploaded_bytes_total",
			Help: "Bytes stored through uploads",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "browse"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
