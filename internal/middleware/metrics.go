package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presusimple",
			Name:      "requests_total",
			Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
		},
		[]string{"code", "method", "url"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "presusimple",
			Name:      "request_duration_seconds",
			Help:      "The HTTP request latencies in seconds.",
		},
		[]string{"code", "method", "url"},
	)

	registerOnce sync.Once
)

// RegisterMetrics registers the request collectors with the default
// registry. Repeated calls are no-ops.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestCount, requestDuration)
	})
}

// Metrics records request count and latency per route.
func Metrics() gin.HandlerFunc {
	RegisterMetrics()
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start).Seconds()
		route := metricsRoute(c)

		requestDuration.WithLabelValues(status, c.Request.Method, route).Observe(elapsed)
		requestCount.WithLabelValues(status, c.Request.Method, route).Inc()
	}
}

// metricsRoute replaces path parameters with their names to bound label
// cardinality.
func metricsRoute(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	url := c.Request.URL.Path
	for _, p := range c.Params {
		url = strings.Replace(url, p.Value, fmt.Sprintf(":%s", p.Key), 1)
	}
	return url
}
