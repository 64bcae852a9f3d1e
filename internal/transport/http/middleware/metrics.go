package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gophercalc/internal/observability"
)

// Metrics records request counts and latency. The route template, not
// the raw path, is the label so /users/1 and /users/2 share a series.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
