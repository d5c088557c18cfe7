package mid

import (
	"github.com/gin-gonic/gin"
	"github.com/hamidoujand/roster/internal/metrics"
)

const metricsKey = "metrics"

// Metrics counts requests, errors and samples goroutines every 1000 requests.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metricsKey, m)
		m.Begin()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		n := m.AddRequest(c.Request.Method, route, c.Writer.Status())
		if n%1000 == 0 {
			m.AddGoroutines()
		}

		if len(c.Errors) > 0 || c.Writer.Status() >= 500 {
			m.AddError()
		}
	}
}
