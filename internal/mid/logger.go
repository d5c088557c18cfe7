package mid

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamidoujand/roster/pkg/logger"
)

// Logger logs the start and the end of every request.
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		ctx := c.Request.Context()

		p := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			p = p + "?" + c.Request.URL.RawQuery
		}

		log.Info(ctx, "request started", "method", c.Request.Method, "path", p, "remoteAddr", c.Request.RemoteAddr)

		c.Next()

		log.Info(c.Request.Context(), "request completed", "method", c.Request.Method, "path", p, "remoteAddr", c.Request.RemoteAddr,
			"statusCode", c.Writer.Status(), "took", time.Since(startedAt))
	}
}
