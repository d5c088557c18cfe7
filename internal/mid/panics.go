package mid

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/hamidoujand/roster/internal/errs"
	"github.com/hamidoujand/roster/internal/metrics"
	"github.com/hamidoujand/roster/pkg/logger"
)

// Panic recovers from panics in the handlers below it and replies with a 500.
func Panic(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if val, ok := c.Get(metricsKey); ok {
				if m, ok := val.(*metrics.Metrics); ok {
					m.AddPanic()
				}
			}

			log.Error(c.Request.Context(), "PANIC", "rec", fmt.Sprint(rec), "stack", string(debug.Stack()))

			c.AbortWithStatusJSON(http.StatusInternalServerError, errs.Error{
				Code:    http.StatusInternalServerError,
				Message: http.StatusText(http.StatusInternalServerError),
			})
		}()

		c.Next()
	}
}
