package mid_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/hamidoujand/roster/internal/errs"
	"github.com/hamidoujand/roster/internal/metrics"
	"github.com/hamidoujand/roster/internal/mid"
	"github.com/hamidoujand/roster/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace/noop"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type filter struct {
	Name string `form:"name" binding:"required,min=4"`
}

func newEngine() *gin.Engine {
	log := logger.NewDiscard()

	r := gin.New()
	r.Use(mid.Telemetry(noop.NewTracerProvider().Tracer("")))
	r.Use(mid.Logger(log))
	r.Use(mid.Metrics(metrics.New(prometheus.NewRegistry())))
	r.Use(mid.Errors(log))
	r.Use(mid.Panic(log))

	r.GET("/app", func(c *gin.Context) {
		c.Error(errs.New(http.StatusNotFound, "user %s not found", "42"))
	})
	r.GET("/internal", func(c *gin.Context) {
		c.Error(errs.New(http.StatusInternalServerError, "pq: connection refused"))
	})
	r.GET("/unknown", func(c *gin.Context) {
		c.Error(errors.New("boom"))
	})
	r.GET("/validate", func(c *gin.Context) {
		var f filter
		if err := c.ShouldBindQuery(&f); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("handler exploded")
	})

	return r
}

func Test_Errors(t *testing.T) {
	r := newEngine()

	tests := []struct {
		name       string
		path       string
		statusCode int
		message    string
		fields     []string
	}{
		{name: "app_error", path: "/app", statusCode: http.StatusNotFound, message: "user 42 not found"},
		{name: "internal_error_hidden", path: "/internal", statusCode: http.StatusInternalServerError, message: http.StatusText(http.StatusInternalServerError)},
		{name: "unknown_error", path: "/unknown", statusCode: http.StatusInternalServerError, message: http.StatusText(http.StatusInternalServerError)},
		{name: "validation_error", path: "/validate?name=Jo", statusCode: http.StatusBadRequest, message: "input validation failed", fields: []string{"name"}},
		{name: "panic", path: "/panic", statusCode: http.StatusInternalServerError, message: http.StatusText(http.StatusInternalServerError)},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, ts.path, nil))

			if w.Code != ts.statusCode {
				t.Fatalf("status=%d, got=%d", ts.statusCode, w.Code)
			}

			var appErr errs.Error
			if err := json.NewDecoder(w.Body).Decode(&appErr); err != nil {
				t.Fatalf("failed to decode error: %s", err)
			}

			if appErr.Message != ts.message {
				t.Errorf("message=%q, got=%q", ts.message, appErr.Message)
			}

			var fields []string
			for f := range appErr.Fields {
				fields = append(fields, f)
			}

			if diff := cmp.Diff(ts.fields, fields); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_CORS(t *testing.T) {
	r := gin.New()
	r.Use(mid.CORS([]string{"https://roster.example.com"}))
	r.GET("/every", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/every", nil)
	req.Header.Set("Origin", "https://roster.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://roster.example.com" {
		t.Errorf("allowOrigin=%s, got=%s", "https://roster.example.com", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/every", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status=%d, got=%d", http.StatusForbidden, w.Code)
	}
}
