package route_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/hamidoujand/roster/internal/route"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func Test_Mount(t *testing.T) {
	t.Parallel()

	var calls []string
	record := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			calls = append(calls, name)
			c.Status(http.StatusOK)
		}
	}

	table := route.Table{
		route.New(http.MethodGet, "/first", record("first")),
		route.New("post", "/second", record("second")),
	}

	r := gin.New()
	table.Mount(r)

	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
		calls      []string
	}{
		{name: "get_first", method: http.MethodGet, path: "/first", statusCode: http.StatusOK, calls: []string{"first"}},
		{name: "post_second", method: http.MethodPost, path: "/second", statusCode: http.StatusOK, calls: []string{"second"}},
		{name: "post_first", method: http.MethodPost, path: "/first", statusCode: http.StatusNotFound},
		{name: "unknown", method: http.MethodGet, path: "/unknown", statusCode: http.StatusNotFound},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			calls = nil

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(ts.method, ts.path, nil))

			if w.Code != ts.statusCode {
				t.Errorf("status=%d, got=%d", ts.statusCode, w.Code)
			}

			if diff := cmp.Diff(ts.calls, calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_MountAt(t *testing.T) {
	t.Parallel()

	var order []string
	mid := func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	}
	routeMid := func(c *gin.Context) {
		order = append(order, "route")
		c.Next()
	}
	endpoint := func(c *gin.Context) {
		order = append(order, "endpoint")
		c.Status(http.StatusNoContent)
	}

	table := route.Table{route.New(http.MethodGet, "/every", routeMid, endpoint)}

	r := gin.New()
	table.MountAt(r, "/v1/users", mid)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users/every", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d, got=%d", http.StatusNoContent, w.Code)
	}

	want := []string{"group", "route", "endpoint"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("handler order mismatch (-want +got):\n%s", diff)
	}

	//not reachable without the prefix
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/every", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status=%d, got=%d", http.StatusNotFound, w.Code)
	}
}

func Test_NewCopiesHandlers(t *testing.T) {
	t.Parallel()

	hit := ""
	a := func(c *gin.Context) { hit = "a" }
	b := func(c *gin.Context) { hit = "b" }

	hs := []gin.HandlerFunc{a}
	rt := route.New(http.MethodGet, "/x", hs...)
	hs[0] = b

	r := gin.New()
	route.Table{rt}.Mount(r)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if hit != "a" {
		t.Errorf("handler=%s, got=%s", "a", hit)
	}
}
