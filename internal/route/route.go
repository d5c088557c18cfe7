// Package route provides declarative route tables that can be mounted into any
// gin router.
package route

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Route binds an http method and a path to a chain of handlers, the last one
// being the endpoint itself and the rest route specific middlewares.
type Route struct {
	Method   string
	Path     string
	Handlers []gin.HandlerFunc
}

// New creates a route, handlers are copied so the caller can not change them
// after the route has been built.
func New(method string, path string, handlers ...gin.HandlerFunc) Route {
	hs := make([]gin.HandlerFunc, len(handlers))
	copy(hs, handlers)

	return Route{
		Method:   strings.ToUpper(method),
		Path:     path,
		Handlers: hs,
	}
}

// Table is a set of routes owned by a domain, it does not hold any reference to
// a router so the same table can be mounted many times.
type Table []Route

// Mount registers every route of the table into r.
func (t Table) Mount(r gin.IRoutes) {
	for _, rt := range t {
		//gin keeps the slice it receives, hand it a fresh one per mount.
		hs := make([]gin.HandlerFunc, len(rt.Handlers))
		copy(hs, rt.Handlers)

		r.Handle(rt.Method, rt.Path, hs...)
	}
}

// MountAt creates a group under prefix and mounts the table into it, the group
// is returned so callers can attach more routes to it.
func (t Table) MountAt(r gin.IRouter, prefix string, mids ...gin.HandlerFunc) *gin.RouterGroup {
	g := r.Group(prefix, mids...)
	t.Mount(g)
	return g
}
