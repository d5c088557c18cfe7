package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamidoujand/roster/internal/auth"
	"github.com/hamidoujand/roster/internal/domains/user/bus"
	"github.com/hamidoujand/roster/internal/mid"
	"github.com/hamidoujand/roster/internal/route"
	"github.com/hamidoujand/roster/pkg/logger"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Conf holds what the users routes depend on.
type Conf struct {
	UserBus *bus.Bus
	Tracer  trace.Tracer
	Log     logger.Logger

	// Auth verifies tokens on protected routes and signs them on login with
	// the key KID, tokens live for TokenMaxAge.
	Auth        *auth.Auth
	KID         string
	TokenMaxAge time.Duration

	// FindAll replaces the handler bound to GET /every when set.
	FindAll gin.HandlerFunc
}

// Routes builds the users route table, callers mount it wherever they want.
func Routes(cfg Conf) route.Table {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	usr := handler{
		userBus:     cfg.UserBus,
		auth:        cfg.Auth,
		kid:         cfg.KID,
		tokenMaxAge: cfg.TokenMaxAge,
		tracer:      tracer,
		log:         cfg.Log,
	}

	findAll := cfg.FindAll
	if findAll == nil {
		findAll = usr.FindAll
	}

	authenticate := mid.Authenticate(cfg.Auth, cfg.UserBus)

	return route.Table{
		route.New(http.MethodGet, "/every", findAll),
		route.New(http.MethodGet, "/:id", authenticate, usr.QueryByID),
		route.New(http.MethodPost, "/", usr.Create),
		route.New(http.MethodPost, "/login", usr.Login),
	}
}
