package handler

import (
	"context"
	"net/http"

	"github.com/hamidoujand/roster/internal/route"
	"github.com/hamidoujand/roster/internal/sqldb"
	"github.com/hamidoujand/roster/pkg/logger"
	"github.com/jmoiron/sqlx"
)

// Conf holds what the health routes depend on.
type Conf struct {
	DB    *sqlx.DB
	Log   logger.Logger
	Build string
}

// Routes builds the health route table.
func Routes(cfg Conf) route.Table {
	h := handler{
		check: func(ctx context.Context) error {
			return sqldb.StatusCheck(ctx, cfg.DB)
		},
		log:   cfg.Log,
		build: cfg.Build,
	}

	return h.routes()
}

func (h *handler) routes() route.Table {
	return route.Table{
		route.New(http.MethodGet, "/readiness", h.readiness),
		route.New(http.MethodGet, "/liveness", h.liveness),
	}
}
