package handler

import (
	"fmt"
	"time"

	"github.com/hamidoujand/roster/internal/domains/user/bus"
)

type queryFilter struct {
	Name           *string  `form:"name" binding:"omitempty,min=2,max=120"`
	Department     *string  `form:"department" binding:"omitempty,oneof=sales shipping marketing"`
	Roles          []string `form:"roles" binding:"omitempty,dive,oneof=admin user"`
	StartCreatedAt *string  `form:"startCreatedAt" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndCreatedAt   *string  `form:"endCreatedAt" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (f queryFilter) toBusQueryFilter() (bus.QueryFilter, error) {
	var qf bus.QueryFilter

	if len(f.Roles) > 0 {
		roles, err := bus.ParseManyRoles(f.Roles)
		if err != nil {
			return bus.QueryFilter{}, fmt.Errorf("parseManyRoles: %w", err)
		}
		qf.Roles = roles
	}

	qf.Name = f.Name
	qf.Department = f.Department

	if f.StartCreatedAt != nil {
		start, err := time.Parse(time.RFC3339, *f.StartCreatedAt)
		if err != nil {
			return bus.QueryFilter{}, fmt.Errorf("parse startCreatedAt: %w", err)
		}
		qf.StartCreatedAt = &start
	}

	if f.EndCreatedAt != nil {
		end, err := time.Parse(time.RFC3339, *f.EndCreatedAt)
		if err != nil {
			return bus.QueryFilter{}, fmt.Errorf("parse endCreatedAt: %w", err)
		}
		qf.EndCreatedAt = &end
	}

	return qf, nil
}
