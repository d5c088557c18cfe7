package userdb

import (
	"bytes"
	"strings"

	"github.com/hamidoujand/roster/internal/domains/user/bus"
)

func applyFilter(filter bus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.Name != nil {
		data["name"] = "%" + *filter.Name + "%"
		wc = append(wc, "name ILIKE :name")
	}

	if filter.Department != nil {
		data["department"] = *filter.Department
		wc = append(wc, "department = :department")
	}

	if len(filter.Roles) > 0 {
		data["roles"] = bus.RolesToString(filter.Roles)
		wc = append(wc, "roles && :roles")
	}

	if filter.StartCreatedAt != nil {
		data["start_created_at"] = filter.StartCreatedAt.UTC()
		wc = append(wc, "created_at >= :start_created_at")
	}

	if filter.EndCreatedAt != nil {
		data["end_created_at"] = filter.EndCreatedAt.UTC()
		wc = append(wc, "created_at <= :end_created_at")
	}

	if len(wc) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(wc, " AND "))
	}
}
