package userdb

import (
	"fmt"

	"github.com/hamidoujand/roster/internal/domains/user/bus"
	"github.com/hamidoujand/roster/internal/order"
)

var orderByColumns = map[string]string{
	bus.OrderByName:      "name",
	bus.OrderByEmail:     "email",
	bus.OrderByCreatedAt: "created_at",
	bus.OrderByUpdatedAt: "updated_at",
}

func orderByClause(by order.By) (string, error) {
	col, ok := orderByColumns[by.Field]
	if !ok {
		return "", fmt.Errorf("field %q does not exist", by.Field)
	}

	//id as tie breaker keeps paging stable.
	return " ORDER BY " + col + " " + by.Direction + ", id " + by.Direction, nil
}
