package bus

import "github.com/hamidoujand/roster/internal/order"

// fields users can be ordered by.
const (
	OrderByName      = "name"
	OrderByEmail     = "email"
	OrderByCreatedAt = "createdAt"
	OrderByUpdatedAt = "updatedAt"
)

// DefaultOrderBy is used when the client does not ask for an order.
var DefaultOrderBy = order.NewBy(OrderByCreatedAt, order.ASC)

var orderByFields = map[string]string{
	"name":      OrderByName,
	"email":     OrderByEmail,
	"createdAt": OrderByCreatedAt,
	"updatedAt": OrderByUpdatedAt,
}

// ParseOrderBy parses an "order_by" query value into a user order.
func ParseOrderBy(query string) (order.By, error) {
	return order.Parse(orderByFields, query, DefaultOrderBy)
}
