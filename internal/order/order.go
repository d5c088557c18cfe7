// Package order provides support for parsing the order_by query parameter.
package order

import (
	"fmt"
	"strings"
)

// directions
const (
	ASC  = "ASC"
	DESC = "DESC"
)

var directions = map[string]string{
	"asc":  ASC,
	"desc": DESC,
}

// By represents a field used to order by and the direction of it.
type By struct {
	Field     string
	Direction string
}

// NewBy constructs a By, unknown directions fall back to ASC.
func NewBy(field string, direction string) By {
	dir, ok := directions[strings.ToLower(direction)]
	if !ok {
		dir = ASC
	}

	return By{Field: field, Direction: dir}
}

// Parse constructs a By from a query like "field,direction" for example "name,desc".
// fieldMappings maps the names clients can use into the domain field names.
func Parse(fieldMappings map[string]string, query string, defaultOrder By) (By, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return defaultOrder, nil
	}

	parts := strings.Split(query, ",")
	name := strings.TrimSpace(parts[0])

	field, ok := fieldMappings[name]
	if !ok {
		return By{}, fmt.Errorf("unknown field: %s", name)
	}

	switch len(parts) {
	case 1:
		return NewBy(field, ASC), nil
	case 2:
		d := strings.TrimSpace(parts[1])
		dir, ok := directions[strings.ToLower(d)]
		if !ok {
			return By{}, fmt.Errorf("unknown direction: %s", d)
		}

		return NewBy(field, dir), nil
	default:
		return By{}, fmt.Errorf("unknown order: %s", query)
	}
}
