// Package page provides support for query paging.
package page

import (
	"fmt"
	"math"
	"strconv"
)

const (
	defaultNumber = 1
	defaultRows   = 10
	maxRows       = 100
)

// Page represents the requested page and the rows per page.
type Page struct {
	Number int
	Rows   int
}

// Parse parses the page number and rows per page, empty values are replaced by defaults.
func Parse(pageNumber string, rowsPerPage string) (Page, error) {
	number := defaultNumber
	rows := defaultRows

	if pageNumber != "" {
		var err error
		number, err = strconv.Atoi(pageNumber)
		if err != nil {
			return Page{}, fmt.Errorf("converting page number: %w", err)
		}
	}

	if rowsPerPage != "" {
		var err error
		rows, err = strconv.Atoi(rowsPerPage)
		if err != nil {
			return Page{}, fmt.Errorf("converting rows per page: %w", err)
		}
	}

	if number <= 0 {
		return Page{}, fmt.Errorf("page %d, value too small, must be greater than 0", number)
	}

	if rows <= 0 {
		return Page{}, fmt.Errorf("rows %d, value too small, must be greater than 0", rows)
	}

	if rows > maxRows {
		return Page{}, fmt.Errorf("rows %d, value too big, must be at most %d", rows, maxRows)
	}

	//the offset must fit in an int.
	if number > math.MaxInt/rows {
		return Page{}, fmt.Errorf("page %d, value too big for %d rows per page", number, rows)
	}

	return Page{Number: number, Rows: rows}, nil
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Rows
}
